package service

import (
	"context"
	"strings"
	"time"

	"github.com/garyjia/funding-workflow/internal/application/dispatcher"
	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/event"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/internal/metrics"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

// SubmissionService accepts new funding requests
type SubmissionService interface {
	// Submit stores a pending request and notifies the approvers.
	// If no approver can be notified the error matches ErrNotifierUnavailable.
	Submit(ctx context.Context, requester *entity.Identity, form entity.FormData) (*entity.FundingRequest, error)

	// Get returns a stored request
	Get(ctx context.Context, id string) (*entity.FundingRequest, error)
}

type submissionServiceImpl struct {
	allocator  *IDAllocator
	repo       port.FundingRequestRepository
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
	newToken   func() (string, error)
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	allocator *IDAllocator,
	repo port.FundingRequestRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) SubmissionService {
	return &submissionServiceImpl{
		allocator:  allocator,
		repo:       repo,
		dispatcher: d,
		logger:     logger,
		now:        time.Now,
		newToken:   GenerateDecisionToken,
	}
}

func (s *submissionServiceImpl) Submit(ctx context.Context, requester *entity.Identity, form entity.FormData) (*entity.FundingRequest, error) {
	req, err := s.submit(ctx, requester, form)
	if err != nil {
		metrics.RecordSubmission(metrics.OutcomeFailure)
		return nil, err
	}
	metrics.RecordSubmission(metrics.OutcomeSuccess)
	return req, nil
}

func (s *submissionServiceImpl) submit(ctx context.Context, requester *entity.Identity, form entity.FormData) (*entity.FundingRequest, error) {
	if requester == nil || strings.TrimSpace(requester.Email) == "" {
		return nil, ErrUnauthenticated
	}
	if len(form) == 0 {
		return nil, Validation("form data is required")
	}
	email := strings.TrimSpace(requester.Email)

	id, err := s.allocator.Allocate(ctx, email)
	if err != nil {
		s.logger.Error("Failed to allocate request id", "email", email, "error", err)
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, errs.Wrap(err, "generate decision token")
	}

	req := &entity.FundingRequest{
		ID:            id,
		FormData:      form.Clone(),
		DecisionToken: token,
		Status:        workflow.StatePending,
		SubmittedAt:   s.now().UTC(),
		SubmittedBy:   email,
		SubmitterName: requester.Name,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("Failed to store funding request", "request_id", id, "error", err)
		return nil, errs.Mark(err, ErrStoreUnavailable)
	}

	s.logger.Info("Funding request stored",
		"request_id", id,
		"submitted_by", email,
	)

	evt := event.NewEvent(event.TypeRequestSubmitted, id, map[string]interface{}{
		event.PayloadSubmittedBy: email,
		event.PayloadNewStatus:   workflow.StatePending.String(),
	})
	if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
		// The record stays pending; resubmitting allocates a fresh id
		s.logger.Error("Approver notification failed for stored request",
			"request_id", id,
			"error", err,
		)
		return nil, errs.Mark(err, ErrNotifierUnavailable)
	}

	return req, nil
}

func (s *submissionServiceImpl) Get(ctx context.Context, id string) (*entity.FundingRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if errs.Is(err, port.ErrRequestNotFound) {
		return nil, errs.Mark(err, ErrNotFound)
	}
	if err != nil {
		return nil, errs.Mark(err, ErrStoreUnavailable)
	}
	return req, nil
}
