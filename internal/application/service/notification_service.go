package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/funding-workflow/internal/application/dispatcher"
	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/breakdown"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/event"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/internal/metrics"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

// Notification audiences, also used as metric labels
const (
	AudienceApprover  = "approver"
	AudienceRequester = "requester"
	AudienceDisburser = "disburser"
)

// NotificationService renders and sends the messages for each lifecycle event
type NotificationService interface {
	// NotifySubmitted sends the decision link to the approver audience
	NotifySubmitted(ctx context.Context, req *entity.FundingRequest) error

	// NotifyDecided tells the requester and, on acceptance, the disburser audience.
	// Every send is attempted; the joined failures are returned.
	NotifyDecided(ctx context.Context, req *entity.FundingRequest) error

	// Register subscribes the service to request.submitted and request.decided
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	repo      port.FundingRequestRepository
	notifier  port.Notifier
	directory port.RoleDirectory
	baseURL   string
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	repo port.FundingRequestRepository,
	notifier port.Notifier,
	directory port.RoleDirectory,
	baseURL string,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		repo:      repo,
		notifier:  notifier,
		directory: directory,
		baseURL:   baseURL,
		logger:    logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRequestSubmitted, "notify-approvers",
		"sends the decision link to approvers", s.handle(s.NotifySubmitted))
	d.SubscribeNamed(event.TypeRequestDecided, "notify-decision",
		"tells the requester and, when accepted, the disbursers", s.handle(s.NotifyDecided))
}

// handle loads the request named by the event so messages reflect the committed record
func (s *notificationServiceImpl) handle(notify func(context.Context, *entity.FundingRequest) error) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		req, err := s.repo.Get(ctx, evt.RequestID)
		if err != nil {
			return fmt.Errorf("load request %s: %w", evt.RequestID, err)
		}
		return notify(ctx, req)
	}
}

func (s *notificationServiceImpl) NotifySubmitted(ctx context.Context, req *entity.FundingRequest) error {
	approvers, err := s.directory.Members(ctx, entity.RoleApprover)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "resolve approvers"), ErrNotifierUnavailable)
	}
	if len(approvers) == 0 {
		return errs.Mark(errs.New("no approvers configured"), ErrNotifierUnavailable)
	}

	bd := breakdown.Compute(req.FormData)
	subject, body := RenderSubmitted(req, bd, DecisionLink(s.baseURL, req.ID, req.DecisionToken))

	return s.send(ctx, req.ID, AudienceApprover, port.Message{
		To:      approvers,
		Subject: subject,
		Body:    body,
	})
}

func (s *notificationServiceImpl) NotifyDecided(ctx context.Context, req *entity.FundingRequest) error {
	if !req.Status.IsTerminal() {
		return fmt.Errorf("request %s is not decided (status %s)", req.ID, req.Status)
	}

	var errList []error

	subject, body := RenderRequesterDecision(req)
	if err := s.send(ctx, req.ID, AudienceRequester, port.Message{
		To:      []string{req.SubmittedBy},
		Subject: subject,
		Body:    body,
	}); err != nil {
		errList = append(errList, err)
	}

	if req.Status == workflow.StateAccepted {
		if err := s.notifyDisbursers(ctx, req); err != nil {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}

func (s *notificationServiceImpl) notifyDisbursers(ctx context.Context, req *entity.FundingRequest) error {
	disbursers, err := s.directory.Members(ctx, entity.RoleDisburser)
	if err != nil {
		metrics.RecordNotification(AudienceDisburser, metrics.OutcomeFailure)
		s.logger.Error("Failed to resolve disbursers", "request_id", req.ID, "error", err)
		return errs.Mark(errs.Wrap(err, "resolve disbursers"), ErrNotifierUnavailable)
	}
	if len(disbursers) == 0 {
		metrics.RecordNotification(AudienceDisburser, metrics.OutcomeFailure)
		s.logger.Error("No disbursers configured, payment needs manual follow-up", "request_id", req.ID)
		return errs.Mark(errs.New("no disbursers configured"), ErrNotifierUnavailable)
	}

	subject, body := RenderDisbursement(req, breakdown.Compute(req.FormData))
	return s.send(ctx, req.ID, AudienceDisburser, port.Message{
		To:      disbursers,
		Subject: subject,
		Body:    body,
	})
}

// send delivers msg to an audience. A send that reached at least one
// recipient counts as delivered; the missed recipients are logged for follow-up.
func (s *notificationServiceImpl) send(ctx context.Context, requestID, audience string, msg port.Message) error {
	err := s.notifier.Send(ctx, msg)

	var delivery *port.DeliveryError
	if errors.As(err, &delivery) && delivery.Reached() {
		metrics.RecordNotification(audience, metrics.OutcomePartial)
		s.logger.Error("Notification missed some recipients, follow up manually",
			"request_id", requestID,
			"audience", audience,
			"delivered", delivery.Delivered,
			"error", err,
		)
		return nil
	}

	if err != nil {
		metrics.RecordNotification(audience, metrics.OutcomeFailure)
		s.logger.Error("Failed to send notification",
			"request_id", requestID,
			"audience", audience,
			"recipients", msg.To,
			"error", err,
		)
		return errs.Mark(errs.Wrapf(err, "notify %s", audience), ErrNotifierUnavailable)
	}

	metrics.RecordNotification(audience, metrics.OutcomeSuccess)
	s.logger.Info("Notification sent",
		"request_id", requestID,
		"audience", audience,
		"recipients", len(msg.To),
	)
	return nil
}
