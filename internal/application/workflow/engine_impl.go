package workflow

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/garyjia/funding-workflow/internal/application/dispatcher"
	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/application/service"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/event"
	domainwf "github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/internal/metrics"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

type engineImpl struct {
	repo       port.FundingRequestRepository
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        Clock
}

// EngineOption configures the engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives request.decided events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides time.Now for decidedAt
func WithClock(clock Clock) EngineOption {
	return func(e *engineImpl) {
		e.now = clock
	}
}

// NewEngine creates a lifecycle engine over the request repository
func NewEngine(repo port.FundingRequestRepository, opts ...EngineOption) Engine {
	e := &engineImpl{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) Decide(ctx context.Context, cmd DecideCommand) (*DecideResult, error) {
	result, err := e.decide(ctx, cmd)
	metrics.RecordDecision(strings.TrimSpace(cmd.Decision), outcomeLabel(err))
	return result, err
}

func (e *engineImpl) decide(ctx context.Context, cmd DecideCommand) (*DecideResult, error) {
	requestID := strings.TrimSpace(cmd.RequestID)
	if requestID == "" || cmd.Token == "" {
		return nil, service.Validation("requestId and token are required")
	}

	decision, err := domainwf.ParseDecision(strings.TrimSpace(cmd.Decision))
	if err != nil {
		return nil, errs.Wrapf(service.ErrInvalidDecision, "decision %q", cmd.Decision)
	}

	comments := strings.TrimSpace(cmd.Comments)
	if decision.RequiresComments() && comments == "" {
		return nil, service.ErrCommentsRequired
	}

	// Token and status are checked inside the mutator so the check and the
	// write commit together; a concurrent winner makes this attempt re-read
	// and fail with ErrAlreadyDecided.
	var previous domainwf.State
	updated, err := e.repo.Update(ctx, requestID, func(req *entity.FundingRequest) error {
		if !tokenMatches(req.DecisionToken, cmd.Token) {
			return service.ErrInvalidToken
		}
		if !req.Status.IsValid() {
			return errs.Wrapf(domainwf.ErrInvalidState, "stored status %q", req.Status)
		}

		sm := BuildFundingStateMachine(req.Status)
		if err := sm.Fire(ctx, decision.Trigger()); err != nil {
			if errors.Is(err, domainwf.ErrInvalidTransition) {
				return errs.Mark(err, service.ErrAlreadyDecided)
			}
			return err
		}

		previous = req.Status
		decidedAt := e.now().UTC()
		req.Status = sm.State()
		req.DecidedAt = &decidedAt
		req.Comments = comments
		return nil
	})
	if err != nil {
		return nil, e.translate(requestID, err)
	}

	if e.logger != nil {
		e.logger.Info("Funding request decided",
			"request_id", requestID,
			"previous_status", previous,
			"new_status", updated.Status,
		)
	}

	e.notifyDecided(ctx, updated, previous, decision)

	return &DecideResult{
		Request:       updated,
		PreviousState: previous,
		Decision:      decision,
	}, nil
}

// notifyDecided never fails the decision; the transition is already durable
func (e *engineImpl) notifyDecided(ctx context.Context, req *entity.FundingRequest, previous domainwf.State, decision domainwf.Decision) {
	if e.dispatcher == nil {
		return
	}

	evt := event.NewEvent(event.TypeRequestDecided, req.ID, map[string]interface{}{
		event.PayloadPreviousStatus: previous.String(),
		event.PayloadNewStatus:      req.Status.String(),
		event.PayloadDecision:       decision.String(),
	})
	if err := e.dispatcher.Dispatch(ctx, evt); err != nil && e.logger != nil {
		e.logger.Error("Decision notification failed, follow up manually",
			"request_id", req.ID,
			"new_status", req.Status,
			"error", err,
		)
	}
}

func (e *engineImpl) translate(requestID string, err error) error {
	switch {
	case errs.Is(err, service.ErrInvalidToken),
		errs.Is(err, service.ErrAlreadyDecided),
		errs.Is(err, context.Canceled),
		errs.Is(err, context.DeadlineExceeded):
		return err
	case errs.Is(err, port.ErrRequestNotFound):
		return errs.Mark(err, service.ErrNotFound)
	}

	if e.logger != nil {
		e.logger.Error("Failed to apply decision",
			"request_id", requestID,
			"error", err,
		)
	}
	return errs.Mark(err, service.ErrStoreUnavailable)
}

func (e *engineImpl) Authorize(ctx context.Context, requestID, token string) (*entity.FundingRequest, error) {
	if strings.TrimSpace(requestID) == "" || token == "" {
		return nil, service.Validation("requestId and token are required")
	}
	req, err := e.repo.Get(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return nil, e.translate(requestID, err)
	}
	if !tokenMatches(req.DecisionToken, token) {
		return nil, service.ErrInvalidToken
	}
	return req, nil
}

func (e *engineImpl) CurrentState(ctx context.Context, requestID string) (domainwf.State, error) {
	req, err := e.repo.Get(ctx, requestID)
	if err != nil {
		return "", e.translate(requestID, err)
	}
	return req.Status, nil
}

func tokenMatches(stored, presented string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errs.Is(err, service.ErrValidation):
		return "validation"
	case errs.Is(err, service.ErrNotFound):
		return "not_found"
	case errs.Is(err, service.ErrInvalidToken):
		return "invalid_token"
	case errs.Is(err, service.ErrAlreadyDecided):
		return "already_decided"
	default:
		return metrics.OutcomeFailure
	}
}
