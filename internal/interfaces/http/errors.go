package http

import (
	"context"
	"net/http"

	"github.com/garyjia/funding-workflow/internal/application/service"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

// statusFor maps the service error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errs.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errs.Is(err, service.ErrAlreadyDecided):
		return http.StatusBadRequest
	case errs.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errs.Is(err, service.ErrInvalidToken),
		errs.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errs.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errs.Is(err, service.ErrStoreUnavailable),
		errs.Is(err, service.ErrNotifierUnavailable),
		errs.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the caller-facing text for err; internal causes stay in the log
func publicMessage(err error) string {
	switch {
	case errs.Is(err, service.ErrInvalidDecision):
		return service.ErrInvalidDecision.Error()
	case errs.Is(err, service.ErrCommentsRequired):
		return service.ErrCommentsRequired.Error()
	case errs.Is(err, service.ErrValidation):
		return err.Error()
	case errs.Is(err, service.ErrAlreadyDecided):
		return "this request has already been decided"
	case errs.Is(err, service.ErrUnauthenticated):
		return "sign in to continue"
	case errs.Is(err, service.ErrInvalidToken):
		return "this decision link is not valid"
	case errs.Is(err, service.ErrForbidden):
		return "you do not have access to this request"
	case errs.Is(err, service.ErrNotFound):
		return "request not found"
	case errs.Is(err, service.ErrNotifierUnavailable):
		return "the request could not be delivered to an approver, please try again later"
	case errs.Is(err, service.ErrStoreUnavailable):
		return "the service is temporarily unavailable, please try again later"
	default:
		return "internal error"
	}
}
