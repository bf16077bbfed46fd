package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

// IDAllocator issues request ids of the form <localPart>-<YYYYMMDD>-<n>.
// Uniqueness rests on the sequence repository's atomic increment.
type IDAllocator struct {
	sequences port.SequenceRepository
	now       func() time.Time
}

// NewIDAllocator creates an allocator; now defaults to time.Now
func NewIDAllocator(sequences port.SequenceRepository, now func() time.Time) *IDAllocator {
	if now == nil {
		now = time.Now
	}
	return &IDAllocator{
		sequences: sequences,
		now:       now,
	}
}

// Allocate returns the next id for the requester owning email, using the UTC date
func (a *IDAllocator) Allocate(ctx context.Context, email string) (string, error) {
	at := strings.Index(email, "@")
	if at < 0 {
		return "", Validation("requester email must contain @")
	}
	localPart := email[:at]
	if localPart == "" {
		return "", Validation("requester email has an empty local part")
	}

	date := a.now().UTC().Format("20060102")
	n, err := a.sequences.Next(ctx, localPart, date)
	if err != nil {
		return "", errs.Mark(err, ErrStoreUnavailable)
	}
	return fmt.Sprintf("%s-%s-%d", localPart, date, n), nil
}
