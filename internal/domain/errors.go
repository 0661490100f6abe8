package domain

import (
	"context"
	"errors"

	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/xcontext"
)

// storeError converts an unexpected repository error into a user-facing one.
// An exhausted retry becomes a retryable Unavailable; anything else is logged
// and hidden behind Unknown.
func storeError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, repository.ErrUnavailable) {
		xcontext.Logger(ctx).Warnf("%s: %v", msg, err)
		return errorx.New(errorx.Unavailable, "Store is temporarily unavailable, try again")
	}

	xcontext.Logger(ctx).Errorf("%s: %v", msg, err)
	return errorx.Unknown
}
