package middleware

import (
	"context"
	"net/http"

	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/router"
	"github.com/peerquest-lab/backend/pkg/xcontext"
)

// UserIDHeader carries the authenticated user of the request. The identity
// collaborator in front of this service verifies it; the engine only trusts
// and forwards it.
const UserIDHeader = "X-User-Id"

func Identity() router.MiddlewareFunc {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Not found user id")
		}

		return xcontext.WithRequestUserID(ctx, userID), nil
	}
}
