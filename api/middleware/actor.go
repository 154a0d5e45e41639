package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/logger"
)

// Identity headers set by the API gateway after it authenticates the caller.
// This service trusts them as-is; token verification happens upstream.
const (
	userIDHeader     = "X-User-Id"
	businessIDHeader = "X-Business-Id"
	actorRoleHeader  = "X-Actor-Role"
)

// Known actor roles.
const (
	RoleVendor = "vendor"
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// ActorContext copies gateway identity headers into the request context and
// the log context. Malformed UUIDs are dropped rather than rejected; role
// checks downstream decide whether an identity is required.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := headerUUID(r, userIDHeader); userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			if businessID := headerUUID(r, businessIDHeader); businessID != "" {
				ctx = WithBusinessID(ctx, businessID)
				if logg != nil {
					ctx = logg.WithBusinessID(ctx, businessID)
				}
			}
			if role := strings.ToLower(strings.TrimSpace(r.Header.Get(actorRoleHeader))); role != "" {
				ctx = WithRole(ctx, role)
				if logg != nil {
					ctx = logg.WithActorRole(ctx, role)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func headerUUID(r *http.Request, header string) string {
	raw := strings.TrimSpace(r.Header.Get(header))
	if raw == "" {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return ""
	}
	return id.String()
}
