package admin

import (
	"log/slog"
	"net/http"

	request "trustrent/pkg/platform/middleware/request"
	"trustrent/pkg/requestcontext"
)

// RoleSysAdmin is the only role allowed through the review endpoints.
const RoleSysAdmin = "sys_admin"

// RequireSysAdmin gates a route to platform administrators. Must run after
// the bearer-token middleware so the caller's role is in context.
func RequireSysAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != RoleSysAdmin {
				logger.WarnContext(ctx, "admin route denied",
					"caller_role", requestcontext.Role(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"administrator role required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
