// Package httpapi composes the HTTP surface: public registration and login,
// the token-gated logout, and the sys_admin review queue.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "trustrent/internal/auth/handler"
	identityhandler "trustrent/internal/identity/handler"
	platformmetrics "trustrent/internal/platform/metrics"
	"trustrent/pkg/platform/middleware/admin"
	authmw "trustrent/pkg/platform/middleware/auth"
	"trustrent/pkg/platform/middleware/metadata"
	request "trustrent/pkg/platform/middleware/request"
	"trustrent/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts. Nil HTTPMetrics and Health are
// tolerated so tests can wire only what they exercise.
type Deps struct {
	Logger      *slog.Logger
	Identity    *identityhandler.Handler
	Auth        *authhandler.Handler
	Validator   authmw.JWTValidator
	HTTPMetrics *platformmetrics.Metrics
	Health      func(ctx context.Context) error
}

// NewRouter wires all endpoints with the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	// Public surface.
	deps.Identity.Register(r)
	deps.Auth.Register(r)

	// Token-gated surface.
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
		deps.Auth.RegisterProtected(pr)
	})

	// Review queue, sys_admin only.
	r.Group(func(ar chi.Router) {
		ar.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
		ar.Use(admin.RequireSysAdmin(deps.Logger))
		deps.Identity.RegisterAdmin(ar)
	})

	r.Get("/healthz", healthHandler(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
