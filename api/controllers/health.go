package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mariagarzap/festeja-backend/api/responses"
	"github.com/mariagarzap/festeja-backend/pkg/config"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything that can answer a liveness probe against its backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Festeja-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the database and redis. A nil pinger is reported as
// skipped so partial deployments still get a meaningful answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Festeja-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, pinger := range map[string]Pinger{"database": db, "redis": redis} {
			if pinger == nil {
				checks[name] = "skipped"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health."+name+"_unreachable", err)
				}
				continue
			}
			checks[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unreachable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
