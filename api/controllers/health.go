package controllers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetreatHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Redis is optional infrastructure,
// so a missing client does not fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetreatHub-Env", cfg.App.Env)

		ctx, cancel := contextWithTimeout(r, readinessTimeout)
		defer cancel()

		var pingErr error
		checks := map[string]string{}
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				pingErr = multierr.Append(pingErr, fmt.Errorf("database: %w", err))
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				pingErr = multierr.Append(pingErr, fmt.Errorf("redis: %w", err))
			} else {
				checks["redis"] = "ok"
			}
		}
		if pingErr != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, pingErr, "backing store unavailable"))
			return
		}
		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
