package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/redis"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady reports readiness of the database and session store.
func HealthReady(logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.database", err)
				}
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.redis", err)
				}
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteJSON(w, status, checks)
	}
}
