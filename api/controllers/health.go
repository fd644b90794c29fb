package controllers

import (
	"net/http"

	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/pkg/config"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CrowdVault-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness after checking the hard dependencies.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CrowdVault-Env", cfg.App.Env)

		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
