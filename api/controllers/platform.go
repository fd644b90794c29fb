package controllers

import (
	"net/http"

	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/api/validators"
	"github.com/crowdvault/crowdvault-backend/internal/platform"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

// PlatformInitialize performs the one-time platform bootstrap. The caller's
// identity becomes the platform authority.
func PlatformInitialize(svc platform.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "platform service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		state, err := svc.Initialize(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPlatformView(state))
	}
}

type platformSettingsRequest struct {
	PlatformFeePercent int64 `json:"platform_fee_percent" validate:"required"`
}

// PlatformUpdateSettings adjusts the platform fee. Authority-gated.
func PlatformUpdateSettings(svc platform.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "platform service unavailable"))
			return
		}

		var req platformSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.IdentityFromContext(r.Context())
		state, err := svc.UpdateSettings(r.Context(), actor, req.PlatformFeePercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlatformView(state))
	}
}

// PlatformState exposes the public platform configuration.
func PlatformState(svc platform.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "platform service unavailable"))
			return
		}

		state, err := svc.State(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlatformView(state))
	}
}
