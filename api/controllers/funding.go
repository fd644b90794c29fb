package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/api/validators"
	"github.com/crowdvault/crowdvault-backend/internal/funding"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

type donationRequest struct {
	AmountUnits int64 `json:"amount_units" validate:"required,min=1"`
}

type donationResponse struct {
	Campaign campaignView    `json:"campaign"`
	Entry    ledgerEntryView `json:"entry"`
}

// CampaignDonate moves funds from the caller's custody account into the
// campaign and appends a credited ledger entry.
func CampaignDonate(engine funding.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "funding engine unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req donationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donor := middleware.IdentityFromContext(r.Context())
		result, err := engine.Donate(r.Context(), donor, id, req.AmountUnits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, donationResponse{
			Campaign: newCampaignView(result.Campaign),
			Entry:    newLedgerEntryView(result.Entry),
		})
	}
}

type withdrawalRequest struct {
	AmountUnits     int64     `json:"amount_units" validate:"required,min=1"`
	PlatformAddress uuid.UUID `json:"platform_address" validate:"required"`
}

type withdrawalResponse struct {
	Campaign     campaignView    `json:"campaign"`
	Entry        ledgerEntryView `json:"entry"`
	AmountUnits  int64           `json:"amount_units"`
	FeeUnits     int64           `json:"fee_units"`
	CreatorUnits int64           `json:"creator_units"`
}

// CampaignWithdraw pays the creator from the campaign's custody account,
// splitting the platform fee off the top.
func CampaignWithdraw(engine funding.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "funding engine unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req withdrawalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creator := middleware.IdentityFromContext(r.Context())
		result, err := engine.Withdraw(r.Context(), creator, id, req.AmountUnits, req.PlatformAddress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawalResponse{
			Campaign:     newCampaignView(result.Campaign),
			Entry:        newLedgerEntryView(result.Entry),
			AmountUnits:  result.AmountUnits,
			FeeUnits:     result.FeeUnits,
			CreatorUnits: result.CreatorUnits,
		})
	}
}
