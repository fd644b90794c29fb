package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/api/validators"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

type custodyAccountView struct {
	ID             uuid.UUID `json:"id"`
	BalanceUnits   int64     `json:"balance_units"`
	ReservedUnits  int64     `json:"reserved_units"`
	AvailableUnits int64     `json:"available_units"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newCustodyAccountView(account *models.CustodyAccount) custodyAccountView {
	return custodyAccountView{
		ID:             account.ID,
		BalanceUnits:   account.BalanceUnits,
		ReservedUnits:  account.ReservedUnits,
		AvailableUnits: account.BalanceUnits - account.ReservedUnits,
		UpdatedAt:      account.UpdatedAt,
	}
}

// TreasuryAccount returns the caller's custody account.
func TreasuryAccount(svc treasury.Treasury, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "treasury unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		account, err := svc.Account(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustodyAccountView(account))
	}
}

type depositRequest struct {
	AmountUnits int64 `json:"amount_units" validate:"required,min=1"`
}

// TreasuryDeposit credits the caller's custody account. This stands in for
// an external on-ramp and is how donors fund themselves.
func TreasuryDeposit(svc treasury.Treasury, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "treasury unavailable"))
			return
		}

		var req depositRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if err := svc.Deposit(r.Context(), identity, req.AmountUnits); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Account(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCustodyAccountView(account))
	}
}
