package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/api/validators"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

func parseLedgerPage(r *http.Request) (limit, offset int, err error) {
	limit, err = validators.ParseQueryInt(r, "limit", 100, 1, 100)
	if err != nil {
		return 0, 0, err
	}
	offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// CampaignTransactions lists a campaign's ledger entries, newest first.
func CampaignTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, offset, err := parseLedgerPage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListByCampaign(r.Context(), id, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLedgerEntryViews(entries))
	}
}

// MyTransactions lists the authenticated caller's ledger entries across
// all campaigns.
func MyTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		limit, offset, err := parseLedgerPage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner := middleware.IdentityFromContext(r.Context())
		entries, err := svc.ListByOwner(r.Context(), owner, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLedgerEntryViews(entries))
	}
}
