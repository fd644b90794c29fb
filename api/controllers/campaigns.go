package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/api/responses"
	"github.com/crowdvault/crowdvault-backend/api/validators"
	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

type campaignRequest struct {
	Title       string `json:"title" validate:"required,max=64"`
	Description string `json:"description" validate:"max=512"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=256"`
	GoalUnits   int64  `json:"goal_units" validate:"required,min=1"`
}

func (r campaignRequest) toInput() campaigns.CampaignInput {
	return campaigns.CampaignInput{
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		GoalUnits:   r.GoalUnits,
	}
}

func parsePage(r *http.Request) (campaigns.Page, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 50)
	if err != nil {
		return campaigns.Page{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return campaigns.Page{}, err
	}
	return campaigns.Page{Limit: limit, Offset: offset}, nil
}

// CampaignCreate registers a new campaign for the authenticated creator.
func CampaignCreate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		var req campaignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creator := middleware.IdentityFromContext(r.Context())
		campaign, err := svc.Create(r.Context(), creator, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCampaignView(campaign))
	}
}

// CampaignUpdate edits the mutable fields of an active campaign.
func CampaignUpdate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req campaignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.IdentityFromContext(r.Context())
		campaign, err := svc.Update(r.Context(), actor, id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignView(campaign))
	}
}

// CampaignDeactivate retires a campaign. The flag never flips back.
func CampaignDeactivate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.IdentityFromContext(r.Context())
		campaign, err := svc.Deactivate(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignView(campaign))
	}
}

// CampaignDetail returns one campaign by id.
func CampaignDetail(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignView(campaign))
	}
}

// CampaignList returns campaigns newest first.
func CampaignList(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignViews(list))
	}
}

// CampaignListMine returns the authenticated creator's campaigns.
func CampaignListMine(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creator := middleware.IdentityFromContext(r.Context())
		list, err := svc.ListByCreator(r.Context(), creator, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignViews(list))
	}
}
