package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crowdvault/crowdvault-backend/api/controllers"
	"github.com/crowdvault/crowdvault-backend/api/middleware"
	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	"github.com/crowdvault/crowdvault-backend/internal/funding"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	"github.com/crowdvault/crowdvault-backend/internal/platform"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/config"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
	"github.com/crowdvault/crowdvault-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	platformService platform.Service,
	campaignService campaigns.Service,
	fundingEngine funding.Engine,
	ledgerService ledger.Service,
	treasuryService treasury.Treasury,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Public reads.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/platform", controllers.PlatformState(platformService, logg))
		r.Get("/campaigns", controllers.CampaignList(campaignService, logg))
		r.Get("/campaigns/{campaignId}", controllers.CampaignDetail(campaignService, logg))
		r.Get("/campaigns/{campaignId}/transactions", controllers.CampaignTransactions(ledgerService, logg))
	})

	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/platform", func(r chi.Router) {
			r.Post("/initialize", controllers.PlatformInitialize(platformService, logg))
			r.Put("/settings", controllers.PlatformUpdateSettings(platformService, logg))
			r.Get("/", controllers.PlatformState(platformService, logg))
		})

		r.Post("/campaigns", controllers.CampaignCreate(campaignService, logg))
		r.Get("/campaigns", controllers.CampaignList(campaignService, logg))
		r.Get("/campaigns/mine", controllers.CampaignListMine(campaignService, logg))
		r.Route("/campaigns/{campaignId}", func(r chi.Router) {
			r.Get("/", controllers.CampaignDetail(campaignService, logg))
			r.Put("/", controllers.CampaignUpdate(campaignService, logg))
			r.Delete("/", controllers.CampaignDeactivate(campaignService, logg))
			r.Post("/donations", controllers.CampaignDonate(fundingEngine, logg))
			r.Post("/withdrawals", controllers.CampaignWithdraw(fundingEngine, logg))
			r.Get("/transactions", controllers.CampaignTransactions(ledgerService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/mine", controllers.MyTransactions(ledgerService, logg))
		})

		r.Route("/treasury", func(r chi.Router) {
			r.Get("/account", controllers.TreasuryAccount(treasuryService, logg))
			r.Post("/deposits", controllers.TreasuryDeposit(treasuryService, logg))
		})
	})

	return r
}
