package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	"github.com/crowdvault/crowdvault-backend/internal/funding"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	pkgAuth "github.com/crowdvault/crowdvault-backend/pkg/auth"
	"github.com/crowdvault/crowdvault-backend/pkg/config"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubPlatformService struct{}

func (stubPlatformService) Initialize(ctx context.Context, identity uuid.UUID) (*models.PlatformState, error) {
	return &models.PlatformState{Initialized: true, PlatformFeePercent: 5, PlatformIdentity: identity}, nil
}

func (stubPlatformService) UpdateSettings(ctx context.Context, actor uuid.UUID, feePercent int64) (*models.PlatformState, error) {
	return &models.PlatformState{Initialized: true, PlatformFeePercent: feePercent, PlatformIdentity: actor}, nil
}

func (stubPlatformService) State(ctx context.Context) (*models.PlatformState, error) {
	return &models.PlatformState{Initialized: true, PlatformFeePercent: 5, PlatformIdentity: uuid.New()}, nil
}

type stubCampaignService struct{}

func (stubCampaignService) Create(ctx context.Context, creator uuid.UUID, input campaigns.CampaignInput) (*models.Campaign, error) {
	return &models.Campaign{ID: 1, CreatorIdentity: creator, Title: input.Title, GoalUnits: input.GoalUnits, Active: true}, nil
}

func (stubCampaignService) Update(ctx context.Context, actor uuid.UUID, id int64, input campaigns.CampaignInput) (*models.Campaign, error) {
	return &models.Campaign{ID: id, CreatorIdentity: actor, Title: input.Title, GoalUnits: input.GoalUnits, Active: true}, nil
}

func (stubCampaignService) Deactivate(ctx context.Context, actor uuid.UUID, id int64) (*models.Campaign, error) {
	return &models.Campaign{ID: id, CreatorIdentity: actor, Active: false}, nil
}

func (stubCampaignService) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	return &models.Campaign{ID: id, Active: true}, nil
}

func (stubCampaignService) List(ctx context.Context, page campaigns.Page) ([]models.Campaign, error) {
	return []models.Campaign{{ID: 1, Active: true}}, nil
}

func (stubCampaignService) ListByCreator(ctx context.Context, creator uuid.UUID, page campaigns.Page) ([]models.Campaign, error) {
	return nil, nil
}

type stubEngine struct{}

func (stubEngine) Donate(ctx context.Context, donor uuid.UUID, campaignID, amountUnits int64) (*funding.DonationResult, error) {
	return &funding.DonationResult{
		Campaign: &models.Campaign{ID: campaignID, AmountRaisedUnits: amountUnits, BalanceUnits: amountUnits, Donors: 1, Active: true},
		Entry:    &models.LedgerEntry{ID: uuid.New(), CampaignID: campaignID, OwnerIdentity: donor, AmountUnits: amountUnits, Credited: true, Seq: 1},
	}, nil
}

func (stubEngine) Withdraw(ctx context.Context, creator uuid.UUID, campaignID, amountUnits int64, platformAddress uuid.UUID) (*funding.WithdrawalResult, error) {
	return &funding.WithdrawalResult{
		Campaign:     &models.Campaign{ID: campaignID, Withdrawals: 1, Active: true},
		Entry:        &models.LedgerEntry{ID: uuid.New(), CampaignID: campaignID, OwnerIdentity: creator, AmountUnits: amountUnits, Seq: 1},
		AmountUnits:  amountUnits,
		FeeUnits:     amountUnits * 5 / 100,
		CreatorUnits: amountUnits - amountUnits*5/100,
	}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) Record(ctx context.Context, tx *gorm.DB, entry ledger.Entry) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return nil, nil
}

type stubTreasury struct{}

func (stubTreasury) WithTx(tx *gorm.DB) treasury.Treasury { return stubTreasury{} }

func (stubTreasury) EnsureAccount(ctx context.Context, id uuid.UUID, reservedUnits int64) error {
	return nil
}

func (stubTreasury) Deposit(ctx context.Context, id uuid.UUID, amountUnits int64) error { return nil }

func (stubTreasury) Account(ctx context.Context, id uuid.UUID) (*models.CustodyAccount, error) {
	return &models.CustodyAccount{ID: id, BalanceUnits: 100, ReservedUnits: 10}, nil
}

func (stubTreasury) Transfer(ctx context.Context, from, to uuid.UUID, amountUnits int64) error {
	return nil
}

func (stubTreasury) MinimumReserve(ctx context.Context, id uuid.UUID) (int64, error) {
	return 10, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "crowdvault-test", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		nil,
		stubPlatformService{},
		stubCampaignService{},
		stubEngine{},
		stubLedgerService{},
		stubTreasury{},
	)
}

func bearerToken(t *testing.T, identity uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{Identity: identity})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	return "Bearer " + token
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestPublicCampaignRoutesNeedNoAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/campaigns", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDonationRouteRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	donor := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/7/donations", strings.NewReader(`{"amount_units":1000000}`))
	req.Header.Set("Authorization", bearerToken(t, donor))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Campaign struct {
				ID     int64 `json:"id"`
				Donors int64 `json:"donors"`
			} `json:"campaign"`
			Entry struct {
				Credited bool  `json:"credited"`
				Seq      int64 `json:"seq"`
			} `json:"entry"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Campaign.ID != 7 || envelope.Data.Campaign.Donors != 1 {
		t.Fatalf("campaign = %+v", envelope.Data.Campaign)
	}
	if !envelope.Data.Entry.Credited || envelope.Data.Entry.Seq != 1 {
		t.Fatalf("entry = %+v", envelope.Data.Entry)
	}
}

func TestWithdrawalRouteValidatesBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns/7/withdrawals", strings.NewReader(`{"amount_units":0}`))
	req.Header.Set("Authorization", bearerToken(t, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestTreasuryAccountRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/treasury/account", nil)
	req.Header.Set("Authorization", bearerToken(t, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			AvailableUnits int64 `json:"available_units"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AvailableUnits != 90 {
		t.Fatalf("available = %d, want 90", envelope.Data.AvailableUnits)
	}
}
