package funding

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	"github.com/crowdvault/crowdvault-backend/internal/platform"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	"github.com/crowdvault/crowdvault-backend/pkg/enums"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox"
)

const reserveUnits int64 = 2_039_280

// lockingTxRunner serializes units of work the way row locks serialize
// transactions against the same campaign.
type lockingTxRunner struct {
	mu sync.Mutex
}

func (r *lockingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type memCampaignRepo struct {
	byID map[int64]*models.Campaign
}

func (m *memCampaignRepo) WithTx(tx *gorm.DB) campaigns.Repository { return m }

func (m *memCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	copied := *campaign
	m.byID[campaign.ID] = &copied
	return nil
}

func (m *memCampaignRepo) FindByID(ctx context.Context, id int64) (*models.Campaign, error) {
	campaign, ok := m.byID[id]
	if !ok {
		return nil, campaigns.ErrCampaignNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (m *memCampaignRepo) FindByIDForUpdate(ctx context.Context, id int64) (*models.Campaign, error) {
	return m.FindByID(ctx, id)
}

func (m *memCampaignRepo) UpdateDetails(ctx context.Context, campaign *models.Campaign) error {
	return errors.New("not used")
}

func (m *memCampaignRepo) MarkInactive(ctx context.Context, id int64) error {
	return errors.New("not used")
}

func (m *memCampaignRepo) ApplyDonation(ctx context.Context, id, amountUnits int64) error {
	stored, ok := m.byID[id]
	if !ok {
		return campaigns.ErrCampaignNotFound
	}
	stored.AmountRaisedUnits += amountUnits
	stored.BalanceUnits += amountUnits
	stored.Donors++
	return nil
}

func (m *memCampaignRepo) ApplyWithdrawal(ctx context.Context, id, amountUnits int64) error {
	stored, ok := m.byID[id]
	if !ok || stored.BalanceUnits < amountUnits {
		return campaigns.ErrWithdrawalExceedsBalance
	}
	stored.BalanceUnits -= amountUnits
	stored.Withdrawals++
	return nil
}

func (m *memCampaignRepo) List(ctx context.Context, page campaigns.Page) ([]models.Campaign, error) {
	return nil, nil
}

func (m *memCampaignRepo) ListByCreator(ctx context.Context, creator uuid.UUID, page campaigns.Page) ([]models.Campaign, error) {
	return nil, nil
}

type memPlatformRepo struct {
	platform.Repository
	state *models.PlatformState
}

func (m *memPlatformRepo) WithTx(tx *gorm.DB) platform.Repository { return m }

func (m *memPlatformRepo) Get(ctx context.Context) (*models.PlatformState, error) {
	if m.state == nil {
		return nil, platform.ErrPlatformNotInitialized
	}
	copied := *m.state
	return &copied, nil
}

type memTreasury struct {
	accounts map[uuid.UUID]*models.CustodyAccount
}

func newMemTreasury() *memTreasury {
	return &memTreasury{accounts: map[uuid.UUID]*models.CustodyAccount{}}
}

func (m *memTreasury) WithTx(tx *gorm.DB) treasury.Treasury { return m }

func (m *memTreasury) EnsureAccount(ctx context.Context, id uuid.UUID, reservedUnits int64) error {
	if _, ok := m.accounts[id]; !ok {
		m.accounts[id] = &models.CustodyAccount{ID: id, BalanceUnits: reservedUnits, ReservedUnits: reservedUnits}
	}
	return nil
}

func (m *memTreasury) Deposit(ctx context.Context, id uuid.UUID, amountUnits int64) error {
	if err := m.EnsureAccount(ctx, id, 0); err != nil {
		return err
	}
	m.accounts[id].BalanceUnits += amountUnits
	return nil
}

func (m *memTreasury) Account(ctx context.Context, id uuid.UUID) (*models.CustodyAccount, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, treasury.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memTreasury) Transfer(ctx context.Context, from, to uuid.UUID, amountUnits int64) error {
	source, ok := m.accounts[from]
	if !ok {
		return treasury.ErrAccountNotFound
	}
	if source.BalanceUnits-source.ReservedUnits < amountUnits {
		return treasury.ErrInsufficientFunds
	}
	source.BalanceUnits -= amountUnits
	if _, ok := m.accounts[to]; !ok {
		m.accounts[to] = &models.CustodyAccount{ID: to}
	}
	m.accounts[to].BalanceUnits += amountUnits
	return nil
}

func (m *memTreasury) MinimumReserve(ctx context.Context, id uuid.UUID) (int64, error) {
	account, err := m.Account(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.ReservedUnits, nil
}

type memLedgerRepo struct {
	mu      sync.Mutex
	entries []models.LedgerEntry
}

func (m *memLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return m }

func (m *memLedgerRepo) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.New()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memLedgerRepo) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LedgerEntry
	for _, entry := range m.entries {
		if entry.CampaignID == campaignID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return nil, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type harness struct {
	engine    Engine
	campaigns *memCampaignRepo
	platform  *memPlatformRepo
	treasury  *memTreasury
	ledger    *memLedgerRepo
	emitter   *recordingEmitter

	platformIdentity uuid.UUID
	creator          uuid.UUID
	donor            uuid.UUID
	campaignID       int64
	custodyID        uuid.UUID
}

func newHarness(t *testing.T, goalUnits int64) *harness {
	t.Helper()

	h := &harness{
		campaigns:        &memCampaignRepo{byID: map[int64]*models.Campaign{}},
		treasury:         newMemTreasury(),
		ledger:           &memLedgerRepo{},
		emitter:          &recordingEmitter{},
		platformIdentity: uuid.New(),
		creator:          uuid.New(),
		donor:            uuid.New(),
		campaignID:       1,
		custodyID:        uuid.New(),
	}
	h.platform = &memPlatformRepo{state: &models.PlatformState{
		Initialized:        true,
		PlatformFeePercent: 5,
		PlatformIdentity:   h.platformIdentity,
	}}

	ctx := context.Background()
	if err := h.treasury.EnsureAccount(ctx, h.custodyID, reserveUnits); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if err := h.treasury.EnsureAccount(ctx, h.platformIdentity, reserveUnits); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if err := h.treasury.Deposit(ctx, h.donor, 100_000_000_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	h.campaigns.byID[h.campaignID] = &models.Campaign{
		ID:               h.campaignID,
		CreatorIdentity:  h.creator,
		Title:            "Community solar array",
		GoalUnits:        goalUnits,
		Active:           true,
		CustodyAccountID: h.custodyID,
	}

	ledgerSvc, err := ledger.NewService(h.ledger)
	if err != nil {
		t.Fatalf("ledger.NewService: %v", err)
	}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	engine, err := NewEngine(&lockingTxRunner{}, h.campaigns, h.platform, h.treasury, ledgerSvc, h.emitter, nil, log, fixedClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h.engine = engine
	return h
}

func (h *harness) campaign(t *testing.T) *models.Campaign {
	t.Helper()
	campaign, err := h.campaigns.FindByID(context.Background(), h.campaignID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return campaign
}

func TestDonateUpdatesCampaignAndLedger(t *testing.T) {
	h := newHarness(t, 2_000_000_000)
	ctx := context.Background()

	result, err := h.engine.Donate(ctx, h.donor, h.campaignID, 1_500_000_000)
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if result.Campaign.AmountRaisedUnits != 1_500_000_000 || result.Campaign.BalanceUnits != 1_500_000_000 {
		t.Fatalf("campaign totals = %d raised, %d balance", result.Campaign.AmountRaisedUnits, result.Campaign.BalanceUnits)
	}
	if result.Campaign.Donors != 1 {
		t.Fatalf("donors = %d, want 1", result.Campaign.Donors)
	}
	if !result.Entry.Credited || result.Entry.Seq != 1 || result.Entry.AmountUnits != 1_500_000_000 {
		t.Fatalf("ledger entry = %+v", result.Entry)
	}

	custody, _ := h.treasury.Account(ctx, h.custodyID)
	if custody.BalanceUnits != reserveUnits+1_500_000_000 {
		t.Fatalf("custody balance = %d", custody.BalanceUnits)
	}
	donor, _ := h.treasury.Account(ctx, h.donor)
	if donor.BalanceUnits != 100_000_000_000-1_500_000_000 {
		t.Fatalf("donor balance = %d", donor.BalanceUnits)
	}

	if len(h.emitter.events) != 1 || h.emitter.events[0].EventType != enums.OutboxEventTypeDonationReceived {
		t.Fatalf("events = %+v", h.emitter.events)
	}
}

func TestDonateAcceptedUntilGoalReached(t *testing.T) {
	h := newHarness(t, 2_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 1_500_000_000); err != nil {
		t.Fatalf("first donation: %v", err)
	}

	// Raised is still below goal, so the donation that crosses it succeeds.
	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 600_000_000); err != nil {
		t.Fatalf("crossing donation: %v", err)
	}

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 1_000_000); !errors.Is(err, ErrCampaignGoalActualized) {
		t.Fatalf("err = %v, want ErrCampaignGoalActualized", err)
	}

	campaign := h.campaign(t)
	if campaign.AmountRaisedUnits != 2_100_000_000 || campaign.Donors != 2 {
		t.Fatalf("campaign = %d raised, %d donors", campaign.AmountRaisedUnits, campaign.Donors)
	}
}

func TestDonateCheckOrder(t *testing.T) {
	h := newHarness(t, 2_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, 99, 1_000_000); !errors.Is(err, campaigns.ErrCampaignNotFound) {
		t.Fatalf("unknown campaign err = %v", err)
	}

	// Inactive wins over the amount check.
	h.campaigns.byID[h.campaignID].Active = false
	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 1); !errors.Is(err, campaigns.ErrInactiveCampaign) {
		t.Fatalf("inactive err = %v", err)
	}
	h.campaigns.byID[h.campaignID].Active = true

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 999_999); !errors.Is(err, ErrInvalidDonationAmount) {
		t.Fatalf("below minimum err = %v", err)
	}

	// The amount check wins over the goal check.
	h.campaigns.byID[h.campaignID].AmountRaisedUnits = 2_000_000_000
	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 1); !errors.Is(err, ErrInvalidDonationAmount) {
		t.Fatalf("below minimum on actualized campaign err = %v", err)
	}
}

func TestDonateFailedTransferLeavesCampaignUnchanged(t *testing.T) {
	h := newHarness(t, 2_000_000_000)
	ctx := context.Background()

	stranger := uuid.New()
	if _, err := h.engine.Donate(ctx, stranger, h.campaignID, 1_000_000); !errors.Is(err, treasury.ErrAccountNotFound) {
		t.Fatalf("unfunded donor err = %v", err)
	}

	if err := h.treasury.Deposit(ctx, stranger, 500_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := h.engine.Donate(ctx, stranger, h.campaignID, 1_000_000); !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Fatalf("underfunded donor err = %v", err)
	}

	campaign := h.campaign(t)
	if campaign.AmountRaisedUnits != 0 || campaign.Donors != 0 {
		t.Fatalf("campaign mutated by failed donation: %+v", campaign)
	}
	if len(h.ledger.entries) != 0 || len(h.emitter.events) != 0 {
		t.Fatal("failed donation produced ledger or outbox rows")
	}
}

func TestWithdrawFeeSplit(t *testing.T) {
	h := newHarness(t, 10_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 2_100_000_000); err != nil {
		t.Fatalf("Donate: %v", err)
	}

	result, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 1_000_000_000, h.platformIdentity)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if result.FeeUnits != 50_000_000 {
		t.Fatalf("fee = %d, want 50000000", result.FeeUnits)
	}
	if result.CreatorUnits != 950_000_000 {
		t.Fatalf("creator amount = %d, want 950000000", result.CreatorUnits)
	}
	if result.Campaign.BalanceUnits != 1_100_000_000 {
		t.Fatalf("balance = %d, want 1100000000", result.Campaign.BalanceUnits)
	}
	if result.Campaign.AmountRaisedUnits != 2_100_000_000 {
		t.Fatal("withdrawal must not change amount raised")
	}
	if result.Campaign.Withdrawals != 1 {
		t.Fatalf("withdrawals = %d, want 1", result.Campaign.Withdrawals)
	}
	if result.Entry.Credited || result.Entry.Seq != 1 {
		t.Fatalf("ledger entry = %+v", result.Entry)
	}

	creator, _ := h.treasury.Account(ctx, h.creator)
	if creator.BalanceUnits != 950_000_000 {
		t.Fatalf("creator custody = %d", creator.BalanceUnits)
	}
	platformAcct, _ := h.treasury.Account(ctx, h.platformIdentity)
	if platformAcct.BalanceUnits != reserveUnits+50_000_000 {
		t.Fatalf("platform custody = %d", platformAcct.BalanceUnits)
	}
	custody, _ := h.treasury.Account(ctx, h.custodyID)
	if custody.BalanceUnits != reserveUnits+1_100_000_000 {
		t.Fatalf("campaign custody = %d", custody.BalanceUnits)
	}
}

func TestWithdrawFeeRoundsDown(t *testing.T) {
	h := newHarness(t, 10_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 3_000_000_000); err != nil {
		t.Fatalf("Donate: %v", err)
	}

	result, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 1_999_999_999, h.platformIdentity)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if result.FeeUnits != 99_999_999 {
		t.Fatalf("fee = %d, want 99999999", result.FeeUnits)
	}
	if result.CreatorUnits != 1_900_000_000 {
		t.Fatalf("creator amount = %d, want 1900000000", result.CreatorUnits)
	}
	if result.FeeUnits+result.CreatorUnits != 1_999_999_999 {
		t.Fatal("fee split must conserve the withdrawn amount")
	}
}

func TestWithdrawCheckOrder(t *testing.T) {
	h := newHarness(t, 10_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 2_000_000_000); err != nil {
		t.Fatalf("Donate: %v", err)
	}

	if _, err := h.engine.Withdraw(ctx, h.creator, 99, 1_000_000_000, h.platformIdentity); !errors.Is(err, campaigns.ErrCampaignNotFound) {
		t.Fatalf("unknown campaign err = %v", err)
	}
	if _, err := h.engine.Withdraw(ctx, uuid.New(), h.campaignID, 1_000_000_000, h.platformIdentity); !errors.Is(err, campaigns.ErrNotCampaignCreator) {
		t.Fatalf("stranger err = %v", err)
	}
	if _, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 999_999_999, h.platformIdentity); !errors.Is(err, ErrInvalidWithdrawalAmount) {
		t.Fatalf("below minimum err = %v", err)
	}
	if _, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 3_000_000_000, h.platformIdentity); !errors.Is(err, campaigns.ErrWithdrawalExceedsBalance) {
		t.Fatalf("over balance err = %v", err)
	}
	if _, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 1_000_000_000, uuid.New()); !errors.Is(err, ErrInvalidPlatformAddress) {
		t.Fatalf("wrong platform address err = %v", err)
	}

	campaign := h.campaign(t)
	if campaign.BalanceUnits != 2_000_000_000 || campaign.Withdrawals != 0 {
		t.Fatalf("campaign mutated by rejected withdrawals: %+v", campaign)
	}
}

func TestWithdrawRespectsCustodyReserve(t *testing.T) {
	h := newHarness(t, 10_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 2_000_000_000); err != nil {
		t.Fatalf("Donate: %v", err)
	}

	// Simulate custody drift: the account holds less than the record says.
	h.treasury.accounts[h.custodyID].BalanceUnits = reserveUnits + 500_000_000

	if _, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 1_000_000_000, h.platformIdentity); !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	campaign := h.campaign(t)
	if campaign.BalanceUnits != 2_000_000_000 {
		t.Fatal("rejected withdrawal must not change the campaign balance")
	}
}

func TestWithdrawInactiveCampaignStillAllowed(t *testing.T) {
	h := newHarness(t, 10_000_000_000)
	ctx := context.Background()

	if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, 2_000_000_000); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	h.campaigns.byID[h.campaignID].Active = false

	if _, err := h.engine.Withdraw(ctx, h.creator, h.campaignID, 1_000_000_000, h.platformIdentity); err != nil {
		t.Fatalf("withdraw from inactive campaign: %v", err)
	}
}

func TestConcurrentDonationsLoseNoUpdates(t *testing.T) {
	h := newHarness(t, 1_000_000_000_000)
	ctx := context.Background()

	const workers = 20
	const amount int64 = 10_000_000

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.engine.Donate(ctx, h.donor, h.campaignID, amount); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Donate: %v", err)
	}

	campaign := h.campaign(t)
	if campaign.Donors != workers {
		t.Fatalf("donors = %d, want %d", campaign.Donors, workers)
	}
	if campaign.AmountRaisedUnits != amount*workers {
		t.Fatalf("raised = %d, want %d", campaign.AmountRaisedUnits, amount*workers)
	}
	custody, _ := h.treasury.Account(ctx, h.custodyID)
	if custody.BalanceUnits != reserveUnits+amount*workers {
		t.Fatalf("custody = %d, want %d", custody.BalanceUnits, reserveUnits+amount*workers)
	}
	if len(h.ledger.entries) != workers {
		t.Fatalf("ledger entries = %d, want %d", len(h.ledger.entries), workers)
	}
}
