package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
)

// Categorical failures of the custody substrate.
var (
	ErrInsufficientFunds = pkgerrors.New(pkgerrors.CodeInsufficient, "transfer exceeds available funds")
	ErrAccountNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "custody account not found")
)

// Treasury is the value-movement substrate: custody accounts, the atomic
// transfer primitive and the reserved-minimum query. The engine consumes it,
// it knows nothing about campaigns.
type Treasury interface {
	WithTx(tx *gorm.DB) Treasury
	EnsureAccount(ctx context.Context, id uuid.UUID, reservedUnits int64) error
	Deposit(ctx context.Context, id uuid.UUID, amountUnits int64) error
	Account(ctx context.Context, id uuid.UUID) (*models.CustodyAccount, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amountUnits int64) error
	MinimumReserve(ctx context.Context, id uuid.UUID) (int64, error)
}

type treasury struct {
	db *gorm.DB
}

// New returns a treasury bound to the provided database.
func New(db *gorm.DB) Treasury {
	return &treasury{db: db}
}

func (t *treasury) WithTx(tx *gorm.DB) Treasury {
	if tx == nil {
		return t
	}
	return &treasury{db: tx}
}

func (t *treasury) EnsureAccount(ctx context.Context, id uuid.UUID, reservedUnits int64) error {
	if id == uuid.Nil {
		return fmt.Errorf("account id is required")
	}
	if reservedUnits < 0 {
		return fmt.Errorf("reserved units must not be negative")
	}
	// The reserve is funded at creation, so spendable value is always
	// balance_units - reserved_units.
	account := models.CustodyAccount{ID: id, BalanceUnits: reservedUnits, ReservedUnits: reservedUnits}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&account).Error
}

func (t *treasury) Deposit(ctx context.Context, id uuid.UUID, amountUnits int64) error {
	if amountUnits <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	if err := t.EnsureAccount(ctx, id, 0); err != nil {
		return err
	}
	return t.credit(ctx, id, amountUnits)
}

func (t *treasury) Account(ctx context.Context, id uuid.UUID) (*models.CustodyAccount, error) {
	var account models.CustodyAccount
	err := t.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Transfer moves amountUnits from one custody account to another. The debit
// is guarded so the source balance never crosses its reserved floor; the
// credit auto-provisions the destination account. Callers run it inside a
// transaction so both sides commit or roll back together.
func (t *treasury) Transfer(ctx context.Context, from, to uuid.UUID, amountUnits int64) error {
	if amountUnits <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	if from == uuid.Nil || to == uuid.Nil {
		return fmt.Errorf("transfer endpoints are required")
	}
	if from == to {
		return fmt.Errorf("transfer endpoints must differ")
	}

	res := t.db.WithContext(ctx).Model(&models.CustodyAccount{}).
		Where("id = ? AND balance_units - reserved_units >= ?", from, amountUnits).
		UpdateColumn("balance_units", gorm.Expr("balance_units - ?", amountUnits))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := t.Account(ctx, from); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}

	return t.credit(ctx, to, amountUnits)
}

func (t *treasury) MinimumReserve(ctx context.Context, id uuid.UUID) (int64, error) {
	account, err := t.Account(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.ReservedUnits, nil
}

func (t *treasury) credit(ctx context.Context, id uuid.UUID, amountUnits int64) error {
	account := models.CustodyAccount{ID: id, BalanceUnits: amountUnits}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance_units": gorm.Expr("custody_accounts.balance_units + ?", amountUnits),
			}),
		}).
		Create(&account).Error
}
