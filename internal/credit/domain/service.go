package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Balance struct {
	Available   decimal.Decimal `json:"available_credits"`
	Emergency   decimal.Decimal `json:"emergency_credits"`
	NextRefresh time.Time       `json:"next_refresh_date"`
}

type DebitResult struct {
	Pool      Pool            `json:"pool"`
	Cost      decimal.Decimal `json:"cost"`
	Remaining decimal.Decimal `json:"remaining_credits"`
}

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (*CreditBalance, error)
	// EnsureExists creates the balance row with the given starting state if
	// absent; concurrent creators converge on a single row.
	EnsureExists(ctx context.Context, db *gorm.DB, balance CreditBalance) error
	// Refresh resets both pools to the allotment, guarded by the previous
	// refresh date so concurrent readers refresh at most once.
	Refresh(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, prevRefresh time.Time, general, emergency decimal.Decimal, nextRefresh time.Time) (bool, error)
	// DebitPool subtracts cost from one pool as a conditional write that
	// fails (affects no row) when the pool holds less than cost.
	DebitPool(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, pool Pool, cost decimal.Decimal) (bool, error)
	CreditGeneral(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, amount decimal.Decimal) error
}

// Service manages credit balances. The tier argument is the caller-resolved
// effective tier; it determines the refresh allotment.
type Service interface {
	// GetBalance returns the balance, applying a lazy refresh when the
	// refresh date has passed. A subscription never read after its refresh
	// date keeps stale pools until the next access.
	GetBalance(ctx context.Context, subscriptionID snowflake.ID, tier string) (Balance, error)

	// Debit spends the consultation's cost from the proper pool,
	// all-or-nothing.
	Debit(ctx context.Context, subscriptionID snowflake.ID, tier, consultationType string) (DebitResult, error)

	// Credit adds purchased credits to the general pool and posts the sale
	// to the revenue ledger. paymentRef is the upstream gateway's opaque
	// payment id; it is recorded, never dereferenced.
	Credit(ctx context.Context, subscriptionID snowflake.ID, tier string, amount decimal.Decimal, paymentRef string) (Balance, error)
}

var (
	ErrInsufficientCredits     = errors.New("insufficient_credits")
	ErrUnknownConsultationType = errors.New("unknown_consultation_type")
	ErrInvalidAmount           = errors.New("invalid_credit_amount")
)
