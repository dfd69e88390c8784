// Package domain contains persistence models for consultation credit pools.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Pool names a credit pool. Emergency consultations draw exclusively from
// the emergency pool; everything else draws from the general pool.
type Pool string

const (
	PoolGeneral   Pool = "general"
	PoolEmergency Pool = "emergency"
)

// CreditBalance is the 1:1 consumable credit state of a subscription.
// Both pools are kept non-negative by conditional debits; a debit that
// would go negative is rejected, never clamped.
type CreditBalance struct {
	SubscriptionID   snowflake.ID    `gorm:"primaryKey"`
	AvailableCredits decimal.Decimal `gorm:"type:numeric(8,1);not null;default:0"`
	EmergencyCredits decimal.Decimal `gorm:"type:numeric(8,1);not null;default:0"`
	NextRefreshDate  time.Time       `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditBalance) TableName() string { return "credit_balances" }
