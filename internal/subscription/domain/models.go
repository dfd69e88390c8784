// Package domain contains persistence models for user subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Tier is the subscription level controlling feature limits and credits.
type Tier string

const (
	TierFree       Tier = "free"
	TierTrial      Tier = "trial"
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// ValidTier reports whether t is a known subscription tier.
func ValidTier(t Tier) bool {
	switch t {
	case TierFree, TierTrial, TierBasic, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Subscription captures a user's plan agreement. Rows are never hard
// deleted; cancellation is a status change.
type Subscription struct {
	ID              snowflake.ID       `gorm:"primaryKey"`
	OwnerID         snowflake.ID       `gorm:"not null;index"`
	Status          SubscriptionStatus `gorm:"type:text;not null"`
	Tier            Tier               `gorm:"type:text;not null"`
	TrialEnd        *time.Time         `gorm:""`
	NextBillingDate *time.Time         `gorm:""`
	AutoRenew       bool               `gorm:"not null;default:true"`
	CancelledAt     *time.Time         `gorm:""`
	Metadata        datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// EffectiveTier resolves the tier used for entitlement decisions.
// Cancelled and paused subscriptions, and trials past their end date,
// resolve to free.
func (s Subscription) EffectiveTier(now time.Time) Tier {
	switch s.Status {
	case SubscriptionStatusCancelled, SubscriptionStatusPaused:
		return TierFree
	case SubscriptionStatusTrial:
		if s.TrialEnd != nil && !now.Before(*s.TrialEnd) {
			return TierFree
		}
	}
	return s.Tier
}

// CanTransition reports whether the status change is allowed. All
// transitions are one-directional except pause<->active.
func CanTransition(from, to SubscriptionStatus) bool {
	switch from {
	case SubscriptionStatusTrial:
		return to == SubscriptionStatusActive || to == SubscriptionStatusCancelled
	case SubscriptionStatusActive:
		return to == SubscriptionStatusPaused || to == SubscriptionStatusCancelled
	case SubscriptionStatusPaused:
		return to == SubscriptionStatusActive || to == SubscriptionStatusCancelled
	}
	return false
}
