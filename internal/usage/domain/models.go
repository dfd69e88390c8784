// Package domain contains persistence models for the feature usage ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeatureUsage is the per-month usage counter for one feature of one
// subscription. Exactly one row exists per (subscription, feature, month);
// the count only moves through the ledger's atomic increment.
type FeatureUsage struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SubscriptionID snowflake.ID `gorm:"not null;uniqueIndex:ux_feature_usage,priority:1"`
	FeatureName    string       `gorm:"type:text;not null;uniqueIndex:ux_feature_usage,priority:2"`
	UsageMonth     string       `gorm:"type:varchar(7);not null;uniqueIndex:ux_feature_usage,priority:3"`
	UsageCount     int64        `gorm:"not null;default:0"`

	// MonthlyLimit snapshots the plan limit in force when the row was
	// created. Nil means unlimited.
	MonthlyLimit *int64 `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FeatureUsage) TableName() string { return "feature_usages" }

// MonthKey formats t as the calendar-month ledger key. Usage counters reset
// exactly at UTC month start; a request straddling month-end lands in
// whichever month the increment executes under.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
