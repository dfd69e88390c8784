package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// IncrementUsage atomically upserts the (subscription, feature, month)
	// row and adds one to its counter. When the row carries a monthly
	// limit, the increment is guarded by usage_count < limit inside the
	// same statement; admitted=false means the guard rejected it and the
	// counter was not touched. The returned count comes from the
	// statement's RETURNING clause, not a follow-up read.
	IncrementUsage(ctx context.Context, db *gorm.DB, row FeatureUsage) (count int64, admitted bool, err error)
	CurrentCount(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, feature, month string) (int64, error)
}

type Service interface {
	// Increment consumes one unit of the feature for the current calendar
	// month. admitted=false means the monthly limit was already spent and
	// nothing was written. There is no rollback path; refunds are a
	// compensating operation at a higher layer.
	Increment(ctx context.Context, subscriptionID snowflake.ID, feature string, monthlyLimit *int64) (count int64, admitted bool, err error)

	// CurrentCount reads this month's counter without consuming quota.
	CurrentCount(ctx context.Context, subscriptionID snowflake.ID, feature string) (int64, error)
}

var (
	ErrInvalidFeature      = errors.New("invalid_feature")
	ErrInvalidSubscription = errors.New("invalid_subscription")
)
