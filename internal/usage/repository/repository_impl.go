package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/woofdesk/woofdesk/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

// IncrementUsage executes the upsert-increment as a single conditional
// write. Concurrent calls for the same key serialize on the unique index,
// so no increment is ever lost to a read-then-write race. The monthly
// limit guard rides the same statement, which means admission and the
// counter move together or not at all.
func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, row usagedomain.FeatureUsage) (int64, bool, error) {
	row.UsageCount = 1
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subscription_id"},
			{Name: "feature_name"},
			{Name: "usage_month"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  row.UpdatedAt,
		}),
	}
	if row.MonthlyLimit != nil {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{
			gorm.Expr("feature_usages.usage_count < ?", *row.MonthlyLimit),
		}}
	}

	result := db.WithContext(ctx).
		Clauses(onConflict, clause.Returning{Columns: []clause.Column{{Name: "usage_count"}}}).
		Create(&row)
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return row.UsageCount, true, nil
}

func (r *repo) CurrentCount(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, feature, month string) (int64, error) {
	var row usagedomain.FeatureUsage
	err := db.WithContext(ctx).
		Where("subscription_id = ? AND feature_name = ? AND usage_month = ?", subscriptionID, feature, month).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.UsageCount, nil
}
