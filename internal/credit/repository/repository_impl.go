package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() creditdomain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (*creditdomain.CreditBalance, error) {
	var balance creditdomain.CreditBalance
	err := db.WithContext(ctx).First(&balance, "subscription_id = ?", subscriptionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (r *repo) EnsureExists(ctx context.Context, db *gorm.DB, balance creditdomain.CreditBalance) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription_id"}},
		DoNothing: true,
	}).Create(&balance).Error
}

// Refresh is a compare-and-swap on next_refresh_date: of N concurrent
// readers past the refresh boundary, exactly one resets the pools.
func (r *repo) Refresh(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, prevRefresh time.Time, general, emergency decimal.Decimal, nextRefresh time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&creditdomain.CreditBalance{}).
		Where("subscription_id = ? AND next_refresh_date = ?", subscriptionID, prevRefresh).
		Updates(map[string]any{
			"available_credits": general,
			"emergency_credits": emergency,
			"next_refresh_date": nextRefresh,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DebitPool is the single conditional write that keeps pools non-negative:
// the WHERE clause rejects any debit the pool cannot cover, leaving the row
// untouched.
func (r *repo) DebitPool(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, pool creditdomain.Pool, cost decimal.Decimal) (bool, error) {
	column := "available_credits"
	if pool == creditdomain.PoolEmergency {
		column = "emergency_credits"
	}
	result := db.WithContext(ctx).
		Model(&creditdomain.CreditBalance{}).
		Where("subscription_id = ? AND "+column+" >= ?", subscriptionID, cost).
		Updates(map[string]any{
			column:       gorm.Expr(column+" - ?", cost),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) CreditGeneral(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, amount decimal.Decimal) error {
	return db.WithContext(ctx).
		Model(&creditdomain.CreditBalance{}).
		Where("subscription_id = ?", subscriptionID).
		Updates(map[string]any{
			"available_credits": gorm.Expr("available_credits + ?", amount),
			"updated_at":        time.Now().UTC(),
		}).Error
}
