package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindActiveByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*Subscription, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to SubscriptionStatus) (bool, error)
	UpdateTier(ctx context.Context, db *gorm.DB, id snowflake.ID, tier Tier) error
}
