package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/woofdesk/woofdesk/internal/clock"
	usagedomain "github.com/woofdesk/woofdesk/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  usagedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  usagedomain.Repository
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("usage.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Increment(ctx context.Context, subscriptionID snowflake.ID, feature string, monthlyLimit *int64) (int64, bool, error) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return 0, false, usagedomain.ErrInvalidFeature
	}
	if subscriptionID == 0 {
		return 0, false, usagedomain.ErrInvalidSubscription
	}
	if monthlyLimit != nil && *monthlyLimit <= 0 {
		// A zero limit admits nothing; the insert branch of the upsert
		// would otherwise always create the first row.
		return 0, false, nil
	}

	now := s.clock.Now()
	row := usagedomain.FeatureUsage{
		ID:             s.genID.Generate(),
		SubscriptionID: subscriptionID,
		FeatureName:    feature,
		UsageMonth:     usagedomain.MonthKey(now),
		MonthlyLimit:   monthlyLimit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	count, admitted, err := s.repo.IncrementUsage(ctx, s.db, row)
	if err != nil {
		s.log.Error("usage increment failed",
			zap.Error(err),
			zap.String("subscription_id", subscriptionID.String()),
			zap.String("feature", feature),
		)
		return 0, false, err
	}
	return count, admitted, nil
}

func (s *Service) CurrentCount(ctx context.Context, subscriptionID snowflake.ID, feature string) (int64, error) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return 0, usagedomain.ErrInvalidFeature
	}
	month := usagedomain.MonthKey(s.clock.Now())
	return s.repo.CurrentCount(ctx, s.db, subscriptionID, feature, month)
}
