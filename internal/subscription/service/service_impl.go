package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/woofdesk/woofdesk/internal/clock"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
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
	Repo  subscriptiondomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

const defaultTrialDays = 14

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateRequest) (*subscriptiondomain.Response, error) {
	ownerID, err := snowflake.ParseString(strings.TrimSpace(req.OwnerID))
	if err != nil {
		return nil, subscriptiondomain.ErrInvalidOwner
	}
	tier := req.Tier
	if tier == "" {
		tier = subscriptiondomain.TierTrial
	}
	if !subscriptiondomain.ValidTier(tier) {
		return nil, subscriptiondomain.ErrInvalidTier
	}

	existing, err := s.repo.FindActiveByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, subscriptiondomain.ErrAlreadySubscribed
	}

	now := s.clock.Now()
	trialDays := req.TrialDays
	if trialDays <= 0 {
		trialDays = defaultTrialDays
	}

	sub := subscriptiondomain.Subscription{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Status:    subscriptiondomain.SubscriptionStatusActive,
		Tier:      tier,
		AutoRenew: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tier == subscriptiondomain.TierTrial {
		trialEnd := now.AddDate(0, 0, trialDays)
		sub.Status = subscriptiondomain.SubscriptionStatusTrial
		sub.TrialEnd = &trialEnd
	}
	nextBilling := now.AddDate(0, 1, 0)
	sub.NextBillingDate = &nextBilling

	if err := s.repo.Create(ctx, s.db, &sub); err != nil {
		s.log.Error("create subscription failed", zap.Error(err), zap.String("owner_id", ownerID.String()))
		return nil, err
	}

	return toResponse(sub), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if sub == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}

func (s *Service) GetByOwner(ctx context.Context, ownerID string) (subscriptiondomain.Subscription, error) {
	owner, err := snowflake.ParseString(strings.TrimSpace(ownerID))
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidOwner
	}
	sub, err := s.repo.FindActiveByOwner(ctx, s.db, owner)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if sub == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusCancelled)
}

func (s *Service) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusPaused)
}

func (s *Service) Resume(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusActive)
}

// ChangePlan swaps the tier in place. Usage already recorded under the old
// tier is left untouched; a downgrade only affects future entitlement
// checks.
func (s *Service) ChangePlan(ctx context.Context, req subscriptiondomain.ChangePlanRequest) error {
	if !subscriptiondomain.ValidTier(req.Tier) || req.Tier == subscriptiondomain.TierTrial {
		return subscriptiondomain.ErrInvalidTier
	}
	sub, err := s.GetByID(ctx, req.SubscriptionID)
	if err != nil {
		return err
	}
	if sub.Status == subscriptiondomain.SubscriptionStatusCancelled {
		return subscriptiondomain.ErrInvalidTransition
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sub.Status == subscriptiondomain.SubscriptionStatusTrial {
			ok, err := s.repo.UpdateStatus(ctx, tx, sub.ID, sub.Status, subscriptiondomain.SubscriptionStatusActive)
			if err != nil {
				return err
			}
			if !ok {
				return subscriptiondomain.ErrInvalidTransition
			}
		}
		return s.repo.UpdateTier(ctx, tx, sub.ID, req.Tier)
	})
}

func (s *Service) transition(ctx context.Context, id string, to subscriptiondomain.SubscriptionStatus) error {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !subscriptiondomain.CanTransition(sub.Status, to) {
		return subscriptiondomain.ErrInvalidTransition
	}
	ok, err := s.repo.UpdateStatus(ctx, s.db, sub.ID, sub.Status, to)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race against another transition.
		return subscriptiondomain.ErrInvalidTransition
	}
	s.log.Info("subscription transition",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("from", string(sub.Status)),
		zap.String("to", string(to)),
	)
	return nil
}

func toResponse(sub subscriptiondomain.Subscription) *subscriptiondomain.Response {
	return &subscriptiondomain.Response{
		ID:              sub.ID.String(),
		OwnerID:         sub.OwnerID.String(),
		Status:          string(sub.Status),
		Tier:            string(sub.Tier),
		TrialEnd:        sub.TrialEnd,
		NextBillingDate: sub.NextBillingDate,
		AutoRenew:       sub.AutoRenew,
		CreatedAt:       sub.CreatedAt,
	}
}
