package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	entitlementdomain "github.com/woofdesk/woofdesk/internal/entitlement/domain"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	usagedomain "github.com/woofdesk/woofdesk/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Plans         *config.PlanConfigHolder
	Subscriptions subscriptiondomain.Service
	Usage         usagedomain.Service
}

type Service struct {
	log           *zap.Logger
	clock         clock.Clock
	plans         *config.PlanConfigHolder
	subscriptions subscriptiondomain.Service
	usage         usagedomain.Service
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		log:           p.Log.Named("entitlement.service"),
		clock:         p.Clock,
		plans:         p.Plans,
		subscriptions: p.Subscriptions,
		usage:         p.Usage,
	}
}

// CheckAccess answers from the current calendar month's ledger. It is
// read-only; quota is only spent through Consume.
func (s *Service) CheckAccess(ctx context.Context, principalID, feature string) (entitlementdomain.AccessCheck, error) {
	feature = strings.TrimSpace(feature)
	plan := s.plans.Get()

	sub, tier, err := s.resolveTier(ctx, principalID)
	if err != nil {
		return entitlementdomain.AccessCheck{}, err
	}

	limit, known := plan.FeatureLimit(feature, string(tier))
	if !known {
		return entitlementdomain.AccessCheck{}, entitlementdomain.ErrUnknownFeature
	}

	var used int64
	if sub != nil {
		used, err = s.usage.CurrentCount(ctx, sub.ID, feature)
		if err != nil {
			return entitlementdomain.AccessCheck{}, err
		}
	}

	check := entitlementdomain.AccessCheck{
		Feature: feature,
		Tier:    string(tier),
		Used:    used,
	}
	if limit == nil {
		check.HasAccess = true
		return check, nil
	}

	capped := int64(*limit)
	remaining := capped - used
	if remaining < 0 {
		remaining = 0
	}
	check.Limit = &capped
	check.Remaining = &remaining
	check.HasAccess = used < capped
	if !check.HasAccess {
		check.UpgradeRequired = true
		check.UpgradeMessage = upgradeMessage(feature, tier, capped)
	}
	return check, nil
}

// Consume spends one unit through the usage ledger's guarded increment.
// The limit check and the counter move in one statement, so concurrent
// consumers cannot all pass a stale read and overshoot the monthly limit.
// Consumed units are not refundable here.
func (s *Service) Consume(ctx context.Context, principalID, feature string) (entitlementdomain.ConsumeResult, error) {
	feature = strings.TrimSpace(feature)

	sub, tier, err := s.resolveTier(ctx, principalID)
	if err != nil {
		return entitlementdomain.ConsumeResult{}, err
	}
	if sub == nil {
		return entitlementdomain.ConsumeResult{}, entitlementdomain.ErrNoSubscription
	}

	plan := s.plans.Get()
	limit, known := plan.FeatureLimit(feature, string(tier))
	if !known {
		return entitlementdomain.ConsumeResult{}, entitlementdomain.ErrUnknownFeature
	}

	var monthlyLimit *int64
	if limit != nil {
		capped := int64(*limit)
		monthlyLimit = &capped
	}

	newCount, admitted, err := s.usage.Increment(ctx, sub.ID, feature, monthlyLimit)
	if err != nil {
		return entitlementdomain.ConsumeResult{}, err
	}
	if !admitted {
		used, err := s.usage.CurrentCount(ctx, sub.ID, feature)
		if err != nil {
			return entitlementdomain.ConsumeResult{}, err
		}
		return entitlementdomain.ConsumeResult{}, &entitlementdomain.QuotaExceededError{
			Feature: feature,
			Tier:    string(tier),
			Limit:   *monthlyLimit,
			Used:    used,
		}
	}

	result := entitlementdomain.ConsumeResult{Feature: feature, NewCount: newCount}
	if monthlyLimit != nil {
		remaining := *monthlyLimit - newCount
		if remaining < 0 {
			remaining = 0
		}
		result.Remaining = &remaining
	}
	s.log.Debug("feature consumed",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("feature", feature),
		zap.Int64("new_count", newCount),
	)
	return result, nil
}

// resolveTier maps a principal to their effective tier. Principals without
// a subscription row, and expired or paused subscriptions, resolve to free.
func (s *Service) resolveTier(ctx context.Context, principalID string) (*subscriptiondomain.Subscription, subscriptiondomain.Tier, error) {
	sub, err := s.subscriptions.GetByOwner(ctx, principalID)
	if err != nil {
		if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return nil, subscriptiondomain.TierFree, nil
		}
		return nil, subscriptiondomain.TierFree, err
	}
	return &sub, sub.EffectiveTier(s.clock.Now()), nil
}

func upgradeMessage(feature string, tier subscriptiondomain.Tier, limit int64) string {
	if limit == 0 {
		return fmt.Sprintf("%s is not included in the %s plan. Upgrade to unlock it.", feature, tier)
	}
	return fmt.Sprintf("You have used all %d %s sessions this month. Upgrade for a higher limit.", limit, feature)
}
