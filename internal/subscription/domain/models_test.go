package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name string
		sub  Subscription
		want Tier
	}{
		{"active keeps its tier", Subscription{Status: SubscriptionStatusActive, Tier: TierPremium}, TierPremium},
		{"cancelled resolves to free", Subscription{Status: SubscriptionStatusCancelled, Tier: TierPremium}, TierFree},
		{"paused resolves to free", Subscription{Status: SubscriptionStatusPaused, Tier: TierBasic}, TierFree},
		{"running trial keeps trial tier", Subscription{Status: SubscriptionStatusTrial, Tier: TierTrial, TrialEnd: &future}, TierTrial},
		{"expired trial resolves to free", Subscription{Status: SubscriptionStatusTrial, Tier: TierTrial, TrialEnd: &past}, TierFree},
		{"trial ending exactly now resolves to free", Subscription{Status: SubscriptionStatusTrial, Tier: TierTrial, TrialEnd: &now}, TierFree},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sub.EffectiveTier(now))
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SubscriptionStatus
		want     bool
	}{
		{SubscriptionStatusTrial, SubscriptionStatusActive, true},
		{SubscriptionStatusTrial, SubscriptionStatusCancelled, true},
		{SubscriptionStatusTrial, SubscriptionStatusPaused, false},
		{SubscriptionStatusActive, SubscriptionStatusPaused, true},
		{SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{SubscriptionStatusActive, SubscriptionStatusTrial, false},
		{SubscriptionStatusPaused, SubscriptionStatusActive, true},
		{SubscriptionStatusPaused, SubscriptionStatusCancelled, true},
		{SubscriptionStatusCancelled, SubscriptionStatusActive, false},
		{SubscriptionStatusCancelled, SubscriptionStatusCancelled, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
