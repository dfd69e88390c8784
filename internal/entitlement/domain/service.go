// Package domain defines the feature entitlement contract: whether a
// principal may use a gated feature given their tier and month-to-date
// usage.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// AccessCheck is the read-only answer to "can this principal use the
// feature now". A nil Limit/Remaining means unlimited.
type AccessCheck struct {
	Feature         string `json:"feature"`
	Tier            string `json:"tier"`
	HasAccess       bool   `json:"has_access"`
	Limit           *int64 `json:"limit"`
	Used            int64  `json:"used"`
	Remaining       *int64 `json:"remaining"`
	UpgradeRequired bool   `json:"upgrade_required"`
	UpgradeMessage  string `json:"upgrade_message,omitempty"`
}

// ConsumeResult reports a successful quota spend.
type ConsumeResult struct {
	Feature   string `json:"feature"`
	NewCount  int64  `json:"new_count"`
	Remaining *int64 `json:"remaining"`
}

// Service resolves entitlements. CheckAccess never spends quota; Consume
// does. The two are separate operations because the UI checks without
// using.
type Service interface {
	CheckAccess(ctx context.Context, principalID, feature string) (AccessCheck, error)
	Consume(ctx context.Context, principalID, feature string) (ConsumeResult, error)
}

var (
	ErrUnknownFeature = errors.New("unknown_feature")
	ErrNoSubscription = errors.New("no_subscription")
)

// QuotaExceededError carries the metadata callers need to render an
// actionable upsell instead of a bare denial.
type QuotaExceededError struct {
	Feature string
	Tier    string
	Limit   int64
	Used    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota_exceeded: %s (%d/%d)", e.Feature, e.Used, e.Limit)
}
