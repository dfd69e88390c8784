package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	OwnerID   string `json:"owner_id"`
	Tier      Tier   `json:"tier"`
	TrialDays int    `json:"trial_days"`
}

type ChangePlanRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Tier           Tier   `json:"tier"`
}

type Response struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Status          string     `json:"status"`
	Tier            string     `json:"tier"`
	TrialEnd        *time.Time `json:"trial_end,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	AutoRenew       bool       `json:"auto_renew"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (Subscription, error)
	GetByOwner(ctx context.Context, ownerID string) (Subscription, error)
	Cancel(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	ChangePlan(ctx context.Context, req ChangePlanRequest) error
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidOwner         = errors.New("invalid_owner")
	ErrInvalidTier          = errors.New("invalid_tier")
	ErrInvalidTransition    = errors.New("invalid_status_transition")
	ErrAlreadySubscribed    = errors.New("owner_already_subscribed")
)
