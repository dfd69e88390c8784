package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Plans    *config.PlanConfigHolder
	Repo     creditdomain.Repository
	Ledger   ledgerdomain.Service
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	plans    *config.PlanConfigHolder
	repo     creditdomain.Repository
	ledger   ledgerdomain.Service
	auditSvc auditdomain.Service
}

func NewService(p ServiceParam) creditdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("credit.service"),
		clock:    p.Clock,
		plans:    p.Plans,
		repo:     p.Repo,
		ledger:   p.Ledger,
		auditSvc: p.AuditSvc,
	}
}

const emergencyConsultationType = "emergency"

func (s *Service) GetBalance(ctx context.Context, subscriptionID snowflake.ID, tier string) (creditdomain.Balance, error) {
	balance, err := s.ensureFresh(ctx, subscriptionID, tier)
	if err != nil {
		return creditdomain.Balance{}, err
	}
	return toBalance(balance), nil
}

func (s *Service) Debit(ctx context.Context, subscriptionID snowflake.ID, tier, consultationType string) (creditdomain.DebitResult, error) {
	consultationType = strings.TrimSpace(consultationType)
	cost, ok := s.plans.Get().ConsultationCost(consultationType)
	if !ok {
		return creditdomain.DebitResult{}, creditdomain.ErrUnknownConsultationType
	}

	pool := creditdomain.PoolGeneral
	if consultationType == emergencyConsultationType {
		pool = creditdomain.PoolEmergency
	}

	if _, err := s.ensureFresh(ctx, subscriptionID, tier); err != nil {
		return creditdomain.DebitResult{}, err
	}

	if cost.IsPositive() {
		debited, err := s.repo.DebitPool(ctx, s.db, subscriptionID, pool, cost)
		if err != nil {
			s.log.Error("credit debit failed",
				zap.Error(err),
				zap.String("subscription_id", subscriptionID.String()),
				zap.String("consultation_type", consultationType),
			)
			return creditdomain.DebitResult{}, err
		}
		if !debited {
			return creditdomain.DebitResult{}, creditdomain.ErrInsufficientCredits
		}
	}

	balance, err := s.repo.Get(ctx, s.db, subscriptionID)
	if err != nil {
		return creditdomain.DebitResult{}, err
	}
	remaining := balance.AvailableCredits
	if pool == creditdomain.PoolEmergency {
		remaining = balance.EmergencyCredits
	}

	subID := subscriptionID.String()
	_ = s.auditSvc.AuditLog(ctx, "system", nil, "credits.debited", "subscription", &subID, map[string]any{
		"consultation_type": consultationType,
		"pool":              string(pool),
		"cost":              cost.String(),
		"remaining":         remaining.String(),
	})
	return creditdomain.DebitResult{Pool: pool, Cost: cost, Remaining: remaining}, nil
}

// Credit adds purchased credits to the general pool and posts the sale as
// cash against credit revenue. Purchases never top up the emergency pool.
func (s *Service) Credit(ctx context.Context, subscriptionID snowflake.ID, tier string, amount decimal.Decimal, paymentRef string) (creditdomain.Balance, error) {
	if !amount.IsPositive() {
		return creditdomain.Balance{}, creditdomain.ErrInvalidAmount
	}
	if _, err := s.ensureFresh(ctx, subscriptionID, tier); err != nil {
		return creditdomain.Balance{}, err
	}

	charge := amount.Mul(s.plans.Get().CreditUnitPrice()).Round(2)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreditGeneral(ctx, tx, subscriptionID, amount); err != nil {
			return err
		}
		return s.ledger.Post(ctx, tx, ledgerdomain.PostRequest{
			SourceType: ledgerdomain.SourceTypeCreditPurchase,
			SourceID:   subscriptionID,
			Currency:   "INR",
			OccurredAt: s.clock.Now(),
			Lines: []ledgerdomain.PostLine{
				{Account: ledgerdomain.AccountCodeCash, Direction: ledgerdomain.EntryDirectionDebit, Amount: charge},
				{Account: ledgerdomain.AccountCodeCreditRevenue, Direction: ledgerdomain.EntryDirectionCredit, Amount: charge},
			},
		})
	})
	if err != nil {
		s.log.Error("credit purchase failed",
			zap.Error(err),
			zap.String("subscription_id", subscriptionID.String()),
		)
		return creditdomain.Balance{}, err
	}

	balance, err := s.repo.Get(ctx, s.db, subscriptionID)
	if err != nil {
		return creditdomain.Balance{}, err
	}

	subID := subscriptionID.String()
	metadata := map[string]any{
		"credits": amount.String(),
		"charge":  charge.StringFixed(2),
	}
	if ref := strings.TrimSpace(paymentRef); ref != "" {
		metadata["payment_id"] = ref
	}
	_ = s.auditSvc.AuditLog(ctx, "system", nil, "credits.purchased", "subscription", &subID, metadata)
	return toBalance(balance), nil
}

// ensureFresh creates the balance row on first touch and applies the lazy
// refresh policy: when now has passed next_refresh_date, both pools reset
// to the tier allotment and the date advances by whole billing cycles.
func (s *Service) ensureFresh(ctx context.Context, subscriptionID snowflake.ID, tier string) (*creditdomain.CreditBalance, error) {
	now := s.clock.Now()
	allotment := s.plans.Get().Allotment(tier)

	balance, err := s.repo.Get(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		seed := creditdomain.CreditBalance{
			SubscriptionID:   subscriptionID,
			AvailableCredits: decimal.NewFromFloat(allotment.General),
			EmergencyCredits: decimal.NewFromFloat(allotment.Emergency),
			NextRefreshDate:  now.AddDate(0, 1, 0),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.EnsureExists(ctx, s.db, seed); err != nil {
			return nil, err
		}
		balance, err = s.repo.Get(ctx, s.db, subscriptionID)
		if err != nil {
			return nil, err
		}
	}

	if balance != nil && !now.Before(balance.NextRefreshDate) {
		next := balance.NextRefreshDate
		for !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
		refreshed, err := s.repo.Refresh(ctx, s.db, subscriptionID, balance.NextRefreshDate,
			decimal.NewFromFloat(allotment.General),
			decimal.NewFromFloat(allotment.Emergency),
			next,
		)
		if err != nil {
			return nil, err
		}
		if refreshed {
			s.log.Info("credit balance refreshed",
				zap.String("subscription_id", subscriptionID.String()),
				zap.String("tier", tier),
				zap.Time("next_refresh", next),
			)
		}
		balance, err = s.repo.Get(ctx, s.db, subscriptionID)
		if err != nil {
			return nil, err
		}
	}

	return balance, nil
}

func toBalance(b *creditdomain.CreditBalance) creditdomain.Balance {
	return creditdomain.Balance{
		Available:   b.AvailableCredits,
		Emergency:   b.EmergencyCredits,
		NextRefresh: b.NextRefreshDate,
	}
}
