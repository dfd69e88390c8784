package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	auditservice "github.com/woofdesk/woofdesk/internal/audit/service"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	"github.com/woofdesk/woofdesk/internal/credit/repository"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	ledgerservice "github.com/woofdesk/woofdesk/internal/ledger/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   creditdomain.Service
	clock *clock.FakeClock
	db    *gorm.DB
	subID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&creditdomain.CreditBalance{},
		&ledgerdomain.Account{},
		&ledgerdomain.Entry{},
		&ledgerdomain.EntryLine{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	svc := NewService(ServiceParam{
		DB:       db,
		Log:      logger,
		Clock:    fake,
		Plans:    config.NewStaticPlanConfigHolder(config.DefaultPlanConfig()),
		Repo:     repository.Provide(),
		Ledger:   ledgerservice.NewService(ledgerservice.ServiceParam{Log: logger, GenID: node}),
		AuditSvc: auditservice.NewService(auditservice.ServiceParam{DB: db, Log: logger, GenID: node, Clock: fake}),
	})

	return &fixture{svc: svc, clock: fake, db: db, subID: node.Generate()}
}

func TestGetBalanceSeedsAllotment(t *testing.T) {
	f := newFixture(t)

	balance, err := f.svc.GetBalance(context.Background(), f.subID, "basic")
	require.NoError(t, err)

	assert.True(t, balance.Available.Equal(decimal.NewFromInt(10)))
	assert.True(t, balance.Emergency.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC), balance.NextRefresh.UTC())
}

func TestDebitPools(t *testing.T) {
	tests := []struct {
		name             string
		consultationType string
		wantPool         creditdomain.Pool
		wantCost         string
		wantGeneral      string
		wantEmergency    string
	}{
		{"text draws general", "text", creditdomain.PoolGeneral, "1", "9", "2"},
		{"video draws general", "video", creditdomain.PoolGeneral, "2", "8", "2"},
		{"follow up costs half a credit", "follow_up", creditdomain.PoolGeneral, "0.5", "9.5", "2"},
		{"emergency draws emergency pool only", "emergency", creditdomain.PoolEmergency, "3", "10", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			result, err := f.svc.Debit(ctx, f.subID, "basic", tc.consultationType)
			if tc.wantEmergency == "-1" {
				// Basic grants 2 emergency credits; a 3-credit emergency
				// debit must fail all-or-nothing.
				require.ErrorIs(t, err, creditdomain.ErrInsufficientCredits)

				balance, err := f.svc.GetBalance(ctx, f.subID, "basic")
				require.NoError(t, err)
				assert.True(t, balance.Available.Equal(decimal.NewFromInt(10)))
				assert.True(t, balance.Emergency.Equal(decimal.NewFromInt(2)))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantPool, result.Pool)
			assert.True(t, result.Cost.Equal(decimal.RequireFromString(tc.wantCost)))

			balance, err := f.svc.GetBalance(ctx, f.subID, "basic")
			require.NoError(t, err)
			assert.True(t, balance.Available.Equal(decimal.RequireFromString(tc.wantGeneral)),
				"general pool: got %s", balance.Available)
			assert.True(t, balance.Emergency.Equal(decimal.RequireFromString(tc.wantEmergency)))
		})
	}
}

func TestDebitEmergencySucceedsForPremium(t *testing.T) {
	f := newFixture(t)

	// Premium grants 5 emergency credits.
	result, err := f.svc.Debit(context.Background(), f.subID, "premium", "emergency")
	require.NoError(t, err)
	assert.Equal(t, creditdomain.PoolEmergency, result.Pool)
	assert.True(t, result.Remaining.Equal(decimal.NewFromInt(2)))
}

func TestDebitUnknownConsultationType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Debit(context.Background(), f.subID, "basic", "astrology")
	assert.ErrorIs(t, err, creditdomain.ErrUnknownConsultationType)
}

func TestDebitNeverPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Drain the general pool to 1 with text consultations, then a video (2
	// credits) must be rejected without touching the remaining credit.
	for i := 0; i < 9; i++ {
		_, err := f.svc.Debit(ctx, f.subID, "basic", "text")
		require.NoError(t, err)
	}

	_, err := f.svc.Debit(ctx, f.subID, "basic", "video")
	require.ErrorIs(t, err, creditdomain.ErrInsufficientCredits)

	balance, err := f.svc.GetBalance(ctx, f.subID, "basic")
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(1)))
}

func TestLazyRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Debit(ctx, f.subID, "basic", "video")
	require.NoError(t, err)

	// Crossing the refresh date resets both pools on next access.
	f.clock.Advance(31 * 24 * time.Hour)

	balance, err := f.svc.GetBalance(ctx, f.subID, "basic")
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(10)))
	assert.True(t, balance.Emergency.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), balance.NextRefresh.UTC())
}

func TestLazyRefreshSkipsMissedCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetBalance(ctx, f.subID, "basic")
	require.NoError(t, err)

	// Dormant for four months: exactly one refresh, date advances past now.
	f.clock.Set(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))

	balance, err := f.svc.GetBalance(ctx, f.subID, "basic")
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), balance.NextRefresh.UTC())
}

func TestPurchaseCreditsGeneralPoolOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	balance, err := f.svc.Credit(ctx, f.subID, "basic", decimal.NewFromInt(5), "pay_7f3a")
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(15)))
	assert.True(t, balance.Emergency.Equal(decimal.NewFromInt(2)))

	_, err = f.svc.Credit(ctx, f.subID, "basic", decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, creditdomain.ErrInvalidAmount)
}

func TestPurchaseCreditsPostsRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 5 credits at the 50 INR unit price: cash 250 against credit revenue 250.
	_, err := f.svc.Credit(ctx, f.subID, "basic", decimal.NewFromInt(5), "pay_7f3a")
	require.NoError(t, err)

	var entry ledgerdomain.Entry
	require.NoError(t, f.db.
		Where("source_type = ? AND source_id = ?", ledgerdomain.SourceTypeCreditPurchase, f.subID).
		First(&entry).Error)

	var lines []ledgerdomain.EntryLine
	require.NoError(t, f.db.Where("entry_id = ?", entry.ID).Order("direction").Find(&lines).Error)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, line.Amount.Equal(decimal.NewFromInt(250)), "line amount: got %s", line.Amount)
	}

	var audit auditdomain.AuditLog
	require.NoError(t, f.db.
		Where("action = ? AND target_id = ?", "credits.purchased", f.subID.String()).
		First(&audit).Error)
	assert.Equal(t, "pay_7f3a", audit.Metadata["payment_id"])
}

func TestDebitLeavesAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Debit(ctx, f.subID, "basic", "video")
	require.NoError(t, err)

	// A rejected debit writes nothing.
	_, err = f.svc.Debit(ctx, f.subID, "basic", "astrology")
	require.ErrorIs(t, err, creditdomain.ErrUnknownConsultationType)

	var audits int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ? AND target_id = ?", "credits.debited", f.subID.String()).
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}
