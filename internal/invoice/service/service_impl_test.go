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
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	invoicerepo "github.com/woofdesk/woofdesk/internal/invoice/repository"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	ledgerservice "github.com/woofdesk/woofdesk/internal/ledger/service"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionMock struct {
	mock.Mock
}

func (m *subscriptionMock) Create(context.Context, subscriptiondomain.CreateRequest) (*subscriptiondomain.Response, error) {
	return nil, nil
}

func (m *subscriptionMock) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(subscriptiondomain.Subscription), args.Error(1)
}

func (m *subscriptionMock) GetByOwner(context.Context, string) (subscriptiondomain.Subscription, error) {
	return subscriptiondomain.Subscription{}, nil
}
func (m *subscriptionMock) Cancel(context.Context, string) error { return nil }
func (m *subscriptionMock) Pause(context.Context, string) error  { return nil }
func (m *subscriptionMock) Resume(context.Context, string) error { return nil }
func (m *subscriptionMock) ChangePlan(context.Context, subscriptiondomain.ChangePlanRequest) error {
	return nil
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	subs  *subscriptionMock
	svc   invoicedomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceSequence{},
		&ledgerdomain.Account{},
		&ledgerdomain.Entry{},
		&ledgerdomain.EntryLine{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	subs := &subscriptionMock{}

	svc := NewService(ServiceParam{
		DB:            db,
		Log:           logger,
		GenID:         node,
		Clock:         fake,
		Plans:         config.NewStaticPlanConfigHolder(config.DefaultPlanConfig()),
		Repo:          invoicerepo.Provide(),
		Subscriptions: subs,
		Ledger:        ledgerservice.NewService(ledgerservice.ServiceParam{Log: logger, GenID: node}),
		AuditSvc:      auditservice.NewService(auditservice.ServiceParam{DB: db, Log: logger, GenID: node, Clock: fake}),
	})

	return &fixture{db: db, node: node, clock: fake, subs: subs, svc: svc}
}

func TestGenerateForService(t *testing.T) {
	f := newFixture(t)
	userID := f.node.Generate()

	invoice, err := f.svc.GenerateForService(context.Background(), userID.String(), []invoicedomain.LineItemInput{
		{Description: "Video consultation", Category: invoicedomain.CategoryConsulting, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)

	assert.Equal(t, "WD-202503-0001", invoice.InvoiceNumber)
	assert.Equal(t, "1000.00", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "180.00", invoice.GSTAmount.StringFixed(2))
	assert.Equal(t, "1180.00", invoice.TotalAmount.StringFixed(2))
	assert.Equal(t, invoicedomain.InvoiceStatusSent, invoice.Status)
	assert.Equal(t, invoice.IssueDate.AddDate(0, 0, 7), invoice.DueDate)

	_, items, err := f.svc.GetByID(context.Background(), invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "998312", items[0].HSNCode)
	assert.Equal(t, "180.00", items[0].GSTAmount.StringFixed(2))

	// Issuing posts AR against revenue and GST payable.
	var lines int64
	require.NoError(t, f.db.Model(&ledgerdomain.EntryLine{}).Count(&lines).Error)
	assert.Equal(t, int64(3), lines)

	// And appends to the audit trail.
	var audits int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ? AND target_id = ?", "invoice.generated", invoice.ID.String()).
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestGenerateGSTPerLineRounding(t *testing.T) {
	f := newFixture(t)
	userID := f.node.Generate()

	// Each line's GST rounds independently: 33.33 x 0.18 = 6.0 (5.9994).
	invoice, err := f.svc.GenerateForService(context.Background(), userID.String(), []invoicedomain.LineItemInput{
		{Description: "A", Category: invoicedomain.CategoryPlatformFee, Quantity: 1, UnitPrice: decimal.RequireFromString("33.33")},
		{Description: "B", Category: invoicedomain.CategoryPlatformFee, Quantity: 2, UnitPrice: decimal.RequireFromString("10.55")},
	})
	require.NoError(t, err)

	assert.Equal(t, "54.43", invoice.Subtotal.StringFixed(2))
	// 33.33 -> 6.00, 21.10 -> 3.80
	assert.Equal(t, "9.80", invoice.GSTAmount.StringFixed(2))
	assert.Equal(t, "64.23", invoice.TotalAmount.StringFixed(2))
}

func TestInvoiceNumbersAreSequentialPerMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()
	line := []invoicedomain.LineItemInput{
		{Description: "x", Category: invoicedomain.CategoryDigitalServices, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}

	first, err := f.svc.GenerateForService(ctx, userID.String(), line)
	require.NoError(t, err)
	second, err := f.svc.GenerateForService(ctx, userID.String(), line)
	require.NoError(t, err)

	assert.Equal(t, "WD-202503-0001", first.InvoiceNumber)
	assert.Equal(t, "WD-202503-0002", second.InvoiceNumber)

	// A new month starts its own sequence at 1.
	f.clock.Set(time.Date(2025, 4, 1, 0, 0, 1, 0, time.UTC))
	third, err := f.svc.GenerateForService(ctx, userID.String(), line)
	require.NoError(t, err)
	assert.Equal(t, "WD-202504-0001", third.InvoiceNumber)
}

func TestGenerateForSubscription(t *testing.T) {
	f := newFixture(t)
	subID := f.node.Generate()
	ownerID := f.node.Generate()

	f.subs.On("GetByID", mock.Anything, subID.String()).Return(subscriptiondomain.Subscription{
		ID:      subID,
		OwnerID: ownerID,
		Status:  subscriptiondomain.SubscriptionStatusActive,
		Tier:    subscriptiondomain.TierPremium,
	}, nil)

	periodStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := f.svc.GenerateForSubscription(context.Background(), subID.String(), periodStart, periodEnd)
	require.NoError(t, err)

	// Premium bills 699 + 18% GST.
	assert.Equal(t, "699.00", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "125.82", invoice.GSTAmount.StringFixed(2))
	assert.Equal(t, "824.82", invoice.TotalAmount.StringFixed(2))
	require.NotNil(t, invoice.SubscriptionID)
	assert.Equal(t, subID, *invoice.SubscriptionID)
}

func TestGenerateForSubscriptionInvalidPeriod(t *testing.T) {
	f := newFixture(t)

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.GenerateForSubscription(context.Background(), f.node.Generate().String(), at, at)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPeriod)
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()

	invoice, err := f.svc.GenerateForService(ctx, userID.String(), []invoicedomain.LineItemInput{
		{Description: "x", Category: invoicedomain.CategoryDigitalServices, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)

	// Partial payment keeps the invoice open.
	updated, err := f.svc.MarkPaid(ctx, invoice.ID.String(), decimal.NewFromInt(500), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPartiallyPaid, updated.Status)
	assert.Nil(t, updated.PaidDate)

	// The remainder settles it and stamps paid_date.
	updated, err = f.svc.MarkPaid(ctx, invoice.ID.String(), decimal.NewFromInt(680), "txn-2")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidDate)
	assert.Equal(t, "1180.00", updated.PaidAmount.StringFixed(2))

	// Paying a paid invoice is rejected.
	_, err = f.svc.MarkPaid(ctx, invoice.ID.String(), decimal.NewFromInt(1), "txn-3")
	assert.ErrorIs(t, err, invoicedomain.ErrAlreadyPaid)

	// Both accepted payments left audit rows; the rejected one did not.
	var audits int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ? AND target_id = ?", "invoice.payment_recorded", invoice.ID.String()).
		Count(&audits).Error)
	assert.Equal(t, int64(2), audits)
}

func TestMarkPaidValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkPaid(ctx, "junk", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	userID := f.node.Generate()
	invoice, err := f.svc.GenerateForService(ctx, userID.String(), []invoicedomain.LineItemInput{
		{Description: "x", Category: invoicedomain.CategoryDigitalServices, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, invoice.ID.String(), decimal.Zero, "")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidAmount)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()

	invoice, err := f.svc.GenerateForService(ctx, userID.String(), []invoicedomain.LineItemInput{
		{Description: "x", Category: invoicedomain.CategoryDigitalServices, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	// Not yet due: the sweep leaves it alone.
	flipped, err := f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)

	f.clock.Advance(8 * 24 * time.Hour)
	flipped, err = f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	refreshed, _, err := f.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, refreshed.Status)
}
