package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/woofdesk/woofdesk/internal/clock"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type commissionMock struct {
	mock.Mock
}

func (m *commissionMock) Quote(decimal.Decimal, string, commissiondomain.CommissionType) commissiondomain.Calculation {
	return commissiondomain.Calculation{}
}
func (m *commissionMock) RecordAppointment(context.Context, string) (*commissiondomain.Response, error) {
	return nil, nil
}
func (m *commissionMock) RecordManual(context.Context, commissiondomain.ManualRequest) (*commissiondomain.Response, error) {
	return nil, nil
}

func (m *commissionMock) BulkReconcile(ctx context.Context, batchSize int) (commissiondomain.ReconcileResult, error) {
	args := m.Called(ctx, batchSize)
	return args.Get(0).(commissiondomain.ReconcileResult), args.Error(1)
}

func (m *commissionMock) Approve(context.Context, []string) (int64, error) { return 0, nil }

type invoiceMock struct {
	mock.Mock
}

func (m *invoiceMock) GenerateForSubscription(context.Context, string, time.Time, time.Time) (*invoicedomain.Invoice, error) {
	return nil, nil
}
func (m *invoiceMock) GenerateForService(context.Context, string, []invoicedomain.LineItemInput) (*invoicedomain.Invoice, error) {
	return nil, nil
}
func (m *invoiceMock) GetByID(context.Context, string) (*invoicedomain.Invoice, []invoicedomain.InvoiceLineItem, error) {
	return nil, nil, nil
}
func (m *invoiceMock) MarkPaid(context.Context, string, decimal.Decimal, string) (*invoicedomain.Invoice, error) {
	return nil, nil
}

func (m *invoiceMock) MarkOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newScheduler(t *testing.T, commissions *commissionMock, invoices *invoiceMock) *Scheduler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sched, err := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		Clock:         clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		CommissionSvc: commissions,
		InvoiceSvc:    invoices,
		Config:        Config{ReconcileBatchSize: 25},
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnce(t *testing.T) {
	commissions := &commissionMock{}
	invoices := &invoiceMock{}
	sched := newScheduler(t, commissions, invoices)

	commissions.On("BulkReconcile", mock.Anything, 25).
		Return(commissiondomain.ReconcileResult{ProcessedCount: 2, TotalAmount: decimal.NewFromInt(310)}, nil)
	invoices.On("MarkOverdue", mock.Anything).Return(int64(1), nil)

	require.NoError(t, sched.RunOnce(context.Background()))
	commissions.AssertExpectations(t)
	invoices.AssertExpectations(t)
}

func TestRunOnceContinuesAfterJobFailure(t *testing.T) {
	commissions := &commissionMock{}
	invoices := &invoiceMock{}
	sched := newScheduler(t, commissions, invoices)

	commissions.On("BulkReconcile", mock.Anything, 25).
		Return(commissiondomain.ReconcileResult{}, errors.New("db down"))
	invoices.On("MarkOverdue", mock.Anything).Return(int64(0), nil)

	err := sched.RunOnce(context.Background())
	assert.Error(t, err)
	// The overdue sweep still ran despite the reconcile failure.
	invoices.AssertExpectations(t)
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Minute, cfg.RunInterval)
	assert.Equal(t, 50, cfg.ReconcileBatchSize)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)

	custom := Config{ReconcileBatchSize: 10}.withDefaults()
	assert.Equal(t, 10, custom.ReconcileBatchSize)
	assert.Equal(t, time.Minute, custom.RunInterval)
}
