package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	appointmentdomain "github.com/woofdesk/woofdesk/internal/appointment/domain"
	appointmentrepo "github.com/woofdesk/woofdesk/internal/appointment/repository"
	auditservice "github.com/woofdesk/woofdesk/internal/audit/service"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	commissionrepo "github.com/woofdesk/woofdesk/internal/commission/repository"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	ledgerservice "github.com/woofdesk/woofdesk/internal/ledger/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   commissiondomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&appointmentdomain.Appointment{},
		&commissiondomain.CommissionEarning{},
		&ledgerdomain.Account{},
		&ledgerdomain.Entry{},
		&ledgerdomain.EntryLine{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	logger := zap.NewNop()

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          logger,
		GenID:        node,
		Clock:        fake,
		Plans:        config.NewStaticPlanConfigHolder(config.DefaultPlanConfig()),
		Repo:         commissionrepo.Provide(),
		Appointments: appointmentrepo.Provide(),
		Ledger:       ledgerservice.NewService(ledgerservice.ServiceParam{Log: logger, GenID: node}),
		AuditSvc: auditservice.NewService(auditservice.ServiceParam{
			DB: db, Log: logger, GenID: node, Clock: fake,
		}),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) seedAppointment(t *testing.T, tier string, fee string, status appointmentdomain.AppointmentStatus) appointmentdomain.Appointment {
	t.Helper()
	now := f.clock.Now()
	appt := appointmentdomain.Appointment{
		ID:               f.node.Generate(),
		PartnerID:        f.node.Generate(),
		UserID:           f.node.Generate(),
		ConsultationType: "video",
		PartnerTier:      tier,
		Fee:              decimal.RequireFromString(fee),
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == appointmentdomain.AppointmentStatusCompleted {
		appt.CompletedAt = &now
	}
	require.NoError(t, f.db.Create(&appt).Error)
	return appt
}

func TestRecordAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.seedAppointment(t, "basic", "500", appointmentdomain.AppointmentStatusCompleted)

	resp, err := f.svc.RecordAppointment(context.Background(), appt.ID.String())
	require.NoError(t, err)

	assert.Equal(t, commissiondomain.CommissionTypeAppointment, resp.CommissionType)
	assert.Equal(t, int64(10), resp.RatePercent)
	assert.Equal(t, "50.00", resp.CommissionAmount.StringFixed(2))
	assert.Equal(t, commissiondomain.CommissionStatusPending, resp.Status)

	// The accrual posts a balanced expense/payable pair in the same commit.
	var lines int64
	require.NoError(t, f.db.Model(&ledgerdomain.EntryLine{}).Count(&lines).Error)
	assert.Equal(t, int64(2), lines)
}

func TestRecordAppointmentDuplicate(t *testing.T) {
	f := newFixture(t)
	appt := f.seedAppointment(t, "premium", "1000", appointmentdomain.AppointmentStatusCompleted)
	ctx := context.Background()

	_, err := f.svc.RecordAppointment(ctx, appt.ID.String())
	require.NoError(t, err)

	_, err = f.svc.RecordAppointment(ctx, appt.ID.String())
	assert.ErrorIs(t, err, commissiondomain.ErrDuplicateCommission)

	var count int64
	require.NoError(t, f.db.Model(&commissiondomain.CommissionEarning{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordAppointmentNotBillable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scheduled := f.seedAppointment(t, "basic", "500", appointmentdomain.AppointmentStatusScheduled)
	_, err := f.svc.RecordAppointment(ctx, scheduled.ID.String())
	assert.ErrorIs(t, err, commissiondomain.ErrAppointmentNotBillable)

	zeroFee := f.seedAppointment(t, "basic", "0", appointmentdomain.AppointmentStatusCompleted)
	_, err = f.svc.RecordAppointment(ctx, zeroFee.ID.String())
	assert.ErrorIs(t, err, commissiondomain.ErrAppointmentNotBillable)

	_, err = f.svc.RecordAppointment(ctx, "not-a-snowflake")
	assert.ErrorIs(t, err, appointmentdomain.ErrAppointmentNotFound)
}

func TestRecordManual(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.RecordManual(context.Background(), commissiondomain.ManualRequest{
		PartnerID:      f.node.Generate().String(),
		CommissionType: commissiondomain.CommissionTypeReferral,
		BaseAmount:     decimal.NewFromInt(1000),
		PartnerTier:    "premium",
	})
	require.NoError(t, err)

	// 15% x 1.5 = 22.5%, display rounds half away from zero.
	assert.Equal(t, int64(23), resp.RatePercent)
	assert.Equal(t, "225.00", resp.CommissionAmount.StringFixed(2))
	assert.Nil(t, resp.AppointmentID)
}

func TestRecordManualValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordManual(ctx, commissiondomain.ManualRequest{
		PartnerID:  "bogus",
		BaseAmount: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidPartner)

	_, err = f.svc.RecordManual(ctx, commissiondomain.ManualRequest{
		PartnerID:  f.node.Generate().String(),
		BaseAmount: decimal.Zero,
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidBaseAmount)
}

func TestQuoteUnknownTierFallsBackToBasic(t *testing.T) {
	f := newFixture(t)

	calc := f.svc.Quote(decimal.NewFromInt(500), "platinum", commissiondomain.CommissionTypeAppointment)
	assert.Equal(t, int64(10), calc.RatePercent)
	assert.Equal(t, "50.00", calc.Amount.StringFixed(2))
}

func TestBulkReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recorded := f.seedAppointment(t, "basic", "500", appointmentdomain.AppointmentStatusCompleted)
	_, err := f.svc.RecordAppointment(ctx, recorded.ID.String())
	require.NoError(t, err)

	f.seedAppointment(t, "premium", "1000", appointmentdomain.AppointmentStatusCompleted)
	f.seedAppointment(t, "enterprise", "800", appointmentdomain.AppointmentStatusCompleted)
	f.seedAppointment(t, "basic", "300", appointmentdomain.AppointmentStatusScheduled)

	result, err := f.svc.BulkReconcile(ctx, 50)
	require.NoError(t, err)

	// Only the two billable appointments without an earning are picked up.
	assert.Equal(t, 2, result.ProcessedCount)
	// premium 15% of 1000 = 150, enterprise 20% of 800 = 160.
	assert.Equal(t, "310.00", result.TotalAmount.StringFixed(2))

	// A second sweep finds nothing.
	result, err = f.svc.BulkReconcile(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.seedAppointment(t, "basic", "500", appointmentdomain.AppointmentStatusCompleted)
	resp, err := f.svc.RecordAppointment(ctx, appt.ID.String())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, []string{resp.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved)

	var earning commissiondomain.CommissionEarning
	require.NoError(t, f.db.First(&earning, "id = ?", resp.ID).Error)
	assert.Equal(t, commissiondomain.CommissionStatusApproved, earning.Status)
	require.NotNil(t, earning.PaidAt)

	// Approving again touches nothing: the row already left pending.
	approved, err = f.svc.Approve(ctx, []string{resp.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), approved)

	_, err = f.svc.Approve(ctx, []string{"junk"})
	assert.ErrorIs(t, err, commissiondomain.ErrNothingToApprove)
}
