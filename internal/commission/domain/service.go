package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ManualRequest struct {
	PartnerID      string          `json:"partner_id"`
	CommissionType CommissionType  `json:"commission_type"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	PartnerTier    string          `json:"partner_tier"`
	Notes          string          `json:"notes"`
}

type ReconcileResult struct {
	ProcessedCount int             `json:"processed_count"`
	TotalAmount    decimal.Decimal `json:"total_commission_amount"`
}

type Response struct {
	ID               string          `json:"id"`
	PartnerID        string          `json:"partner_id"`
	AppointmentID    *string         `json:"appointment_id,omitempty"`
	CommissionType   CommissionType  `json:"commission_type"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	RatePercent      int64           `json:"rate_percent"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Status           CommissionStatus `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, earning *CommissionEarning) error
	// InsertIgnoreDuplicate inserts with ON CONFLICT DO NOTHING semantics
	// so a lost race against the unique index skips instead of aborting
	// the surrounding transaction. Returns whether the row landed.
	InsertIgnoreDuplicate(ctx context.Context, db *gorm.DB, earning *CommissionEarning) (bool, error)
	ExistsForAppointment(ctx context.Context, db *gorm.DB, appointmentID int64) (bool, error)
	Approve(ctx context.Context, db *gorm.DB, ids []int64, paidAt time.Time) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*CommissionEarning, error)
}

type Service interface {
	// Quote runs the pure calculation against the active plan tables.
	Quote(baseAmount decimal.Decimal, partnerTier string, commissionType CommissionType) Calculation

	// RecordAppointment creates the single appointment commission for a
	// completed appointment. A second call for the same appointment fails
	// with ErrDuplicateCommission; callers treat that as already recorded.
	RecordAppointment(ctx context.Context, appointmentID string) (*Response, error)

	// RecordManual creates a referral/manual earning with no appointment.
	// Restricted to privileged callers at the transport layer.
	RecordManual(ctx context.Context, req ManualRequest) (*Response, error)

	// BulkReconcile backfills commissions for billable appointments the
	// per-event trigger missed, at most batchSize per call.
	BulkReconcile(ctx context.Context, batchSize int) (ReconcileResult, error)

	// Approve moves the listed pending earnings to approved and stamps
	// paid_at. Approved and paid rows are never moved back.
	Approve(ctx context.Context, ids []string) (int64, error)
}

var (
	ErrDuplicateCommission    = errors.New("duplicate_commission")
	ErrAppointmentNotBillable = errors.New("appointment_not_billable")
	ErrInvalidPartner         = errors.New("invalid_partner")
	ErrInvalidBaseAmount      = errors.New("invalid_base_amount")
	ErrNothingToApprove       = errors.New("nothing_to_approve")
)
