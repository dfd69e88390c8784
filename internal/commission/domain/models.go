// Package domain contains persistence models and the pure rate math for
// partner commissions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CommissionType modifies the partner's base rate.
type CommissionType string

const (
	CommissionTypeAppointment        CommissionType = "appointment"
	CommissionTypeReferral           CommissionType = "referral"
	CommissionTypeSubscription       CommissionType = "subscription"
	CommissionTypeCorporate          CommissionType = "corporate"
	CommissionTypeHealthVerification CommissionType = "health_verification"
	CommissionTypeTrainingPackage    CommissionType = "training_package"
)

// CommissionStatus advances pending -> approved -> paid and never reverts.
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// CommissionEarning is one partner's share of one billable event. The
// unique index on (appointment_id, commission_type) is the storage-level
// guarantee that an appointment earns at most one appointment commission;
// the application pre-check is only an early exit. AppointmentID is nil
// for referral/manual earnings, which the index therefore does not
// constrain.
type CommissionEarning struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	PartnerID      snowflake.ID   `gorm:"not null;index"`
	AppointmentID  *snowflake.ID  `gorm:"uniqueIndex:ux_commission_appointment,priority:1"`
	CommissionType CommissionType `gorm:"type:text;not null;uniqueIndex:ux_commission_appointment,priority:2"`

	BaseAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	// CommissionRate is the exact fraction used for the amount; RatePercent
	// is its rounded display form and may disagree with the amount by a
	// sub-rupee margin. The amount is authoritative.
	CommissionRate   decimal.Decimal `gorm:"type:numeric(8,6);not null"`
	RatePercent      int64           `gorm:"not null"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Status CommissionStatus `gorm:"type:text;not null;default:'pending'"`
	Notes  string           `gorm:"type:text"`
	PaidAt *time.Time       `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CommissionEarning) TableName() string { return "commission_earnings" }
