// Package domain contains the appointment model the revenue engine reads.
// Booking and slot management live in an external collaborator; this side
// only needs enough to compute commissions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked consultation. PartnerTier snapshots the
// partner's partnership tier at booking time so commission math does not
// shift when the partner upgrades later.
type Appointment struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	PartnerID        snowflake.ID      `gorm:"not null;index"`
	UserID           snowflake.ID      `gorm:"not null;index"`
	ConsultationType string            `gorm:"type:text;not null"`
	PartnerTier      string            `gorm:"type:text;not null"`
	Fee              decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0"`
	Status           AppointmentStatus `gorm:"type:text;not null;default:'scheduled'"`
	CompletedAt      *time.Time        `gorm:""`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Appointment) TableName() string { return "appointments" }

// Billable reports whether the appointment should earn a commission.
func (a Appointment) Billable() bool {
	return a.Status == AppointmentStatusCompleted && a.Fee.IsPositive()
}
