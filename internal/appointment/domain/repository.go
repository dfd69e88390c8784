package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Appointment, error)
	// ListBillableWithoutCommission returns completed, fee-bearing
	// appointments that have no appointment-type commission row yet.
	ListBillableWithoutCommission(ctx context.Context, db *gorm.DB, limit int) ([]Appointment, error)
}

var ErrAppointmentNotFound = errors.New("appointment_not_found")
