package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	appointmentdomain "github.com/woofdesk/woofdesk/internal/appointment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() appointmentdomain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, appointment *appointmentdomain.Appointment) error {
	return db.WithContext(ctx).Create(appointment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*appointmentdomain.Appointment, error) {
	var appointment appointmentdomain.Appointment
	err := db.WithContext(ctx).First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) ListBillableWithoutCommission(ctx context.Context, db *gorm.DB, limit int) ([]appointmentdomain.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []appointmentdomain.Appointment
	err := db.WithContext(ctx).Raw(
		`SELECT a.*
		 FROM appointments a
		 LEFT JOIN commission_earnings ce
		   ON ce.appointment_id = a.id AND ce.commission_type = ?
		 WHERE a.status = ? AND a.fee > 0 AND ce.id IS NULL
		 ORDER BY a.completed_at ASC
		 LIMIT ?`,
		"appointment",
		appointmentdomain.AppointmentStatusCompleted,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
