package repository

import (
	"context"
	"errors"
	"time"

	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	"github.com/woofdesk/woofdesk/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() commissiondomain.Repository {
	return &repo{}
}

// Insert relies on the (appointment_id, commission_type) unique index for
// its duplicate guarantee and maps the violation to the domain error.
func (r *repo) Insert(ctx context.Context, dbConn *gorm.DB, earning *commissiondomain.CommissionEarning) error {
	err := dbConn.WithContext(ctx).Create(earning).Error
	if db.IsDuplicateKeyErr(err) {
		return commissiondomain.ErrDuplicateCommission
	}
	return err
}

func (r *repo) InsertIgnoreDuplicate(ctx context.Context, dbConn *gorm.DB, earning *commissiondomain.CommissionEarning) (bool, error) {
	result := dbConn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "appointment_id"},
			{Name: "commission_type"},
		},
		DoNothing: true,
	}).Create(earning)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ExistsForAppointment(ctx context.Context, dbConn *gorm.DB, appointmentID int64) (bool, error) {
	var count int64
	err := dbConn.WithContext(ctx).
		Model(&commissiondomain.CommissionEarning{}).
		Where("appointment_id = ? AND commission_type = ?", appointmentID, commissiondomain.CommissionTypeAppointment).
		Count(&count).Error
	return count > 0, err
}

// Approve only touches rows still pending; approved or paid rows are left
// alone, so the operation cannot move a commission backwards.
func (r *repo) Approve(ctx context.Context, dbConn *gorm.DB, ids []int64, paidAt time.Time) (int64, error) {
	result := dbConn.WithContext(ctx).
		Model(&commissiondomain.CommissionEarning{}).
		Where("id IN ? AND status = ?", ids, commissiondomain.CommissionStatusPending).
		Updates(map[string]any{
			"status":     commissiondomain.CommissionStatusApproved,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, dbConn *gorm.DB, id int64) (*commissiondomain.CommissionEarning, error) {
	var earning commissiondomain.CommissionEarning
	err := dbConn.WithContext(ctx).First(&earning, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}
