package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

// NextSequence upserts the per-month counter and reads the new value back.
// The conflict update makes concurrent callers serialize on the counter
// row, so two invoices in the same month can never draw the same number.
func (r *repo) NextSequence(ctx context.Context, tx *gorm.DB, monthKey string) (int64, error) {
	row := &invoicedomain.InvoiceSequence{MonthKey: monthKey, LastSeq: 1}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "month_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_seq": gorm.Expr("last_seq + 1"),
		}),
	}).Create(row).Error
	if err != nil {
		return 0, err
	}

	var seq invoicedomain.InvoiceSequence
	if err := tx.WithContext(ctx).First(&seq, "month_key = ?", monthKey).Error; err != nil {
		return 0, err
	}
	return seq.LastSeq, nil
}

func (r *repo) CreateInvoice(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *repo) CreateLineItems(ctx context.Context, tx *gorm.DB, items []*invoicedomain.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) LineItems(ctx context.Context, db *gorm.DB, invoiceID int64) ([]invoicedomain.InvoiceLineItem, error) {
	var items []invoicedomain.InvoiceLineItem
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// RecordPayment is guarded by the paid_amount the caller read, so two
// concurrent payments against the same invoice cannot both apply; the
// loser sees rowsAffected=0 and retries or reports a conflict.
func (r *repo) RecordPayment(ctx context.Context, tx *gorm.DB, id int64, prevPaid, newPaid decimal.Decimal, status invoicedomain.InvoiceStatus, paidDate *time.Time, paymentRef *string) (bool, error) {
	updates := map[string]any{
		"paid_amount": newPaid,
		"status":      status,
		"updated_at":  tx.NowFunc(),
	}
	if paidDate != nil {
		updates["paid_date"] = *paidDate
	}
	if paymentRef != nil {
		updates["payment_ref"] = *paymentRef
	}

	result := tx.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ? AND paid_amount = ? AND status NOT IN ?", id, prevPaid, []invoicedomain.InvoiceStatus{
			invoicedomain.InvoiceStatusPaid,
			invoicedomain.InvoiceStatusCancelled,
		}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, asOf time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("status IN ? AND due_date < ?", []invoicedomain.InvoiceStatus{
			invoicedomain.InvoiceStatusSent,
			invoicedomain.InvoiceStatusPartiallyPaid,
		}, asOf).
		Updates(map[string]any{
			"status":     invoicedomain.InvoiceStatusOverdue,
			"updated_at": asOf,
		})
	return result.RowsAffected, result.Error
}
