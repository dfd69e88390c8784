package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItemInput describes one billable line before GST is applied.
type LineItemInput struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Repository interface {
	// NextSequence atomically increments the month counter and returns the
	// new value. Must run inside the same transaction as the invoice
	// insert.
	NextSequence(ctx context.Context, tx *gorm.DB, monthKey string) (int64, error)
	CreateInvoice(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	CreateLineItems(ctx context.Context, tx *gorm.DB, items []*InvoiceLineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Invoice, error)
	LineItems(ctx context.Context, db *gorm.DB, invoiceID int64) ([]InvoiceLineItem, error)
	// RecordPayment applies a cumulative payment guarded by the previously
	// observed paid amount so concurrent payments cannot double-apply.
	RecordPayment(ctx context.Context, tx *gorm.DB, id int64, prevPaid, newPaid decimal.Decimal, status InvoiceStatus, paidDate *time.Time, paymentRef *string) (bool, error)
	// MarkOverdue flips sent invoices past their due date to overdue.
	MarkOverdue(ctx context.Context, db *gorm.DB, asOf time.Time) (int64, error)
}

type Service interface {
	// GenerateForSubscription bills one subscription period as a single
	// plan-charge line.
	GenerateForSubscription(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (*Invoice, error)

	// GenerateForService bills an ad-hoc set of service lines.
	GenerateForService(ctx context.Context, userID string, items []LineItemInput) (*Invoice, error)

	GetByID(ctx context.Context, id string) (*Invoice, []InvoiceLineItem, error)

	// MarkPaid applies a payment. Cumulative payments reaching the total
	// move the invoice to paid and stamp paid_date; paying a paid invoice
	// is rejected.
	MarkPaid(ctx context.Context, invoiceID string, paidAmount decimal.Decimal, paymentRef string) (*Invoice, error)

	// MarkOverdue is the scheduler sweep over sent invoices past due.
	MarkOverdue(ctx context.Context) (int64, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrAlreadyPaid     = errors.New("invoice_already_paid")
	ErrEmptyInvoice    = errors.New("invoice_has_no_lines")
	ErrInvalidPeriod   = errors.New("invalid_billing_period")
	ErrInvalidAmount   = errors.New("invalid_payment_amount")
	ErrPaymentConflict = errors.New("payment_conflict")
)
