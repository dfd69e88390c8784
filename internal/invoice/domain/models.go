// Package domain contains persistence models for GST-itemized invoicing.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// Line item categories. Each maps to an HSN/SAC code in the plan tables;
// all carry 18% GST in the current deployment.
const (
	CategoryDigitalServices = "digital_services"
	CategoryConsulting      = "consulting"
	CategoryPhysicalGoods   = "physical_goods"
	CategoryPlatformFee     = "platform_fee"
)

// Invoice is a GST-itemized bill. total_amount = subtotal + gst_amount
// always holds; the line items are the source of all three sums.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	InvoiceNumber string       `gorm:"type:text;not null;uniqueIndex"`
	// MonthKey and Sequence back the per-calendar-month numbering.
	MonthKey string `gorm:"type:varchar(6);not null;index"`
	Sequence int64  `gorm:"not null"`

	SubscriptionID *snowflake.ID `gorm:"index"`
	UserID         snowflake.ID  `gorm:"not null;index"`

	Status   InvoiceStatus `gorm:"type:text;not null;default:'draft'"`
	Currency string        `gorm:"type:text;not null;default:'INR'"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	GSTAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaidAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	PeriodStart *time.Time `gorm:""`
	PeriodEnd   *time.Time `gorm:""`
	IssueDate   time.Time  `gorm:"not null"`
	DueDate     time.Time  `gorm:"not null"`
	PaidDate    *time.Time `gorm:""`

	PaymentRef *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLineItem is one GST-bearing line on an invoice.
type InvoiceLineItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InvoiceID snowflake.ID `gorm:"not null;index"`

	Description string `gorm:"type:text;not null"`
	Category    string `gorm:"type:text;not null"`
	HSNCode     string `gorm:"type:text;not null"`

	Quantity       int64           `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	GSTRatePercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	GSTAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLineItem) TableName() string { return "invoice_line_items" }

// InvoiceSequence is the per-month numbering counter. Incrementing it and
// inserting the invoice happen in one transaction, which is what keeps
// numbers gapless and monotone within a month.
type InvoiceSequence struct {
	MonthKey string `gorm:"type:varchar(6);primaryKey"`
	LastSeq  int64  `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

// FormatInvoiceNumber renders the WD-{YYYY}{MM}-{seq} number.
func FormatInvoiceNumber(monthKey string, seq int64) string {
	return fmt.Sprintf("WD-%s-%04d", monthKey, seq)
}

// InvoiceMonthKey formats t as the numbering month, UTC.
func InvoiceMonthKey(t time.Time) string {
	return t.UTC().Format("200601")
}
