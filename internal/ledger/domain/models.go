// Package domain contains the double-entry ledger models backing the
// revenue engine's financial audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryDirection represents debit or credit postings.
type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "debit"
	EntryDirectionCredit EntryDirection = "credit"
)

// SourceType names the financial event an entry was posted for.
type SourceType string

const (
	SourceTypeInvoice        SourceType = "invoice"         // invoice issued
	SourceTypePayment        SourceType = "payment"         // invoice payment received
	SourceTypeCommission     SourceType = "commission"      // partner commission accrued
	SourceTypeCreditPurchase SourceType = "credit_purchase" // consultation credits bought
)

// AccountCode identifies a chart-of-accounts entry.
type AccountCode string

const (
	// Assets
	AccountCodeAccountsReceivable AccountCode = "accounts_receivable"
	AccountCodeCash               AccountCode = "cash"

	// Revenue
	AccountCodeServiceRevenue AccountCode = "service_revenue"
	AccountCodeCreditRevenue  AccountCode = "credit_revenue"

	// Liabilities
	AccountCodeGSTPayable        AccountCode = "gst_payable"
	AccountCodeCommissionPayable AccountCode = "commission_payable"

	// Expenses
	AccountCodeCommissionExpense AccountCode = "commission_expense"
)

// Account defines a chart-of-accounts entry.
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Code      AccountCode  `gorm:"type:text;not null;uniqueIndex"`
	Name      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "ledger_accounts" }

// Entry captures the immutable header for a financial event.
type Entry struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	SourceType SourceType   `gorm:"type:text;not null;index:ix_ledger_source"`
	SourceID   snowflake.ID `gorm:"not null;index:ix_ledger_source"`
	Currency   string       `gorm:"type:text;not null"`
	OccurredAt time.Time    `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "ledger_entries" }

// EntryLine is a double-entry posting line.
type EntryLine struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	EntryID   snowflake.ID    `gorm:"not null;index"`
	AccountID snowflake.ID    `gorm:"not null;index"`
	Direction EntryDirection  `gorm:"type:text;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (EntryLine) TableName() string { return "ledger_entry_lines" }
