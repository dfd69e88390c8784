package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostLine is one side of a posting.
type PostLine struct {
	Account   AccountCode
	Direction EntryDirection
	Amount    decimal.Decimal
}

// PostRequest is a balanced set of lines for one financial event.
type PostRequest struct {
	SourceType SourceType
	SourceID   snowflake.ID
	Currency   string
	OccurredAt time.Time
	Lines      []PostLine
}

// Service posts balanced entries. Post participates in the caller's
// transaction so a financial write and its postings commit atomically.
type Service interface {
	Post(ctx context.Context, tx *gorm.DB, req PostRequest) error
}

var (
	ErrUnbalancedEntry = errors.New("unbalanced_ledger_entry")
	ErrEmptyEntry      = errors.New("empty_ledger_entry")
)
