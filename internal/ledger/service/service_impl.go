package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

var accountNames = map[ledgerdomain.AccountCode]string{
	ledgerdomain.AccountCodeAccountsReceivable: "Accounts Receivable",
	ledgerdomain.AccountCodeCash:               "Cash",
	ledgerdomain.AccountCodeServiceRevenue:     "Service Revenue",
	ledgerdomain.AccountCodeCreditRevenue:      "Credit Pack Revenue",
	ledgerdomain.AccountCodeGSTPayable:         "GST Payable",
	ledgerdomain.AccountCodeCommissionPayable:  "Commission Payable",
	ledgerdomain.AccountCodeCommissionExpense:  "Commission Expense",
}

// Post validates that debits equal credits and writes the entry with its
// lines inside the supplied transaction.
func (s *Service) Post(ctx context.Context, tx *gorm.DB, req ledgerdomain.PostRequest) error {
	if len(req.Lines) == 0 {
		return ledgerdomain.ErrEmptyEntry
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range req.Lines {
		switch line.Direction {
		case ledgerdomain.EntryDirectionDebit:
			debits = debits.Add(line.Amount)
		case ledgerdomain.EntryDirectionCredit:
			credits = credits.Add(line.Amount)
		}
	}
	if !debits.Equal(credits) {
		s.log.Error("unbalanced ledger entry rejected",
			zap.String("source_type", string(req.SourceType)),
			zap.String("source_id", req.SourceID.String()),
			zap.String("debits", debits.String()),
			zap.String("credits", credits.String()),
		)
		return ledgerdomain.ErrUnbalancedEntry
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "INR"
	}

	entry := ledgerdomain.Entry{
		ID:         s.genID.Generate(),
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		Currency:   currency,
		OccurredAt: req.OccurredAt,
		CreatedAt:  req.OccurredAt,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	for _, line := range req.Lines {
		accountID, err := s.ensureAccount(ctx, tx, line.Account)
		if err != nil {
			return err
		}
		entryLine := ledgerdomain.EntryLine{
			ID:        s.genID.Generate(),
			EntryID:   entry.ID,
			AccountID: accountID,
			Direction: line.Direction,
			Amount:    line.Amount,
			CreatedAt: req.OccurredAt,
		}
		if err := tx.WithContext(ctx).Create(&entryLine).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureAccount(ctx context.Context, tx *gorm.DB, code ledgerdomain.AccountCode) (snowflake.ID, error) {
	var account ledgerdomain.Account
	err := tx.WithContext(ctx).
		Where(ledgerdomain.Account{Code: code}).
		Attrs(ledgerdomain.Account{ID: s.genID.Generate(), Name: accountNames[code]}).
		FirstOrCreate(&account).Error
	if err != nil {
		return 0, err
	}
	return account.ID, nil
}
