package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dueDays = 7

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Plans         *config.PlanConfigHolder
	Repo          invoicedomain.Repository
	Subscriptions subscriptiondomain.Service
	Ledger        ledgerdomain.Service
	AuditSvc      auditdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	plans         *config.PlanConfigHolder
	repo          invoicedomain.Repository
	subscriptions subscriptiondomain.Service
	ledger        ledgerdomain.Service
	auditSvc      auditdomain.Service
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("invoice.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		plans:         p.Plans,
		repo:          p.Repo,
		subscriptions: p.Subscriptions,
		ledger:        p.Ledger,
		auditSvc:      p.AuditSvc,
	}
}

func (s *Service) GenerateForSubscription(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (*invoicedomain.Invoice, error) {
	if !periodEnd.After(periodStart) {
		return nil, invoicedomain.ErrInvalidPeriod
	}

	sub, err := s.subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	price := s.plans.Get().PlanPrice(string(sub.Tier))
	if !price.IsPositive() {
		return nil, invoicedomain.ErrEmptyInvoice
	}

	description := fmt.Sprintf("%s plan subscription (%s to %s)",
		titleCase(string(sub.Tier)),
		periodStart.UTC().Format("02 Jan 2006"),
		periodEnd.UTC().Format("02 Jan 2006"),
	)
	lines := []invoicedomain.LineItemInput{{
		Description: description,
		Category:    invoicedomain.CategoryDigitalServices,
		Quantity:    1,
		UnitPrice:   price,
	}}

	subID := sub.ID
	invoice, err := s.generate(ctx, sub.OwnerID, &subID, &periodStart, &periodEnd, lines)
	if err != nil {
		s.log.Error("generate subscription invoice failed",
			zap.Error(err),
			zap.String("subscription_id", subscriptionID),
		)
		return nil, err
	}
	return invoice, nil
}

func (s *Service) GenerateForService(ctx context.Context, userID string, items []invoicedomain.LineItemInput) (*invoicedomain.Invoice, error) {
	uid, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if len(items) == 0 {
		return nil, invoicedomain.ErrEmptyInvoice
	}
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return nil, invoicedomain.ErrInvalidAmount
		}
	}

	invoice, err := s.generate(ctx, uid, nil, nil, nil, items)
	if err != nil {
		s.log.Error("generate service invoice failed", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	return invoice, nil
}

// generate draws the next month number, writes the invoice with its lines
// and posts the revenue entry in one transaction.
func (s *Service) generate(ctx context.Context, userID snowflake.ID, subscriptionID *snowflake.ID, periodStart, periodEnd *time.Time, inputs []invoicedomain.LineItemInput) (*invoicedomain.Invoice, error) {
	now := s.clock.Now()
	monthKey := invoicedomain.InvoiceMonthKey(now)
	gstRate := s.plans.Get().GSTRate()

	invoice := &invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		MonthKey:       monthKey,
		SubscriptionID: subscriptionID,
		UserID:         userID,
		Status:         invoicedomain.InvoiceStatusSent,
		Currency:       "INR",
		PaidAmount:     decimal.Zero,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, dueDays),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	subtotal := decimal.Zero
	gstTotal := decimal.Zero
	items := make([]*invoicedomain.InvoiceLineItem, 0, len(inputs))
	for _, input := range inputs {
		lineTotal := input.UnitPrice.Mul(decimal.NewFromInt(input.Quantity)).Round(2)
		// GST is rounded per line, then summed; the invoice totals are the
		// sums of the rounded lines.
		gstAmount := lineTotal.Mul(gstRate).Round(2)
		items = append(items, &invoicedomain.InvoiceLineItem{
			ID:             s.genID.Generate(),
			InvoiceID:      invoice.ID,
			Description:    input.Description,
			Category:       input.Category,
			HSNCode:        s.plans.Get().HSNCode(input.Category),
			Quantity:       input.Quantity,
			UnitPrice:      input.UnitPrice,
			LineTotal:      lineTotal,
			GSTRatePercent: gstRate.Mul(decimal.NewFromInt(100)),
			GSTAmount:      gstAmount,
			CreatedAt:      now,
		})
		subtotal = subtotal.Add(lineTotal)
		gstTotal = gstTotal.Add(gstAmount)
	}
	invoice.Subtotal = subtotal
	invoice.GSTAmount = gstTotal
	invoice.TotalAmount = subtotal.Add(gstTotal)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx, monthKey)
		if err != nil {
			return err
		}
		invoice.Sequence = seq
		invoice.InvoiceNumber = invoicedomain.FormatInvoiceNumber(monthKey, seq)

		if err := s.repo.CreateInvoice(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.repo.CreateLineItems(ctx, tx, items); err != nil {
			return err
		}
		return s.ledger.Post(ctx, tx, ledgerdomain.PostRequest{
			SourceType: ledgerdomain.SourceTypeInvoice,
			SourceID:   invoice.ID,
			Currency:   invoice.Currency,
			OccurredAt: now,
			Lines: []ledgerdomain.PostLine{
				{Account: ledgerdomain.AccountCodeAccountsReceivable, Direction: ledgerdomain.EntryDirectionDebit, Amount: invoice.TotalAmount},
				{Account: ledgerdomain.AccountCodeServiceRevenue, Direction: ledgerdomain.EntryDirectionCredit, Amount: invoice.Subtotal},
				{Account: ledgerdomain.AccountCodeGSTPayable, Direction: ledgerdomain.EntryDirectionCredit, Amount: invoice.GSTAmount},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.StringFixed(2)),
	)

	targetID := invoice.ID.String()
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"user_id":        invoice.UserID.String(),
		"subtotal":       invoice.Subtotal.StringFixed(2),
		"gst_amount":     invoice.GSTAmount.StringFixed(2),
		"total_amount":   invoice.TotalAmount.StringFixed(2),
	}
	if invoice.SubscriptionID != nil {
		metadata["subscription_id"] = invoice.SubscriptionID.String()
	}
	_ = s.auditSvc.AuditLog(ctx, "system", nil, "invoice.generated", "invoice", &targetID, metadata)
	return invoice, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, []invoicedomain.InvoiceLineItem, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, invoicedomain.ErrInvoiceNotFound
	}
	invoice, err := s.repo.FindByID(ctx, s.db, int64(invoiceID))
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, invoicedomain.ErrInvoiceNotFound
	}
	items, err := s.repo.LineItems(ctx, s.db, int64(invoiceID))
	if err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

func (s *Service) MarkPaid(ctx context.Context, invoiceID string, paidAmount decimal.Decimal, paymentRef string) (*invoicedomain.Invoice, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if !paidAmount.IsPositive() {
		return nil, invoicedomain.ErrInvalidAmount
	}

	var updated *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, int64(id))
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrAlreadyPaid
		}

		newPaid := invoice.PaidAmount.Add(paidAmount)
		status := invoicedomain.InvoiceStatusPartiallyPaid
		var paidDate *time.Time
		if newPaid.GreaterThanOrEqual(invoice.TotalAmount) {
			status = invoicedomain.InvoiceStatusPaid
			now := s.clock.Now()
			paidDate = &now
		}

		ref := strings.TrimSpace(paymentRef)
		var refPtr *string
		if ref != "" {
			refPtr = &ref
		}

		ok, err := s.repo.RecordPayment(ctx, tx, int64(id), invoice.PaidAmount, newPaid, status, paidDate, refPtr)
		if err != nil {
			return err
		}
		if !ok {
			return invoicedomain.ErrPaymentConflict
		}

		if err := s.ledger.Post(ctx, tx, ledgerdomain.PostRequest{
			SourceType: ledgerdomain.SourceTypePayment,
			SourceID:   invoice.ID,
			Currency:   invoice.Currency,
			OccurredAt: s.clock.Now(),
			Lines: []ledgerdomain.PostLine{
				{Account: ledgerdomain.AccountCodeCash, Direction: ledgerdomain.EntryDirectionDebit, Amount: paidAmount},
				{Account: ledgerdomain.AccountCodeAccountsReceivable, Direction: ledgerdomain.EntryDirectionCredit, Amount: paidAmount},
			},
		}); err != nil {
			return err
		}

		invoice.PaidAmount = newPaid
		invoice.Status = status
		invoice.PaidDate = paidDate
		invoice.PaymentRef = refPtr
		updated = invoice
		return nil
	})
	if err != nil {
		if err != invoicedomain.ErrAlreadyPaid && err != invoicedomain.ErrInvoiceNotFound {
			s.log.Error("mark invoice paid failed", zap.Error(err), zap.String("invoice_id", invoiceID))
		}
		return nil, err
	}

	s.log.Info("invoice payment recorded",
		zap.String("invoice_number", updated.InvoiceNumber),
		zap.String("paid_amount", paidAmount.StringFixed(2)),
		zap.String("status", string(updated.Status)),
	)

	targetID := updated.ID.String()
	metadata := map[string]any{
		"invoice_number": updated.InvoiceNumber,
		"paid_amount":    paidAmount.StringFixed(2),
		"total_paid":     updated.PaidAmount.StringFixed(2),
		"status":         string(updated.Status),
	}
	if updated.PaymentRef != nil {
		metadata["payment_id"] = *updated.PaymentRef
	}
	_ = s.auditSvc.AuditLog(ctx, "system", nil, "invoice.payment_recorded", "invoice", &targetID, metadata)
	return updated, nil
}

func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	flipped, err := s.repo.MarkOverdue(ctx, s.db, s.clock.Now())
	if err != nil {
		s.log.Error("overdue sweep failed", zap.Error(err))
		return 0, err
	}
	if flipped > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", flipped))
	}
	return flipped, nil
}
