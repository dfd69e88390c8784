package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	appointmentdomain "github.com/woofdesk/woofdesk/internal/appointment/domain"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/config"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Plans        *config.PlanConfigHolder
	Repo         commissiondomain.Repository
	Appointments appointmentdomain.Repository
	Ledger       ledgerdomain.Service
	AuditSvc     auditdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	plans        *config.PlanConfigHolder
	repo         commissiondomain.Repository
	appointments appointmentdomain.Repository
	ledger       ledgerdomain.Service
	auditSvc     auditdomain.Service
}

func NewService(p ServiceParam) commissiondomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("commission.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		plans:        p.Plans,
		repo:         p.Repo,
		appointments: p.Appointments,
		ledger:       p.Ledger,
		auditSvc:     p.AuditSvc,
	}
}

func (s *Service) Quote(baseAmount decimal.Decimal, partnerTier string, commissionType commissiondomain.CommissionType) commissiondomain.Calculation {
	plan := s.plans.Get()
	return commissiondomain.Calculate(
		baseAmount,
		plan.CommissionBaseRate(partnerTier),
		plan.CommissionModifier(string(commissionType)),
	)
}

func (s *Service) RecordAppointment(ctx context.Context, appointmentID string) (*commissiondomain.Response, error) {
	apptID, err := snowflake.ParseString(strings.TrimSpace(appointmentID))
	if err != nil {
		return nil, appointmentdomain.ErrAppointmentNotFound
	}

	appointment, err := s.appointments.FindByID(ctx, s.db, apptID)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, appointmentdomain.ErrAppointmentNotFound
	}
	if !appointment.Billable() {
		return nil, commissiondomain.ErrAppointmentNotBillable
	}

	// Early exit; the unique index remains the real guarantee when two
	// requests pass this check concurrently.
	exists, err := s.repo.ExistsForAppointment(ctx, s.db, int64(apptID))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, commissiondomain.ErrDuplicateCommission
	}

	earning := s.buildEarning(appointment)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, earning); err != nil {
			return err
		}
		return s.postAccrual(ctx, tx, earning)
	})
	if err != nil {
		if err != commissiondomain.ErrDuplicateCommission {
			s.log.Error("record appointment commission failed",
				zap.Error(err),
				zap.String("appointment_id", apptID.String()),
			)
		}
		return nil, err
	}

	s.emitAudit(ctx, "commission.recorded", earning)
	return toResponse(earning), nil
}

func (s *Service) RecordManual(ctx context.Context, req commissiondomain.ManualRequest) (*commissiondomain.Response, error) {
	partnerID, err := snowflake.ParseString(strings.TrimSpace(req.PartnerID))
	if err != nil {
		return nil, commissiondomain.ErrInvalidPartner
	}
	if !req.BaseAmount.IsPositive() {
		return nil, commissiondomain.ErrInvalidBaseAmount
	}
	commissionType := req.CommissionType
	if commissionType == "" {
		commissionType = commissiondomain.CommissionTypeReferral
	}

	now := s.clock.Now()
	calc := s.Quote(req.BaseAmount, req.PartnerTier, commissionType)
	earning := &commissiondomain.CommissionEarning{
		ID:               s.genID.Generate(),
		PartnerID:        partnerID,
		AppointmentID:    nil,
		CommissionType:   commissionType,
		BaseAmount:       req.BaseAmount,
		CommissionRate:   calc.Rate,
		RatePercent:      calc.RatePercent,
		CommissionAmount: calc.Amount,
		Status:           commissiondomain.CommissionStatusPending,
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, earning); err != nil {
			return err
		}
		return s.postAccrual(ctx, tx, earning)
	})
	if err != nil {
		s.log.Error("record manual commission failed", zap.Error(err), zap.String("partner_id", partnerID.String()))
		return nil, err
	}

	s.emitAudit(ctx, "commission.recorded_manual", earning)
	return toResponse(earning), nil
}

// BulkReconcile is the sweep for billable appointments whose synchronous
// trigger failed. Inserts ride the same unique index, so a concurrent
// per-event trigger cannot double-record.
func (s *Service) BulkReconcile(ctx context.Context, batchSize int) (commissiondomain.ReconcileResult, error) {
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	result := commissiondomain.ReconcileResult{TotalAmount: decimal.Zero}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		missed, err := s.appointments.ListBillableWithoutCommission(ctx, tx, batchSize)
		if err != nil {
			return err
		}
		if len(missed) == 0 {
			return nil
		}

		for i := range missed {
			earning := s.buildEarning(&missed[i])
			inserted, err := s.repo.InsertIgnoreDuplicate(ctx, tx, earning)
			if err != nil {
				return err
			}
			if !inserted {
				// A concurrent per-event trigger got there first; the
				// unique index already holds the row.
				continue
			}
			if err := s.postAccrual(ctx, tx, earning); err != nil {
				return err
			}
			result.ProcessedCount++
			result.TotalAmount = result.TotalAmount.Add(earning.CommissionAmount)
		}
		return nil
	})
	if err != nil {
		s.log.Error("bulk reconcile failed", zap.Error(err))
		return commissiondomain.ReconcileResult{}, err
	}

	if result.ProcessedCount > 0 {
		s.log.Info("commission reconciliation sweep",
			zap.Int("processed", result.ProcessedCount),
			zap.String("total_amount", result.TotalAmount.StringFixed(2)),
		)
	}
	return result, nil
}

func (s *Service) Approve(ctx context.Context, ids []string) (int64, error) {
	parsed := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		parsed = append(parsed, int64(id))
	}
	if len(parsed) == 0 {
		return 0, commissiondomain.ErrNothingToApprove
	}

	approved, err := s.repo.Approve(ctx, s.db, parsed, s.clock.Now())
	if err != nil {
		s.log.Error("approve commissions failed", zap.Error(err))
		return 0, err
	}

	_ = s.auditSvc.AuditLog(ctx, "admin", nil, "commission.approved", "commission", nil, map[string]any{
		"requested": len(parsed),
		"approved":  approved,
	})
	return approved, nil
}

func (s *Service) buildEarning(appointment *appointmentdomain.Appointment) *commissiondomain.CommissionEarning {
	now := s.clock.Now()
	apptID := appointment.ID
	calc := s.Quote(appointment.Fee, appointment.PartnerTier, commissiondomain.CommissionTypeAppointment)
	return &commissiondomain.CommissionEarning{
		ID:               s.genID.Generate(),
		PartnerID:        appointment.PartnerID,
		AppointmentID:    &apptID,
		CommissionType:   commissiondomain.CommissionTypeAppointment,
		BaseAmount:       appointment.Fee,
		CommissionRate:   calc.Rate,
		RatePercent:      calc.RatePercent,
		CommissionAmount: calc.Amount,
		Status:           commissiondomain.CommissionStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// postAccrual records the expense/payable pair for an earned commission in
// the same transaction as the earning row.
func (s *Service) postAccrual(ctx context.Context, tx *gorm.DB, earning *commissiondomain.CommissionEarning) error {
	return s.ledger.Post(ctx, tx, ledgerdomain.PostRequest{
		SourceType: ledgerdomain.SourceTypeCommission,
		SourceID:   earning.ID,
		Currency:   "INR",
		OccurredAt: earning.CreatedAt,
		Lines: []ledgerdomain.PostLine{
			{Account: ledgerdomain.AccountCodeCommissionExpense, Direction: ledgerdomain.EntryDirectionDebit, Amount: earning.CommissionAmount},
			{Account: ledgerdomain.AccountCodeCommissionPayable, Direction: ledgerdomain.EntryDirectionCredit, Amount: earning.CommissionAmount},
		},
	})
}

func (s *Service) emitAudit(ctx context.Context, action string, earning *commissiondomain.CommissionEarning) {
	targetID := earning.ID.String()
	metadata := map[string]any{
		"partner_id":        earning.PartnerID.String(),
		"commission_type":   string(earning.CommissionType),
		"base_amount":       earning.BaseAmount.StringFixed(2),
		"commission_amount": earning.CommissionAmount.StringFixed(2),
		"rate_percent":      earning.RatePercent,
	}
	if earning.AppointmentID != nil {
		metadata["appointment_id"] = earning.AppointmentID.String()
	}
	_ = s.auditSvc.AuditLog(ctx, "system", nil, action, "commission", &targetID, metadata)
}

func toResponse(earning *commissiondomain.CommissionEarning) *commissiondomain.Response {
	resp := &commissiondomain.Response{
		ID:               earning.ID.String(),
		PartnerID:        earning.PartnerID.String(),
		CommissionType:   earning.CommissionType,
		BaseAmount:       earning.BaseAmount,
		RatePercent:      earning.RatePercent,
		CommissionAmount: earning.CommissionAmount,
		Status:           earning.Status,
		CreatedAt:        earning.CreatedAt,
	}
	if earning.AppointmentID != nil {
		id := earning.AppointmentID.String()
		resp.AppointmentID = &id
	}
	return resp
}
