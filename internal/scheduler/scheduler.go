// Package scheduler runs the periodic background sweeps: commission
// reconciliation and invoice overdue marking.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/woofdesk/woofdesk/internal/clock"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	CommissionSvc commissiondomain.Service
	InvoiceSvc    invoicedomain.Service
	Config        Config `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	commissionSvc commissiondomain.Service
	invoiceSvc    invoicedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.CommissionSvc == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler"),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		commissionSvc: p.CommissionSvc,
		invoiceSvc:    p.InvoiceSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	err := fn(ctx)
	duration := s.clock.Now().Sub(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("job timed out", zap.String("job", name), zap.Duration("duration", duration))
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	s.log.Debug("job finished", zap.String("job", name), zap.Duration("duration", duration))
	return nil
}

// RunOnce executes one pass of every sweep. Errors in one job do not stop
// the others.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var firstErr error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"commission_reconcile", s.ReconcileCommissionsJob},
		{"invoice_overdue", s.MarkInvoicesOverdueJob},
	}

	for _, job := range jobs {
		if err := s.runJob(parent, job.Name, job.Run); err != nil {
			s.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RunForever ticks until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.RunInterval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) ReconcileCommissionsJob(ctx context.Context) error {
	result, err := s.commissionSvc.BulkReconcile(ctx, s.cfg.ReconcileBatchSize)
	if err != nil {
		return err
	}
	if result.ProcessedCount > 0 {
		s.log.Info("reconciled missed commissions",
			zap.Int("processed", result.ProcessedCount),
			zap.String("total_amount", result.TotalAmount.StringFixed(2)),
		)
	}
	return nil
}

func (s *Scheduler) MarkInvoicesOverdueJob(ctx context.Context) error {
	_, err := s.invoiceSvc.MarkOverdue(ctx)
	return err
}
