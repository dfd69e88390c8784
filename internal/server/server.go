// Package server wires the HTTP surface for the metering engine.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/woofdesk/woofdesk/internal/clock"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	"github.com/woofdesk/woofdesk/internal/config"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	entitlementdomain "github.com/woofdesk/woofdesk/internal/entitlement/domain"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	"github.com/woofdesk/woofdesk/internal/invoice/render"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewMetrics),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, metrics *Metrics) *gin.Engine {
	return NewEngine(log, metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	clock  clock.Clock

	entitlementSvc  entitlementdomain.Service
	creditSvc       creditdomain.Service
	commissionSvc   commissiondomain.Service
	invoiceSvc      invoicedomain.Service
	invoiceRenderer render.Renderer
	subscriptionSvc subscriptiondomain.Service
	metrics         *Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Clock           clock.Clock
	EntitlementSvc  entitlementdomain.Service
	CreditSvc       creditdomain.Service
	CommissionSvc   commissiondomain.Service
	InvoiceSvc      invoicedomain.Service
	InvoiceRenderer render.Renderer
	SubscriptionSvc subscriptiondomain.Service
	Metrics         *Metrics
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		clock:           p.Clock,
		entitlementSvc:  p.EntitlementSvc,
		creditSvc:       p.CreditSvc,
		commissionSvc:   p.CommissionSvc,
		invoiceSvc:      p.InvoiceSvc,
		invoiceRenderer: p.InvoiceRenderer,
		subscriptionSvc: p.SubscriptionSvc,
		metrics:         p.Metrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	// -------- Entitlements --------
	api.GET("/entitlements/:feature", s.CheckEntitlement)
	api.POST("/entitlements/:feature/consume", s.ConsumeEntitlement)

	// -------- Credits --------
	api.GET("/credits", s.GetCreditBalance)
	api.POST("/credits/use", s.UseCredits)
	api.POST("/credits/purchase", s.PurchaseCredits)

	// -------- Subscriptions --------
	api.POST("/subscriptions", s.CreateSubscription)
	api.GET("/subscriptions/me", s.GetMySubscription)
	api.POST("/subscriptions/:id/cancel", s.CancelSubscription)
	api.POST("/subscriptions/:id/pause", s.PauseSubscription)
	api.POST("/subscriptions/:id/resume", s.ResumeSubscription)
	api.POST("/subscriptions/:id/change-plan", s.ChangeSubscriptionPlan)

	// -------- Commissions --------
	api.POST("/commissions/appointments/:id", s.RecordAppointmentCommission)

	// -------- Invoices --------
	api.GET("/invoices/:id", s.GetInvoice)
	api.GET("/invoices/:id/pdf", s.GetInvoicePDF)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/v1/admin", s.AuthRequired(), s.AdminRequired())

	admin.POST("/commissions", s.RecordManualCommission)
	admin.POST("/commissions/reconcile", s.ReconcileCommissions)
	admin.POST("/commissions/approve", s.ApproveCommissions)
	admin.POST("/invoices/subscription", s.GenerateSubscriptionInvoice)
	admin.POST("/invoices/service", s.GenerateServiceInvoice)
	admin.POST("/invoices/:id/pay", s.PayInvoice)
	admin.POST("/invoices/mark-overdue", s.MarkInvoicesOverdue)
}
