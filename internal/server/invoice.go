package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
)

type invoiceResponse struct {
	Invoice   *invoicedomain.Invoice           `json:"invoice"`
	LineItems []invoicedomain.InvoiceLineItem  `json:"line_items"`
}

type subscriptionInvoiceRequest struct {
	SubscriptionID string    `json:"subscription_id" binding:"required"`
	PeriodStart    time.Time `json:"period_start" binding:"required"`
	PeriodEnd      time.Time `json:"period_end" binding:"required"`
}

type serviceInvoiceRequest struct {
	UserID string                          `json:"user_id" binding:"required"`
	Items  []invoicedomain.LineItemInput   `json:"items" binding:"required"`
}

type payInvoiceRequest struct {
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	PaymentRef string          `json:"payment_ref"`
}

func (s *Server) GetInvoice(c *gin.Context) {
	invoice, items, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoiceResponse{Invoice: invoice, LineItems: items})
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	invoice, items, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.invoiceRenderer.RenderInvoice(c.Request.Context(), invoice, items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+invoice.InvoiceNumber+`.pdf"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, doc)
}

func (s *Server) GenerateSubscriptionInvoice(c *gin.Context) {
	var req subscriptionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.GenerateForSubscription(c.Request.Context(), req.SubscriptionID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.InvoicesGenerated.Inc()
	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) GenerateServiceInvoice(c *gin.Context) {
	var req serviceInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.GenerateForService(c.Request.Context(), req.UserID, req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.InvoicesGenerated.Inc()
	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) PayInvoice(c *gin.Context) {
	var req payInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.MarkPaid(c.Request.Context(), c.Param("id"), req.Amount, req.PaymentRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) MarkInvoicesOverdue(c *gin.Context) {
	flipped, err := s.invoiceSvc.MarkOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_overdue": flipped})
}
