package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
)

type useCreditsRequest struct {
	ConsultationType string `json:"consultation_type" binding:"required"`
}

type purchaseCreditsRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	PaymentID string          `json:"payment_id"`
}

// resolveSubscription loads the caller's subscription and its effective
// tier for credit operations.
func (s *Server) resolveSubscription(c *gin.Context) (subscriptiondomain.Subscription, string, bool) {
	sub, err := s.subscriptionSvc.GetByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return subscriptiondomain.Subscription{}, "", false
	}
	tier := string(sub.EffectiveTier(s.clock.Now()))
	return sub, tier, true
}

func (s *Server) GetCreditBalance(c *gin.Context) {
	sub, tier, ok := s.resolveSubscription(c)
	if !ok {
		return
	}

	balance, err := s.creditSvc.GetBalance(c.Request.Context(), sub.ID, tier)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (s *Server) UseCredits(c *gin.Context) {
	var req useCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sub, tier, ok := s.resolveSubscription(c)
	if !ok {
		return
	}

	consultationType := strings.TrimSpace(req.ConsultationType)
	result, err := s.creditSvc.Debit(c.Request.Context(), sub.ID, tier, consultationType)
	if err != nil {
		outcome := "error"
		if errors.Is(err, creditdomain.ErrInsufficientCredits) {
			outcome = "insufficient"
		}
		s.metrics.CreditDebits.WithLabelValues(consultationType, outcome).Inc()
		AbortWithError(c, err)
		return
	}

	s.metrics.CreditDebits.WithLabelValues(consultationType, "debited").Inc()
	c.JSON(http.StatusOK, result)
}

func (s *Server) PurchaseCredits(c *gin.Context) {
	var req purchaseCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sub, tier, ok := s.resolveSubscription(c)
	if !ok {
		return
	}

	balance, err := s.creditSvc.Credit(c.Request.Context(), sub.ID, tier, req.Amount, req.PaymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}
