package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
)

type createSubscriptionRequest struct {
	Tier      string `json:"tier" binding:"required"`
	TrialDays int    `json:"trial_days"`
}

type changePlanRequest struct {
	Tier string `json:"tier" binding:"required"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateRequest{
		OwnerID:   currentUserID(c),
		Tier:      subscriptiondomain.Tier(req.Tier),
		TrialDays: req.TrialDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetMySubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.GetByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                sub.ID.String(),
		"status":            sub.Status,
		"tier":              sub.Tier,
		"effective_tier":    sub.EffectiveTier(s.clock.Now()),
		"trial_end":         sub.TrialEnd,
		"next_billing_date": sub.NextBillingDate,
		"auto_renew":        sub.AutoRenew,
	})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	if err := s.subscriptionSvc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) PauseSubscription(c *gin.Context) {
	if err := s.subscriptionSvc.Pause(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ResumeSubscription(c *gin.Context) {
	if err := s.subscriptionSvc.Resume(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ChangeSubscriptionPlan(c *gin.Context) {
	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.subscriptionSvc.ChangePlan(c.Request.Context(), subscriptiondomain.ChangePlanRequest{
		SubscriptionID: c.Param("id"),
		Tier:           subscriptiondomain.Tier(req.Tier),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
