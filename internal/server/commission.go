package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
)

type reconcileRequest struct {
	BatchSize int `json:"batch_size"`
}

type approveCommissionsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (s *Server) RecordAppointmentCommission(c *gin.Context) {
	resp, err := s.commissionSvc.RecordAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.CommissionsCreated.WithLabelValues(string(resp.CommissionType)).Inc()
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) RecordManualCommission(c *gin.Context) {
	var req commissiondomain.ManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.commissionSvc.RecordManual(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.CommissionsCreated.WithLabelValues(string(resp.CommissionType)).Inc()
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ReconcileCommissions(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.commissionSvc.BulkReconcile(c.Request.Context(), req.BatchSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ApproveCommissions(c *gin.Context) {
	var req approveCommissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	approved, err := s.commissionSvc.Approve(c.Request.Context(), req.IDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"approved_count": approved})
}
