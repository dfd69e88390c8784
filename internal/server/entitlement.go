package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/woofdesk/woofdesk/internal/entitlement/domain"
)

func (s *Server) CheckEntitlement(c *gin.Context) {
	feature := strings.TrimSpace(c.Param("feature"))

	check, err := s.entitlementSvc.CheckAccess(c.Request.Context(), currentUserID(c), feature)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outcome := "allowed"
	if !check.HasAccess {
		outcome = "denied"
	}
	s.metrics.EntitlementChecks.WithLabelValues(feature, outcome).Inc()

	c.JSON(http.StatusOK, check)
}

func (s *Server) ConsumeEntitlement(c *gin.Context) {
	feature := strings.TrimSpace(c.Param("feature"))

	result, err := s.entitlementSvc.Consume(c.Request.Context(), currentUserID(c), feature)
	if err != nil {
		var quotaErr *entitlementdomain.QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.metrics.QuotaDenials.WithLabelValues(quotaErr.Feature, quotaErr.Tier).Inc()
		}
		AbortWithError(c, err)
		return
	}

	s.metrics.EntitlementChecks.WithLabelValues(feature, "consumed").Inc()
	c.JSON(http.StatusOK, result)
}
