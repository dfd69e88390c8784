package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appointmentdomain "github.com/woofdesk/woofdesk/internal/appointment/domain"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	entitlementdomain "github.com/woofdesk/woofdesk/internal/entitlement/domain"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var quotaErr *entitlementdomain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusForbidden, errorPayload{
			Type:    "quota_exceeded",
			Message: "monthly quota exhausted for feature " + quotaErr.Feature,
			Metadata: map[string]any{
				"feature":          quotaErr.Feature,
				"tier":             quotaErr.Tier,
				"limit":            quotaErr.Limit,
				"used":             quotaErr.Used,
				"upgrade_required": true,
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, commissiondomain.ErrDuplicateCommission):
		return http.StatusConflict, errorPayload{
			Type:    "duplicate_commission",
			Message: "a commission for this appointment already exists",
		}
	case errors.Is(err, invoicedomain.ErrAlreadyPaid):
		return http.StatusConflict, errorPayload{
			Type:    "invoice_already_paid",
			Message: "invoice is already fully paid",
		}
	case errors.Is(err, invoicedomain.ErrPaymentConflict):
		return http.StatusConflict, errorPayload{
			Type:    "payment_conflict",
			Message: "a concurrent payment was applied first, retry",
		}
	case errors.Is(err, subscriptiondomain.ErrAlreadySubscribed):
		return http.StatusConflict, errorPayload{
			Type:    "owner_already_subscribed",
			Message: "owner already has a subscription",
		}
	case errors.Is(err, subscriptiondomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_status_transition",
			Message: "subscription cannot move to the requested status",
		}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, entitlementdomain.ErrUnknownFeature),
		errors.Is(err, entitlementdomain.ErrNoSubscription),
		errors.Is(err, creditdomain.ErrInsufficientCredits),
		errors.Is(err, creditdomain.ErrUnknownConsultationType),
		errors.Is(err, creditdomain.ErrInvalidAmount),
		errors.Is(err, commissiondomain.ErrAppointmentNotBillable),
		errors.Is(err, commissiondomain.ErrInvalidPartner),
		errors.Is(err, commissiondomain.ErrInvalidBaseAmount),
		errors.Is(err, commissiondomain.ErrNothingToApprove),
		errors.Is(err, invoicedomain.ErrEmptyInvoice),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, subscriptiondomain.ErrInvalidOwner),
		errors.Is(err, subscriptiondomain.ErrInvalidTier):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, appointmentdomain.ErrAppointmentNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
