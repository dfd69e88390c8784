// Package migration creates the schema on startup so the service is
// usable out of the box for local and self-hosted environments.
package migration

import (
	"errors"

	appointmentdomain "github.com/woofdesk/woofdesk/internal/appointment/domain"
	auditdomain "github.com/woofdesk/woofdesk/internal/audit/domain"
	commissiondomain "github.com/woofdesk/woofdesk/internal/commission/domain"
	creditdomain "github.com/woofdesk/woofdesk/internal/credit/domain"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
	ledgerdomain "github.com/woofdesk/woofdesk/internal/ledger/domain"
	subscriptiondomain "github.com/woofdesk/woofdesk/internal/subscription/domain"
	usagedomain "github.com/woofdesk/woofdesk/internal/usage/domain"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&subscriptiondomain.Subscription{},
		&usagedomain.FeatureUsage{},
		&creditdomain.CreditBalance{},
		&appointmentdomain.Appointment{},
		&commissiondomain.CommissionEarning{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceSequence{},
		&ledgerdomain.Account{},
		&ledgerdomain.Entry{},
		&ledgerdomain.EntryLine{},
		&auditdomain.AuditLog{},
	}
}

func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(Models()...)
}
