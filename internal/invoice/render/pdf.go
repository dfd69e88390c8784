// Package render produces printable GST invoices.
package render

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/woofdesk/woofdesk/internal/invoice/domain"
)

const (
	sellerName    = "WoofDesk Technologies Pvt Ltd"
	sellerAddress = "Bengaluru, Karnataka, India"
	sellerGSTIN   = "GSTIN: 29AAACW0000A1Z5"
	dateLayout    = "02 Jan 2006"
)

// Renderer turns an invoice and its lines into a PDF document.
type Renderer interface {
	RenderInvoice(ctx context.Context, invoice *invoicedomain.Invoice, items []invoicedomain.InvoiceLineItem) (io.Reader, error)
}

type pdfRenderer struct{}

func NewPDF() Renderer {
	return &pdfRenderer{}
}

func (r *pdfRenderer) RenderInvoice(ctx context.Context, invoice *invoicedomain.Invoice, items []invoicedomain.InvoiceLineItem) (io.Reader, error) {
	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New(sellerName, props.Text{Style: fontstyle.Bold}),
			text.New(sellerAddress, props.Text{Top: 5}),
			text.New(sellerGSTIN, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssueDate.UTC().Format(dateLayout), props.Text{Top: 5}),
			text.New("Due date: "+invoice.DueDate.UTC().Format(dateLayout), props.Text{Top: 10}),
			text.New("Status: "+string(invoice.Status), props.Text{Top: 15}),
		),
	)

	if invoice.PeriodStart != nil && invoice.PeriodEnd != nil {
		m.AddRow(8,
			text.NewCol(12, "Service period: "+invoice.PeriodStart.UTC().Format(dateLayout)+" to "+invoice.PeriodEnd.UTC().Format(dateLayout), props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "HSN/SAC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "GST", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range items {
		m.AddRow(12,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.HSNCode, props.Text{Size: 9}),
			text.NewCol(1, strconv.FormatInt(item.Quantity, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.LineTotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.GSTAmount.StringFixed(2)+" ("+item.GSTRatePercent.StringFixed(0)+"%)", props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, invoice.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	gstLabel := "GST"
	if len(items) > 0 {
		gstLabel = "GST (" + items[0].GSTRatePercent.StringFixed(0) + "%)"
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, gstLabel, props.Text{Size: 9}),
		text.NewCol(2, invoice.GSTAmount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total ("+invoice.Currency+")", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, invoice.TotalAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	if invoice.PaidAmount.IsPositive() {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Amount paid", props.Text{Size: 9}),
			text.NewCol(2, invoice.PaidAmount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
