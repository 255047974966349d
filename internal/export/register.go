// Package export renders the invoice register as an Excel workbook for
// handoff to external accountants.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"farmbooks/internal/domain"
)

const sheetName = "Invoice register"

var headers = []string{
	"KSeF number", "Invoice number", "Issue date",
	"Seller NIP", "Seller name", "Buyer NIP", "Buyer name",
	"Direction", "Document type",
	"Currency", "Net", "VAT", "Gross",
	"Status", "Module", "Payment status", "Needs triage",
}

// WriteRegister renders the given invoices as an xlsx workbook, one row per
// invoice, ordered as passed in.
func WriteRegister(invoices []domain.InvoiceRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("export.WriteRegister: header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("export.WriteRegister: header: %w", err)
		}
	}

	for i, inv := range invoices {
		row := i + 2
		net, _ := inv.NetAmount.Float64()
		vat, _ := inv.VATAmount.Float64()
		gross, _ := inv.GrossAmount.Float64()

		values := []interface{}{
			inv.KSeFNumber, inv.InvoiceNumber, inv.IssueDate.Format("2006-01-02"),
			inv.SellerNIP, inv.SellerName, inv.BuyerNIP, inv.BuyerName,
			string(inv.Direction), string(inv.DocumentType),
			inv.Currency, net, vat, gross,
			string(inv.Status), string(inv.Module), string(inv.PaymentStatus), inv.NeedsTriage,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("export.WriteRegister: cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("export.WriteRegister: row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export.WriteRegister: write: %w", err)
	}
	return buf, nil
}
