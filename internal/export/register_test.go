package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"farmbooks/internal/domain"
	"farmbooks/internal/export"
)

func TestWriteRegister(t *testing.T) {
	invoices := []domain.InvoiceRecord{
		{
			KSeFNumber:    "KSEF-2026-0001",
			InvoiceNumber: "FV/2026/08/0042",
			IssueDate:     time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
			SellerNIP:     "1234563218",
			SellerName:    "ACME Feed Sp. z o.o.",
			BuyerNIP:      "5272445566",
			BuyerName:     "Gospodarstwo Rolne Kowalski",
			Direction:     domain.DirectionIncoming,
			DocumentType:  domain.DocTypeVAT,
			Currency:      "PLN",
			NetAmount:     decimal.RequireFromString("1000.00"),
			VATAmount:     decimal.RequireFromString("230.00"),
			GrossAmount:   decimal.RequireFromString("1230.00"),
			Status:        domain.InvoiceStatusAssigned,
			Module:        domain.ModuleFeed,
			PaymentStatus: domain.PaymentStatusPaid,
		},
		{
			KSeFNumber:    "KSEF-2026-0002",
			InvoiceNumber: "FK/2026/08/0007",
			IssueDate:     time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
			Direction:     domain.DirectionIncoming,
			DocumentType:  domain.DocTypeCorrection,
			Currency:      "PLN",
			GrossAmount:   decimal.RequireFromString("-200.00"),
			Status:        domain.InvoiceStatusReceived,
			NeedsTriage:   true,
		},
	}

	buf, err := export.WriteRegister(invoices)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows("Invoice register")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "KSeF number", rows[0][0])
	assert.Equal(t, "Gross", rows[0][12])

	assert.Equal(t, "KSEF-2026-0001", rows[1][0])
	assert.Equal(t, "2026-08-12", rows[1][2])
	assert.Equal(t, "1230", rows[1][12])
	assert.Equal(t, "assigned", rows[1][13])

	assert.Equal(t, "KSEF-2026-0002", rows[2][0])
	assert.Equal(t, "-200", rows[2][12])
	assert.Equal(t, "TRUE", rows[2][16])
}

func TestWriteRegisterEmpty(t *testing.T) {
	buf, err := export.WriteRegister(nil)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows("Invoice register")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
