package parser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/domain"
	"farmbooks/internal/parser"
)

const validDoc = `<?xml version="1.0" encoding="UTF-8"?>
<Faktura>
  <Podmiot1><NIP>123-456-32-18</NIP><Nazwa>ACME Feed Sp. z o.o.</Nazwa></Podmiot1>
  <Podmiot2><NIP>5272445566</NIP><Nazwa>Gospodarstwo Rolne Kowalski</Nazwa></Podmiot2>
  <Fa>
    <KodWaluty>PLN</KodWaluty>
    <P_1>2026-08-12</P_1>
    <P_2>FV/2026/08/0042</P_2>
    <P_13_1>1000.00</P_13_1>
    <P_14_1>230.00</P_14_1>
    <P_15>1230.00</P_15>
    <FaWiersz><P_7>pasza dla drobiu</P_7></FaWiersz>
    <FaWiersz><P_7>transport</P_7></FaWiersz>
    <Platnosc><FormaPlatnosci>6</FormaPlatnosci><Zaplacono>1</Zaplacono></Platnosc>
  </Fa>
</Faktura>`

func TestParseValidDocument(t *testing.T) {
	inv, err := parser.Parse([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, "FV/2026/08/0042", inv.InvoiceNumber)
	assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, "1234563218", inv.SellerNIP)
	assert.Equal(t, "5272445566", inv.BuyerNIP)
	assert.Equal(t, domain.DocTypeVAT, inv.DocumentType)
	assert.Equal(t, "PLN", inv.Currency)
	assert.Equal(t, "1230", inv.GrossAmount.String())
	assert.Equal(t, "1000", inv.NetAmount.String())
	assert.Equal(t, "230", inv.VATAmount.String())
	assert.Equal(t, "pasza dla drobiu\ntransport", inv.LineText)
	assert.Equal(t, domain.PaymentTypeTransfer, inv.PaymentType)
	assert.Equal(t, domain.PaymentStatusPaid, inv.PaymentStatus)
	assert.Equal(t, domain.InvoiceStatusReceived, inv.Status)
	assert.Equal(t, []byte(validDoc), []byte(inv.RawXML))
	assert.Nil(t, inv.OriginalNumber)
	assert.False(t, inv.ExchangeRate.Valid)
}

func TestParseFailsClosedOnMissingMandatoryFields(t *testing.T) {
	cases := []struct {
		name   string
		remove string
		field  string
	}{
		{"seller nip", "<NIP>123-456-32-18</NIP>", "Podmiot1.NIP"},
		{"seller name", "<Nazwa>ACME Feed Sp. z o.o.</Nazwa>", "Podmiot1.Nazwa"},
		{"buyer nip", "<NIP>5272445566</NIP>", "Podmiot2.NIP"},
		{"invoice number", "<P_2>FV/2026/08/0042</P_2>", "Fa.P_2"},
		{"currency", "<KodWaluty>PLN</KodWaluty>", "Fa.KodWaluty"},
		{"issue date", "<P_1>2026-08-12</P_1>", "Fa.P_1"},
		{"gross amount", "<P_15>1230.00</P_15>", "Fa.P_15"},
		{"net amount", "<P_13_1>1000.00</P_13_1>", "Fa.P_13_1"},
		{"vat amount", "<P_14_1>230.00</P_14_1>", "Fa.P_14_1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(validDoc, tc.remove, "", 1)
			inv, err := parser.Parse([]byte(doc))

			assert.Nil(t, inv)
			var verr *parser.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestParseMalformedXML(t *testing.T) {
	inv, err := parser.Parse([]byte("<Faktura><Podmiot1>"))

	assert.Nil(t, inv)
	var verr *parser.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "document", verr.Field)
}

func TestParseMalformedAmount(t *testing.T) {
	doc := strings.Replace(validDoc, "<P_15>1230.00</P_15>", "<P_15>1,230.00</P_15>", 1)
	_, err := parser.Parse([]byte(doc))

	var verr *parser.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Fa.P_15", verr.Field)
	assert.Equal(t, "malformed amount", verr.Reason)
}

func TestParseCorrectionRequiresOriginalReference(t *testing.T) {
	doc := strings.Replace(validDoc, "<P_15>1230.00</P_15>",
		"<P_15>1230.00</P_15><RodzajFaktury>KOR</RodzajFaktury>", 1)
	_, err := parser.Parse([]byte(doc))

	var verr *parser.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Fa.DaneFaKorygowanej", verr.Field)

	doc = strings.Replace(doc, "</Fa>",
		"<DaneFaKorygowanej><NrFaKorygowanej>FV/2026/07/0031</NrFaKorygowanej></DaneFaKorygowanej></Fa>", 1)
	inv, err := parser.Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeCorrection, inv.DocumentType)
	require.NotNil(t, inv.OriginalNumber)
	assert.Equal(t, "FV/2026/07/0031", *inv.OriginalNumber)
}

func TestParseUnknownDocumentTypeRejected(t *testing.T) {
	doc := strings.Replace(validDoc, "<P_15>1230.00</P_15>",
		"<P_15>1230.00</P_15><RodzajFaktury>PRO</RodzajFaktury>", 1)
	_, err := parser.Parse([]byte(doc))

	var verr *parser.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Fa.RodzajFaktury", verr.Field)
}

func TestParsePaymentFormCodes(t *testing.T) {
	cases := map[string]domain.PaymentType{
		"1":  domain.PaymentTypeCash,
		"2":  domain.PaymentTypeCard,
		"6":  domain.PaymentTypeTransfer,
		"9":  domain.PaymentTypeOther,
		"":   domain.PaymentTypeOther,
	}
	for code, want := range cases {
		doc := strings.Replace(validDoc, "<FormaPlatnosci>6</FormaPlatnosci>",
			"<FormaPlatnosci>"+code+"</FormaPlatnosci>", 1)
		inv, err := parser.Parse([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, want, inv.PaymentType, "code %q", code)
	}
}

func TestParseUnpaidWithoutPaymentBlock(t *testing.T) {
	doc := strings.Replace(validDoc,
		"<Platnosc><FormaPlatnosci>6</FormaPlatnosci><Zaplacono>1</Zaplacono></Platnosc>", "", 1)
	inv, err := parser.Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusUnpaid, inv.PaymentStatus)
	assert.Equal(t, domain.PaymentTypeOther, inv.PaymentType)
}

func TestParseOriginalCurrencyBlock(t *testing.T) {
	full := strings.Replace(validDoc, "</Fa>",
		`<KursWaluty>4.2517</KursWaluty>
  <KwotyOryginalne><KodWaluty>EUR</KodWaluty><P_13>235.20</P_13><P_14>54.10</P_14><P_15>289.30</P_15></KwotyOryginalne></Fa>`, 1)
	inv, err := parser.Parse([]byte(full))
	require.NoError(t, err)

	require.NotNil(t, inv.OriginalCurrency)
	assert.Equal(t, "EUR", *inv.OriginalCurrency)
	assert.True(t, inv.ExchangeRate.Valid)
	assert.Equal(t, "4.2517", inv.ExchangeRate.Decimal.String())
	assert.True(t, inv.OriginalGross.Valid)
	assert.Equal(t, "289.3", inv.OriginalGross.Decimal.String())

	// A half-formed original block rejects the whole document.
	half := strings.Replace(full, "<P_14>54.10</P_14>", "", 1)
	_, err = parser.Parse([]byte(half))
	var verr *parser.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "KwotyOryginalne.P_14", verr.Field)
}
