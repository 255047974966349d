// Package parser turns raw exchange invoice XML into an InvoiceRecord draft.
// Parsing fails closed: any missing mandatory field or malformed value yields
// a ValidationError and no partially populated draft.
package parser

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"farmbooks/internal/domain"
)

// faDocument is the subset of the FA invoice schema this system consumes.
type faDocument struct {
	XMLName xml.Name `xml:"Faktura"`
	Seller  faParty  `xml:"Podmiot1"`
	Buyer   faParty  `xml:"Podmiot2"`
	Body    faBody   `xml:"Fa"`
}

type faParty struct {
	NIP  string `xml:"NIP"`
	Name string `xml:"Nazwa"`
}

type faBody struct {
	Currency      string      `xml:"KodWaluty"`
	IssueDate     string      `xml:"P_1"`
	Number        string      `xml:"P_2"`
	Net           string      `xml:"P_13_1"`
	VAT           string      `xml:"P_14_1"`
	Gross         string      `xml:"P_15"`
	DocType       string      `xml:"RodzajFaktury"`
	ExchangeRate  string      `xml:"KursWaluty"`
	Original      *faOriginal `xml:"KwotyOryginalne"`
	Corrected     *faKOR      `xml:"DaneFaKorygowanej"`
	Lines         []faLine    `xml:"FaWiersz"`
	Payment       *faPayment  `xml:"Platnosc"`
}

type faOriginal struct {
	Currency string `xml:"KodWaluty"`
	Net      string `xml:"P_13"`
	VAT      string `xml:"P_14"`
	Gross    string `xml:"P_15"`
}

type faKOR struct {
	OriginalNumber string `xml:"NrFaKorygowanej"`
}

type faLine struct {
	Description string `xml:"P_7"`
}

type faPayment struct {
	Form string `xml:"FormaPlatnosci"`
	Paid string `xml:"Zaplacono"`
}

// ValidationError describes a document-level rejection.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid invoice document: " + e.Field + ": " + e.Reason
}

// Parse decodes raw invoice XML into an InvoiceRecord draft. The draft has no
// id, direction, business entity, or assignment state; those are resolved by
// the ingestion pipeline. The raw document is preserved verbatim.
func Parse(raw []byte) (*domain.InvoiceRecord, error) {
	var doc faDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Field: "document", Reason: "malformed XML: " + err.Error()}
	}

	if doc.Seller.NIP == "" {
		return nil, &ValidationError{Field: "Podmiot1.NIP", Reason: "missing seller tax id"}
	}
	if doc.Seller.Name == "" {
		return nil, &ValidationError{Field: "Podmiot1.Nazwa", Reason: "missing seller name"}
	}
	if doc.Buyer.NIP == "" {
		return nil, &ValidationError{Field: "Podmiot2.NIP", Reason: "missing buyer tax id"}
	}
	if doc.Body.Number == "" {
		return nil, &ValidationError{Field: "Fa.P_2", Reason: "missing invoice number"}
	}
	if doc.Body.Currency == "" {
		return nil, &ValidationError{Field: "Fa.KodWaluty", Reason: "missing currency"}
	}

	issueDate, err := time.Parse("2006-01-02", doc.Body.IssueDate)
	if err != nil {
		return nil, &ValidationError{Field: "Fa.P_1", Reason: "missing or malformed issue date"}
	}

	gross, err := parseAmount(doc.Body.Gross, "Fa.P_15")
	if err != nil {
		return nil, err
	}
	net, err := parseAmount(doc.Body.Net, "Fa.P_13_1")
	if err != nil {
		return nil, err
	}
	vat, err := parseAmount(doc.Body.VAT, "Fa.P_14_1")
	if err != nil {
		return nil, err
	}

	docType, err := parseDocType(doc.Body.DocType)
	if err != nil {
		return nil, err
	}

	inv := &domain.InvoiceRecord{
		InvoiceNumber: doc.Body.Number,
		IssueDate:     issueDate,
		SellerNIP:     normalizeNIP(doc.Seller.NIP),
		SellerName:    doc.Seller.Name,
		BuyerNIP:      normalizeNIP(doc.Buyer.NIP),
		BuyerName:     doc.Buyer.Name,
		DocumentType:  docType,
		Currency:      doc.Body.Currency,
		GrossAmount:   gross,
		NetAmount:     net,
		VATAmount:     vat,
		LineText:      joinLines(doc.Body.Lines),
		RawXML:        raw,
		Status:        domain.InvoiceStatusReceived,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PaymentType:   domain.PaymentTypeOther,
	}

	if doc.Body.Corrected != nil && doc.Body.Corrected.OriginalNumber != "" {
		n := doc.Body.Corrected.OriginalNumber
		inv.OriginalNumber = &n
	}
	if docType == domain.DocTypeCorrection && inv.OriginalNumber == nil {
		return nil, &ValidationError{Field: "Fa.DaneFaKorygowanej", Reason: "correction without original document reference"}
	}

	// Original-currency block is pass-through data; it is copied verbatim
	// when present and well-formed, and rejected when half-formed.
	if doc.Body.ExchangeRate != "" {
		rate, err := parseAmount(doc.Body.ExchangeRate, "Fa.KursWaluty")
		if err != nil {
			return nil, err
		}
		inv.ExchangeRate = decimal.NewNullDecimal(rate)
	}
	if o := doc.Body.Original; o != nil {
		if o.Currency == "" {
			return nil, &ValidationError{Field: "KwotyOryginalne.KodWaluty", Reason: "missing original currency"}
		}
		og, err := parseAmount(o.Gross, "KwotyOryginalne.P_15")
		if err != nil {
			return nil, err
		}
		on, err := parseAmount(o.Net, "KwotyOryginalne.P_13")
		if err != nil {
			return nil, err
		}
		ov, err := parseAmount(o.VAT, "KwotyOryginalne.P_14")
		if err != nil {
			return nil, err
		}
		cur := o.Currency
		inv.OriginalCurrency = &cur
		inv.OriginalGross = decimal.NewNullDecimal(og)
		inv.OriginalNet = decimal.NewNullDecimal(on)
		inv.OriginalVAT = decimal.NewNullDecimal(ov)
	}

	if p := doc.Body.Payment; p != nil {
		inv.PaymentType = paymentForm(p.Form)
		if p.Paid == "1" {
			inv.PaymentStatus = domain.PaymentStatusPaid
		}
	}

	return inv, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: "missing amount"}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: field, Reason: "malformed amount"}
	}
	return d, nil
}

func parseDocType(s string) (domain.InvoiceDocType, error) {
	switch domain.InvoiceDocType(s) {
	case domain.DocTypeVAT, domain.DocTypeCorrection, domain.DocTypeAdvance, domain.DocTypeAdvanceKOR:
		return domain.InvoiceDocType(s), nil
	case "":
		return domain.DocTypeVAT, nil
	}
	return "", &ValidationError{Field: "Fa.RodzajFaktury", Reason: "unknown document type " + s}
}

// paymentForm maps the exchange's numeric payment form codes.
func paymentForm(code string) domain.PaymentType {
	switch code {
	case "1":
		return domain.PaymentTypeCash
	case "2":
		return domain.PaymentTypeCard
	case "6":
		return domain.PaymentTypeTransfer
	}
	return domain.PaymentTypeOther
}

func joinLines(lines []faLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Description != "" {
			parts = append(parts, l.Description)
		}
	}
	return strings.Join(parts, "\n")
}

func normalizeNIP(nip string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, nip)
}
