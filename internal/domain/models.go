package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BusinessEntity is a registered tax entity of the farm operation. Invoices
// pulled from the exchange are attributed to the entity whose NIP appears as
// buyer (incoming) or seller (outgoing).
type BusinessEntity struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	NIP      string    `db:"nip" json:"nip"`
	IsActive bool      `db:"is_active" json:"is_active"`
	Lifecycle
}

// InvoiceRecord is one row per externally issued invoice. The KSeF number is
// assigned by the exchange, globally unique, and immutable; it is the
// idempotency key for ingestion.
type InvoiceRecord struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	KSeFNumber    string           `db:"ksef_number" json:"ksef_number"`
	InvoiceNumber string           `db:"invoice_number" json:"invoice_number"`
	IssueDate     time.Time        `db:"issue_date" json:"issue_date"`
	SellerNIP     string           `db:"seller_nip" json:"seller_nip"`
	SellerName    string           `db:"seller_name" json:"seller_name"`
	BuyerNIP      string           `db:"buyer_nip" json:"buyer_nip"`
	BuyerName     string           `db:"buyer_name" json:"buyer_name"`
	Direction     InvoiceDirection `db:"direction" json:"direction"`
	DocumentType  InvoiceDocType   `db:"document_type" json:"document_type"`

	Currency    string          `db:"currency" json:"currency"`
	GrossAmount decimal.Decimal `db:"gross_amount" json:"gross_amount"`
	NetAmount   decimal.Decimal `db:"net_amount" json:"net_amount"`
	VATAmount   decimal.Decimal `db:"vat_amount" json:"vat_amount"`

	// Original-currency amounts are opaque pass-through data for downstream
	// reporting; no conversion is performed on them.
	OriginalCurrency *string             `db:"original_currency" json:"original_currency,omitempty"`
	OriginalGross    decimal.NullDecimal `db:"original_gross" json:"original_gross,omitempty"`
	OriginalNet      decimal.NullDecimal `db:"original_net" json:"original_net,omitempty"`
	OriginalVAT      decimal.NullDecimal `db:"original_vat" json:"original_vat,omitempty"`
	ExchangeRate     decimal.NullDecimal `db:"exchange_rate" json:"exchange_rate,omitempty"`

	// LineText is the concatenated free text of the invoice lines, kept for
	// keyword matching and search.
	LineText string `db:"line_text" json:"line_text"`
	// RawXML is the verbatim source document, immutable once stored.
	RawXML []byte `db:"raw_xml" json:"-"`

	Status        InvoiceStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentType   PaymentType   `db:"payment_type" json:"payment_type"`

	BusinessEntityID uuid.UUID `db:"business_entity_id" json:"business_entity_id"`

	AssignedUserID     *uuid.UUID       `db:"assigned_user_id" json:"assigned_user_id,omitempty"`
	AssignedUserSource AssignmentSource `db:"assigned_user_source" json:"assigned_user_source"`
	AssignedUserRuleID *uuid.UUID       `db:"assigned_user_rule_id" json:"assigned_user_rule_id,omitempty"`

	FarmIDs    UUIDList         `db:"farm_ids" json:"farm_ids"`
	FarmSource AssignmentSource `db:"farm_source" json:"farm_source"`
	FarmRuleID *uuid.UUID       `db:"farm_rule_id" json:"farm_rule_id,omitempty"`

	Module       ProcessingModule `db:"module" json:"module"`
	ModuleSource AssignmentSource `db:"module_source" json:"module_source"`
	ModuleRuleID *uuid.UUID       `db:"module_rule_id" json:"module_rule_id,omitempty"`

	// NeedsTriage is set when at least one dimension resolved to no rule.
	NeedsTriage bool `db:"needs_triage" json:"needs_triage"`

	RequiresLinking bool       `db:"requires_linking" json:"requires_linking"`
	LinkingAccepted bool       `db:"linking_accepted" json:"linking_accepted"`
	ReminderCount   int        `db:"reminder_count" json:"reminder_count"`
	LastReminderAt  *time.Time `db:"last_reminder_at" json:"last_reminder_at,omitempty"`
	// OriginalNumber is the document number of the invoice this one corrects,
	// as referenced by the source document.
	OriginalNumber *string `db:"original_number" json:"original_number,omitempty"`

	Lifecycle
}

// SearchableText returns the lowercase text rules match keywords against:
// seller name, buyer name, invoice number, and line free text.
func (inv *InvoiceRecord) SearchableText() string {
	return strings.ToLower(strings.Join([]string{
		inv.SellerName, inv.BuyerName, inv.InvoiceNumber, inv.LineText,
	}, "\n"))
}

// CounterpartyNIP returns the tax id of the other party of the invoice.
func (inv *InvoiceRecord) CounterpartyNIP() string {
	if inv.Direction == DirectionIncoming {
		return inv.SellerNIP
	}
	return inv.BuyerNIP
}

// IsCorrection reports whether the document amends a prior invoice, either by
// its declared type or by a negative gross amount (credit note).
func (inv *InvoiceRecord) IsCorrection() bool {
	switch inv.DocumentType {
	case DocTypeCorrection, DocTypeAdvanceKOR:
		return true
	}
	return inv.GrossAmount.IsNegative()
}

// AssignmentRule is one entry in a priority-ordered rule collection. The
// three dimensions share this shape; only the target fields differ.
type AssignmentRule struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	Dimension RuleDimension `db:"dimension" json:"dimension"`
	Name      string        `db:"name" json:"name"`
	// Priority orders evaluation, lower first. Ties are broken by creation
	// order; uniqueness is not required.
	Priority        int        `db:"priority" json:"priority"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	IncludeKeywords StringList `db:"include_keywords" json:"include_keywords"`
	ExcludeKeywords StringList `db:"exclude_keywords" json:"exclude_keywords"`

	// Optional scope filters. When set, the invoice must match exactly.
	BusinessEntityID *uuid.UUID        `db:"business_entity_id" json:"business_entity_id,omitempty"`
	Direction        *InvoiceDirection `db:"direction" json:"direction,omitempty"`

	// Dimension-specific target: exactly one of the three is populated.
	AssignedUserID *uuid.UUID       `db:"assigned_user_id" json:"assigned_user_id,omitempty"`
	TargetFarmIDs  UUIDList         `db:"target_farm_ids" json:"target_farm_ids"`
	TargetModule   ProcessingModule `db:"target_module" json:"target_module"`

	Lifecycle
}

// SyncRun is one row per coordinator invocation and the unit of operational
// visibility for synchronization health.
type SyncRun struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Status      RunStatus  `db:"status" json:"status"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	DurationMS  *int64     `db:"duration_ms" json:"duration_ms,omitempty"`

	Fetched   int `db:"fetched" json:"fetched"`
	Persisted int `db:"persisted" json:"persisted"`
	Errored   int `db:"errored" json:"errored"`

	ErrorSummary string     `db:"error_summary" json:"error_summary"`
	Manual       bool       `db:"manual" json:"manual"`
	TriggeredBy  *uuid.UUID `db:"triggered_by" json:"triggered_by,omitempty"`

	Lifecycle
}

// InvoiceRelation is a directed edge between two invoices. The ordered pair
// (source, target) is unique; recording it twice is an idempotent no-op.
type InvoiceRelation struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	SourceInvoiceID uuid.UUID    `db:"source_invoice_id" json:"source_invoice_id"`
	TargetInvoiceID uuid.UUID    `db:"target_invoice_id" json:"target_invoice_id"`
	RelationType    RelationType `db:"relation_type" json:"relation_type"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	CreatedBy       *uuid.UUID   `db:"created_by" json:"created_by,omitempty"`
}

// AuditLogEntry is an immutable record of one status transition on an
// invoice. Entries are append-only and never updated or deleted.
type AuditLogEntry struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	InvoiceID  uuid.UUID     `db:"invoice_id" json:"invoice_id"`
	PrevStatus InvoiceStatus `db:"prev_status" json:"prev_status"`
	NewStatus  InvoiceStatus `db:"new_status" json:"new_status"`
	UserID     *uuid.UUID    `db:"user_id" json:"user_id,omitempty"`
	Comment    string        `db:"comment" json:"comment"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Attachment is a supplementary file bound to one invoice; only metadata is
// stored here, the binary lives in object storage.
type Attachment struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	InvoiceID    uuid.UUID        `db:"invoice_id" json:"invoice_id"`
	FileName     string           `db:"file_name" json:"file_name"`
	OriginalName string           `db:"original_name" json:"original_name"`
	FileType     FileType         `db:"file_type" json:"file_type"`
	FileSize     int64            `db:"file_size" json:"file_size"`
	S3Bucket     string           `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string           `db:"s3_key" json:"s3_key"`
	ContentType  string           `db:"content_type" json:"content_type"`
	Status       AttachmentStatus `db:"status" json:"status"`
	UploadedBy   uuid.UUID        `db:"uploaded_by" json:"uploaded_by"`
	Lifecycle
}
