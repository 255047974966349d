package domain

// InvoiceStatus represents the lifecycle of an ingested invoice.
type InvoiceStatus string

const (
	InvoiceStatusReceived InvoiceStatus = "received"
	InvoiceStatusAssigned InvoiceStatus = "assigned"
	InvoiceStatusLinked   InvoiceStatus = "linked"
	InvoiceStatusArchived InvoiceStatus = "archived"
	InvoiceStatusRejected InvoiceStatus = "rejected"
)

// InvoiceDirection distinguishes purchases from sales from the point of view
// of the registered business entities.
type InvoiceDirection string

const (
	DirectionIncoming InvoiceDirection = "incoming"
	DirectionOutgoing InvoiceDirection = "outgoing"
)

// InvoiceDocType mirrors the exchange's document type taxonomy.
type InvoiceDocType string

const (
	DocTypeVAT        InvoiceDocType = "VAT"
	DocTypeCorrection InvoiceDocType = "KOR"
	DocTypeAdvance    InvoiceDocType = "ZAL"
	DocTypeAdvanceKOR InvoiceDocType = "KOR_ZAL"
)

// PaymentStatus represents the settlement state of an invoice.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partially_paid"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentType represents the payment method declared on the invoice.
type PaymentType string

const (
	PaymentTypeCash     PaymentType = "cash"
	PaymentTypeCard     PaymentType = "card"
	PaymentTypeTransfer PaymentType = "transfer"
	PaymentTypeOther    PaymentType = "other"
)

// AssignmentSource marks how an assignment dimension got its value.
// Manual values are never overwritten by automatic re-classification.
type AssignmentSource string

const (
	AssignmentSourceNone   AssignmentSource = ""
	AssignmentSourceAuto   AssignmentSource = "auto"
	AssignmentSourceManual AssignmentSource = "manual"
)

// RuleDimension identifies one of the three independent rule collections.
type RuleDimension string

const (
	DimensionUser   RuleDimension = "user"
	DimensionFarm   RuleDimension = "farm"
	DimensionModule RuleDimension = "module"
)

// ValidDimensions lists the accepted rule dimensions.
var ValidDimensions = map[RuleDimension]bool{
	DimensionUser:   true,
	DimensionFarm:   true,
	DimensionModule: true,
}

// ProcessingModule is the bookkeeping module an invoice is routed to.
type ProcessingModule string

const (
	ModuleFeed       ProcessingModule = "feed"
	ModuleProduction ProcessingModule = "production"
	ModuleSales      ProcessingModule = "sales"
	ModulePayroll    ProcessingModule = "payroll"
	ModuleMedia      ProcessingModule = "media"
	ModuleGeneral    ProcessingModule = "general"
)

// RelationType labels a directed invoice-to-invoice relation.
type RelationType string

const (
	RelationCorrectionOf RelationType = "correction_of"
	RelationAdvanceFor   RelationType = "advance_for"
)

// RunStatus represents the state of a synchronization run.
type RunStatus string

const (
	RunStatusRunning             RunStatus = "running"
	RunStatusCompleted           RunStatus = "completed"
	RunStatusCompletedWithErrors RunStatus = "completed_with_errors"
	RunStatusFailed              RunStatus = "failed"
	RunStatusCancelled           RunStatus = "cancelled"
)

// IsTerminal reports whether the run status is a terminal one.
func (s RunStatus) IsTerminal() bool {
	return s != RunStatusRunning
}

// IngestOutcome is the per-document result of the ingestion pipeline.
type IngestOutcome string

const (
	IngestCreated   IngestOutcome = "created"
	IngestDuplicate IngestOutcome = "duplicate"
	IngestRejected  IngestOutcome = "rejected"
)

// UserRole defines the role hierarchy carried in identity tokens.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleBookkeeper UserRole = "bookkeeper"
)

// FileType represents the allowed attachment file types.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// AttachmentStatus represents the lifecycle of an attachment upload.
type AttachmentStatus string

const (
	AttachmentStatusPending  AttachmentStatus = "pending"
	AttachmentStatusUploaded AttachmentStatus = "uploaded"
	AttachmentStatusFailed   AttachmentStatus = "failed"
)
