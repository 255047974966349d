package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrDuplicateInvoice    = errors.New("invoice with this KSeF number already exists")
	ErrRunNotFound         = errors.New("synchronization run not found")
	ErrRunInProgress       = errors.New("a synchronization run is already in progress")
	ErrRuleNotFound        = errors.New("assignment rule not found")
	ErrInvalidDimension    = errors.New("invalid rule dimension")
	ErrInvalidRuleTarget   = errors.New("rule target does not match its dimension")
	ErrEntityNotFound      = errors.New("business entity not found")
	ErrDuplicateEntityNIP  = errors.New("business entity with this NIP already exists")
	ErrUnknownEntity       = errors.New("invoice matches no registered business entity")
	ErrRelationExists      = errors.New("invoice relation already recorded")
	ErrRelationNotFound    = errors.New("invoice relation not found")
	ErrNotCorrection       = errors.New("invoice is not a correction or credit document")
	ErrLinkingNotPending   = errors.New("invoice has no pending linking decision")
	ErrManualOverride      = errors.New("assignment was set manually and is protected")
	ErrAttachmentNotFound  = errors.New("attachment not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)
