package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// AttachmentUploadInput is the DTO for attachment upload requests.
type AttachmentUploadInput struct {
	InvoiceID  uuid.UUID
	UploadedBy uuid.UUID
	File       multipart.File
	Header     *multipart.FileHeader
}

// AttachmentService defines the invoice attachment contract.
type AttachmentService interface {
	Upload(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Attachment, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type attachmentService struct {
	attachments port.AttachmentRepository
	invoices    port.InvoiceRepository
	storage     port.BlobStore
	cfg         *config.S3Config
}

// NewAttachmentService creates a new AttachmentService implementation.
func NewAttachmentService(
	attachments port.AttachmentRepository,
	invoices port.InvoiceRepository,
	storage port.BlobStore,
	cfg *config.S3Config,
) AttachmentService {
	return &attachmentService{
		attachments: attachments,
		invoices:    invoices,
		storage:     storage,
		cfg:         cfg,
	}
}

func (s *attachmentService) Upload(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error) {
	if _, err := s.invoices.GetByID(ctx, input.InvoiceID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte check: the declared extension must agree with the content.
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, validContent := domain.AllowedContentTypes[detectedType]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	attachmentID := uuid.New()
	s3Key := fmt.Sprintf("invoices/%s/attachments/%s/%s", input.InvoiceID, attachmentID, input.Header.Filename)
	contentType := domain.AllowedFileTypes[fileType]

	att := &domain.Attachment{
		ID:           attachmentID,
		InvoiceID:    input.InvoiceID,
		FileName:     attachmentID.String() + "." + ext,
		OriginalName: input.Header.Filename,
		FileType:     fileType,
		FileSize:     input.Header.Size,
		S3Bucket:     s.cfg.Bucket,
		S3Key:        s3Key,
		ContentType:  contentType,
		Status:       domain.AttachmentStatusPending,
		UploadedBy:   input.UploadedBy,
	}
	by := input.UploadedBy
	att.Touch(time.Now().UTC(), &by)

	log.Printf("attachmentService.Upload: uploading %s (%s, %d bytes) for invoice %s by user %s",
		input.Header.Filename, contentType, input.Header.Size, input.InvoiceID, input.UploadedBy)

	if err := s.attachments.Create(ctx, att); err != nil {
		log.Printf("attachmentService.Upload: failed to create metadata: %v", err)
		return nil, fmt.Errorf("creating attachment metadata: %w", err)
	}

	err = s.storage.Put(ctx, port.PutInput{
		Key:         s3Key,
		Body:        input.File,
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("attachmentService.Upload: S3 upload failed for %s: %v", att.ID, err)
		_ = s.attachments.UpdateStatus(ctx, att.ID, domain.AttachmentStatusFailed)
		return nil, domain.ErrUploadFailed
	}

	if err := s.attachments.UpdateStatus(ctx, att.ID, domain.AttachmentStatusUploaded); err != nil {
		return nil, fmt.Errorf("updating attachment status: %w", err)
	}
	att.Status = domain.AttachmentStatusUploaded

	return att, nil
}

func (s *attachmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	return s.attachments.GetByID(ctx, id)
}

func (s *attachmentService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Attachment, error) {
	return s.attachments.ListByInvoice(ctx, invoiceID)
}

func (s *attachmentService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	att, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.PresignGet(ctx, att.S3Key, time.Duration(s.cfg.PresignExpiry)*time.Second)
}

func (s *attachmentService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	att, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Remove(ctx, att.S3Key); err != nil {
		log.Printf("attachmentService.Delete: failed to delete from S3: %v", err)
		return fmt.Errorf("deleting from storage: %w", err)
	}

	return s.attachments.SoftDelete(ctx, id, userID)
}
