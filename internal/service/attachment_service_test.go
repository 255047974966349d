package service_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/service"
	"farmbooks/mocks"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func uploadInput(invoiceID uuid.UUID, name string, content []byte) service.AttachmentUploadInput {
	return service.AttachmentUploadInput{
		InvoiceID:  invoiceID,
		UploadedBy: uuid.New(),
		File:       memFile{bytes.NewReader(content)},
		Header: &multipart.FileHeader{
			Filename: name,
			Size:     int64(len(content)),
		},
	}
}

type attachmentFixture struct {
	attachments *mocks.MockAttachmentRepo
	invoices    *mocks.MockInvoiceRepo
	storage     *mocks.MockBlobStore
	svc         service.AttachmentService
}

func newAttachmentFixture() *attachmentFixture {
	f := &attachmentFixture{
		attachments: new(mocks.MockAttachmentRepo),
		invoices:    new(mocks.MockInvoiceRepo),
		storage:     new(mocks.MockBlobStore),
	}
	f.svc = service.NewAttachmentService(f.attachments, f.invoices, f.storage, &config.S3Config{
		Bucket:        "farmbooks-attachments",
		MaxFileSizeMB: 1,
		PresignExpiry: 900,
	})
	return f
}

func pdfContent() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj")
}

func TestUploadStoresAttachment(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	input := uploadInput(invoiceID, "scan.pdf", pdfContent())

	f.invoices.On("GetByID", mock.Anything, invoiceID).
		Return(&domain.InvoiceRecord{ID: invoiceID}, nil)
	f.attachments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Attachment")).Return(nil)
	f.storage.On("Put", mock.Anything, mock.AnythingOfType("port.PutInput")).Return(nil)
	f.attachments.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.AttachmentStatusUploaded).Return(nil)

	att, err := f.svc.Upload(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, invoiceID, att.InvoiceID)
	assert.Equal(t, "scan.pdf", att.OriginalName)
	assert.Equal(t, domain.FileTypePDF, att.FileType)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, domain.AttachmentStatusUploaded, att.Status)
	assert.Contains(t, att.S3Key, "invoices/"+invoiceID.String()+"/attachments/")
	f.storage.AssertExpectations(t)
}

func TestUploadRejectsUnknownInvoice(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	f.invoices.On("GetByID", mock.Anything, invoiceID).Return(nil, domain.ErrInvoiceNotFound)

	_, err := f.svc.Upload(context.Background(), uploadInput(invoiceID, "scan.pdf", pdfContent()))

	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	f.invoices.On("GetByID", mock.Anything, invoiceID).
		Return(&domain.InvoiceRecord{ID: invoiceID}, nil)

	_, err := f.svc.Upload(context.Background(), uploadInput(invoiceID, "invoice.exe", pdfContent()))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.attachments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadRejectsMismatchedContent(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	f.invoices.On("GetByID", mock.Anything, invoiceID).
		Return(&domain.InvoiceRecord{ID: invoiceID}, nil)

	// Extension claims PDF, content is plain text.
	_, err := f.svc.Upload(context.Background(), uploadInput(invoiceID, "scan.pdf", []byte("hello world")))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	f.invoices.On("GetByID", mock.Anything, invoiceID).
		Return(&domain.InvoiceRecord{ID: invoiceID}, nil)

	input := uploadInput(invoiceID, "scan.pdf", pdfContent())
	input.Header.Size = 2 * 1024 * 1024

	_, err := f.svc.Upload(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestUploadMarksFailedOnStorageError(t *testing.T) {
	f := newAttachmentFixture()
	invoiceID := uuid.New()
	f.invoices.On("GetByID", mock.Anything, invoiceID).
		Return(&domain.InvoiceRecord{ID: invoiceID}, nil)
	f.attachments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("Put", mock.Anything, mock.Anything).Return(domain.ErrUploadFailed)
	f.attachments.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.AttachmentStatusFailed).Return(nil)

	_, err := f.svc.Upload(context.Background(), uploadInput(invoiceID, "scan.pdf", pdfContent()))

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.attachments.AssertCalled(t, "UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.AttachmentStatusFailed)
}

func TestGetDownloadURLPresigns(t *testing.T) {
	f := newAttachmentFixture()
	att := &domain.Attachment{
		ID:       uuid.New(),
		S3Bucket: "farmbooks-attachments",
		S3Key:    "invoices/x/attachments/y/scan.pdf",
	}

	f.attachments.On("GetByID", mock.Anything, att.ID).Return(att, nil)
	f.storage.On("PresignGet", mock.Anything, att.S3Key, 900*time.Second).
		Return("https://s3.example.com/presigned", nil)

	url, err := f.svc.GetDownloadURL(context.Background(), att.ID)

	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/presigned", url)
}

func TestDeleteRemovesObjectThenMetadata(t *testing.T) {
	f := newAttachmentFixture()
	att := &domain.Attachment{ID: uuid.New(), S3Bucket: "farmbooks-attachments", S3Key: "k"}
	actor := uuid.New()

	f.attachments.On("GetByID", mock.Anything, att.ID).Return(att, nil)
	f.storage.On("Remove", mock.Anything, att.S3Key).Return(nil)
	f.attachments.On("SoftDelete", mock.Anything, att.ID, actor).Return(nil)

	err := f.svc.Delete(context.Background(), att.ID, actor)

	require.NoError(t, err)
	f.attachments.AssertExpectations(t)
}
