package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
	"farmbooks/internal/service"
	"farmbooks/mocks"
)

type linkingFixture struct {
	invoices  *mocks.MockInvoiceRepo
	relations *mocks.MockRelationRepo
	audit     *mocks.MockAuditRepo
	directory *mocks.MockIdentityDirectory
	notifier  *mocks.MockReminderNotifier
	fallback  port.UserRef
	svc       service.LinkingService
}

func newLinkingFixture() *linkingFixture {
	f := &linkingFixture{
		invoices:  new(mocks.MockInvoiceRepo),
		relations: new(mocks.MockRelationRepo),
		audit:     new(mocks.MockAuditRepo),
		directory: new(mocks.MockIdentityDirectory),
		notifier:  new(mocks.MockReminderNotifier),
		fallback:  port.UserRef{Email: "office@example.com", Name: "Office"},
	}
	f.svc = service.NewLinkingService(f.invoices, f.relations, f.audit, f.directory, f.notifier, f.fallback)
	return f
}

func correction(originalNumber string) *domain.InvoiceRecord {
	n := originalNumber
	inv := &domain.InvoiceRecord{
		ID:            uuid.New(),
		KSeFNumber:    "KSEF-KOR-0001",
		InvoiceNumber: "FK/2026/08/0007",
		SellerNIP:     "1234563218",
		BuyerNIP:      "5272445566",
		Direction:     domain.DirectionIncoming,
		DocumentType:  domain.DocTypeCorrection,
		Status:        domain.InvoiceStatusAssigned,
		GrossAmount:   decimal.NewFromInt(-200),
	}
	if n != "" {
		inv.OriginalNumber = &n
	}
	return inv
}

func TestEvaluateLinkingIgnoresNonCorrections(t *testing.T) {
	f := newLinkingFixture()
	inv := &domain.InvoiceRecord{
		ID:           uuid.New(),
		DocumentType: domain.DocTypeVAT,
		GrossAmount:  decimal.NewFromInt(1230),
	}

	err := f.svc.EvaluateLinking(context.Background(), inv)

	require.NoError(t, err)
	assert.False(t, inv.RequiresLinking)
	f.invoices.AssertNotCalled(t, "UpdateLinking", mock.Anything, mock.Anything)
}

func TestEvaluateLinkingAutoLinksSingleMatch(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	original := domain.InvoiceRecord{ID: uuid.New(), InvoiceNumber: "FV/2026/07/0031"}

	f.invoices.On("FindByOriginalNumber", mock.Anything, "1234563218", "FV/2026/07/0031", inv.ID).
		Return([]domain.InvoiceRecord{original}, nil)
	f.relations.On("Create", mock.Anything, mock.AnythingOfType("*domain.InvoiceRelation")).Return(nil)
	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)
	f.audit.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	err := f.svc.EvaluateLinking(context.Background(), inv)

	require.NoError(t, err)
	assert.False(t, inv.RequiresLinking)
	assert.True(t, inv.LinkingAccepted)
	assert.Equal(t, domain.InvoiceStatusLinked, inv.Status)

	rel := f.relations.Calls[0].Arguments.Get(1).(*domain.InvoiceRelation)
	assert.Equal(t, inv.ID, rel.SourceInvoiceID)
	assert.Equal(t, original.ID, rel.TargetInvoiceID)
	assert.Equal(t, domain.RelationCorrectionOf, rel.RelationType)

	entry := f.audit.Calls[0].Arguments.Get(1).(*domain.AuditLogEntry)
	assert.Equal(t, domain.InvoiceStatusAssigned, entry.PrevStatus)
	assert.Equal(t, domain.InvoiceStatusLinked, entry.NewStatus)
}

func TestEvaluateLinkingFlagsAmbiguousMatch(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")

	f.invoices.On("FindByOriginalNumber", mock.Anything, "1234563218", "FV/2026/07/0031", inv.ID).
		Return([]domain.InvoiceRecord{{ID: uuid.New()}, {ID: uuid.New()}}, nil)
	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)

	err := f.svc.EvaluateLinking(context.Background(), inv)

	require.NoError(t, err)
	assert.True(t, inv.RequiresLinking)
	assert.False(t, inv.LinkingAccepted)
	assert.Equal(t, domain.InvoiceStatusAssigned, inv.Status)
	f.relations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEvaluateLinkingFlagsWhenNoOriginalReference(t *testing.T) {
	f := newLinkingFixture()
	// A credit note recognized by negative gross alone has no reference to
	// match against.
	inv := correction("")
	inv.DocumentType = domain.DocTypeVAT

	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)

	err := f.svc.EvaluateLinking(context.Background(), inv)

	require.NoError(t, err)
	assert.True(t, inv.RequiresLinking)
	f.invoices.AssertNotCalled(t, "FindByOriginalNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmLinksPendingCorrection(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = true
	target := &domain.InvoiceRecord{ID: uuid.New()}
	userID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	f.relations.On("Create", mock.Anything, mock.AnythingOfType("*domain.InvoiceRelation")).Return(nil)
	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)
	f.audit.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	linked, err := f.svc.Confirm(context.Background(), inv.ID, target.ID, &userID)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusLinked, linked.Status)
	assert.False(t, linked.RequiresLinking)
	assert.True(t, linked.LinkingAccepted)
	assert.Equal(t, &userID, linked.UpdatedBy)
}

func TestConfirmToleratesExistingRelation(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = true
	target := &domain.InvoiceRecord{ID: uuid.New()}

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	f.relations.On("Create", mock.Anything, mock.Anything).Return(domain.ErrRelationExists)
	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	linked, err := f.svc.Confirm(context.Background(), inv.ID, target.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusLinked, linked.Status)
}

func TestConfirmRejectsNonPendingInvoice(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = false

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)

	_, err := f.svc.Confirm(context.Background(), inv.ID, uuid.New(), nil)

	assert.ErrorIs(t, err, domain.ErrLinkingNotPending)
	f.relations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestConfirmRejectsUnknownTarget(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = true
	targetID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("GetByID", mock.Anything, targetID).Return(nil, domain.ErrInvoiceNotFound)

	_, err := f.svc.Confirm(context.Background(), inv.ID, targetID, nil)

	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestDismissSettlesWithoutRelation(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = true
	userID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoices.On("UpdateLinking", mock.Anything, inv).Return(nil)
	f.audit.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	dismissed, err := f.svc.Dismiss(context.Background(), inv.ID, &userID)

	require.NoError(t, err)
	assert.False(t, dismissed.RequiresLinking)
	assert.True(t, dismissed.LinkingAccepted)
	// Dismissal settles the flag without touching the lifecycle status.
	assert.Equal(t, domain.InvoiceStatusAssigned, dismissed.Status)
	f.relations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	entry := f.audit.Calls[0].Arguments.Get(1).(*domain.AuditLogEntry)
	assert.Equal(t, entry.PrevStatus, entry.NewStatus)
	assert.Equal(t, "linking requirement dismissed", entry.Comment)
}

func TestDismissRejectsNonPendingInvoice(t *testing.T) {
	f := newLinkingFixture()
	inv := correction("FV/2026/07/0031")
	inv.RequiresLinking = true
	inv.LinkingAccepted = true

	f.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)

	_, err := f.svc.Dismiss(context.Background(), inv.ID, nil)

	assert.ErrorIs(t, err, domain.ErrLinkingNotPending)
}

func TestReminderPassGroupsByAssignedUser(t *testing.T) {
	f := newLinkingFixture()
	userID := uuid.New()
	ref := &port.UserRef{ID: userID, Email: "anna@example.com", Name: "Anna"}

	assigned := *correction("FV/1")
	assigned.AssignedUserID = &userID
	other := *correction("FV/2")
	other.ID = uuid.New()

	f.invoices.On("ListRequiringLinking", mock.Anything, 0, 200).
		Return([]domain.InvoiceRecord{assigned, other}, 2, nil)
	f.directory.On("Lookup", mock.Anything, userID).Return(ref, nil)
	f.notifier.On("SendLinkingReminder", mock.Anything, *ref, mock.AnythingOfType("[]domain.InvoiceRecord")).Return(nil)
	f.notifier.On("SendLinkingReminder", mock.Anything, f.fallback, mock.AnythingOfType("[]domain.InvoiceRecord")).Return(nil)
	f.invoices.On("MarkReminded", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)

	reminded, err := f.svc.ReminderPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, reminded)
	f.notifier.AssertNumberOfCalls(t, "SendLinkingReminder", 2)
	f.invoices.AssertNumberOfCalls(t, "MarkReminded", 2)
}

func TestReminderPassRemindsAgainOnNextPass(t *testing.T) {
	f := newLinkingFixture()
	userID := uuid.New()
	ref := &port.UserRef{ID: userID, Email: "anna@example.com", Name: "Anna"}

	pending := *correction("FV/1")
	pending.AssignedUserID = &userID

	// Still unlinked on the next pass, so the invoice is reminded again.
	f.invoices.On("ListRequiringLinking", mock.Anything, 0, 200).
		Return([]domain.InvoiceRecord{pending}, 1, nil)
	f.directory.On("Lookup", mock.Anything, userID).Return(ref, nil)
	f.notifier.On("SendLinkingReminder", mock.Anything, *ref, mock.AnythingOfType("[]domain.InvoiceRecord")).Return(nil)
	f.invoices.On("MarkReminded", mock.Anything, pending.ID, mock.AnythingOfType("time.Time")).Return(nil)

	for pass := 0; pass < 2; pass++ {
		reminded, err := f.svc.ReminderPass(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, reminded)
	}

	f.notifier.AssertNumberOfCalls(t, "SendLinkingReminder", 2)
	f.invoices.AssertNumberOfCalls(t, "MarkReminded", 2)
}

func TestReminderPassRoutesUnknownUsersToFallback(t *testing.T) {
	f := newLinkingFixture()
	userID := uuid.New()

	orphaned := *correction("FV/1")
	orphaned.AssignedUserID = &userID

	f.invoices.On("ListRequiringLinking", mock.Anything, 0, 200).
		Return([]domain.InvoiceRecord{orphaned}, 1, nil)
	f.directory.On("Lookup", mock.Anything, userID).Return(nil, domain.ErrNotFound)
	f.notifier.On("SendLinkingReminder", mock.Anything, f.fallback, mock.AnythingOfType("[]domain.InvoiceRecord")).Return(nil)
	f.invoices.On("MarkReminded", mock.Anything, orphaned.ID, mock.AnythingOfType("time.Time")).Return(nil)

	reminded, err := f.svc.ReminderPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, reminded)
}

func TestReminderPassSkipsMarkOnSendFailure(t *testing.T) {
	f := newLinkingFixture()
	pending := *correction("FV/1")

	f.invoices.On("ListRequiringLinking", mock.Anything, 0, 200).
		Return([]domain.InvoiceRecord{pending}, 1, nil)
	f.notifier.On("SendLinkingReminder", mock.Anything, f.fallback, mock.Anything).
		Return(errors.New("smtp unavailable"))

	reminded, err := f.svc.ReminderPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, reminded)
	f.invoices.AssertNotCalled(t, "MarkReminded", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderPassNothingPending(t *testing.T) {
	f := newLinkingFixture()
	f.invoices.On("ListRequiringLinking", mock.Anything, 0, 200).
		Return([]domain.InvoiceRecord{}, 0, nil)

	reminded, err := f.svc.ReminderPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, reminded)
	f.notifier.AssertNotCalled(t, "SendLinkingReminder", mock.Anything, mock.Anything, mock.Anything)
}
