// internal/services/lifecycle_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/models"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

type LifecycleTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *LifecycleService

	clock time.Time

	importer      *models.User
	exporter      *models.User
	bankMaker     *models.User
	bankChecker   *models.User
	funderMaker   *models.User
	funderChecker *models.User
}

func (s *LifecycleTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.clock = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	s.service = NewLifecycleService(s.db, NewRoleAuthority(s.db), NewNumberingService(s.db), nil)
	s.service.SetClock(func() time.Time { return s.clock })

	s.importer = createTestUser(s.T(), s.db, models.RoleImporter, "Pacific Imports Ltd", "First Trade Bank")
	s.exporter = createTestUser(s.T(), s.db, models.RoleExporter, "Mekong Exports Co", "Delta Commerce Bank")
	s.bankMaker = createTestUser(s.T(), s.db, models.RoleBankMaker, "First Trade Bank", "First Trade Bank")
	s.bankChecker = createTestUser(s.T(), s.db, models.RoleBankChecker, "First Trade Bank", "First Trade Bank")
	s.funderMaker = createTestUser(s.T(), s.db, models.RoleFunderMaker, "Horizon Capital", "")
	s.funderChecker = createTestUser(s.T(), s.db, models.RoleFunderChecker, "Horizon Capital", "")
}

func (s *LifecycleTestSuite) createPTT() *models.PTTRequest {
	ptt, err := s.service.Create(&CreatePTTRequest{
		ActorID:      s.importer.ID,
		Amount:       500000,
		Currency:     "USD",
		MaturityDays: 60,
		Incoterms:    "FOB",
		ExporterID:   &s.exporter.ID,
		ExporterBank: s.exporter.BankName,
	})
	s.Require().NoError(err)
	return ptt
}

// issuePTT walks a fresh PTT through the issuance stage.
func (s *LifecycleTestSuite) issuePTT() *models.PTTRequest {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)

	issued, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	return issued
}

func (s *LifecycleTestSuite) transferPTT() *models.PTTRequest {
	ptt := s.issuePTT()
	transferred, err := s.service.Transfer(ptt.ID, &TransferRequest{ActorID: s.importer.ID})
	s.Require().NoError(err)
	return transferred
}

func (s *LifecycleTestSuite) uploadDocuments(id uuid.UUID) *models.PTTRequest {
	ptt, err := s.service.UploadDocuments(id, &UploadDocumentsRequest{
		ActorID: s.exporter.ID,
		Documents: []DocumentRef{
			{Name: "commercial-invoice.pdf", URL: "https://docs.example.com/ci.pdf"},
			{Name: "bill-of-lading.pdf", URL: "https://docs.example.com/bl.pdf"},
		},
	})
	s.Require().NoError(err)
	return ptt
}

func (s *LifecycleTestSuite) approveDocuments(id uuid.UUID) *models.PTTRequest {
	ptt, err := s.service.ReviewDocuments(id, &ReviewDocumentsRequest{ActorID: s.importer.ID, Action: ActionApprove})
	s.Require().NoError(err)
	return ptt
}

func (s *LifecycleTestSuite) offerForDiscount(id uuid.UUID, pct float64) *models.PTTRequest {
	ptt, err := s.service.OfferDiscount(id, &OfferDiscountRequest{ActorID: s.exporter.ID, DiscountPercentage: pct})
	s.Require().NoError(err)
	return ptt
}

func (s *LifecycleTestSuite) discountPTT() *models.PTTRequest {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)
	s.offerForDiscount(ptt.ID, 2.5)

	_, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)

	discounted, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	return discounted
}

// Create

func (s *LifecycleTestSuite) TestCreate() {
	ptt := s.createPTT()

	s.Equal("PTT-202503-0001", ptt.PTTNumber)
	s.Equal(models.PTTStatusPending, ptt.Status)
	s.Equal(s.importer.ID, ptt.ImporterID)
	// The importer bank is copied from the creating user's profile.
	s.Equal("First Trade Bank", ptt.ImporterBank)
	s.Equal("FOB", ptt.Incoterms)
	s.True(ptt.RequestedAt.Equal(s.clock))
	s.Nil(ptt.IssueDate)
	s.Nil(ptt.MaturityDate)

	second := s.createPTT()
	s.Equal("PTT-202503-0002", second.PTTNumber)
}

func (s *LifecycleTestSuite) TestCreateRejectsInvalidInput() {
	_, err := s.service.Create(&CreatePTTRequest{
		ActorID:      s.importer.ID,
		Amount:       -5,
		Currency:     "usd",
		MaturityDays: 60,
		Incoterms:    "FOB",
	})
	s.True(apperrors.Is(err, apperrors.KindInvalidInput))
}

func (s *LifecycleTestSuite) TestCreateRequiresImporterRole() {
	_, err := s.service.Create(&CreatePTTRequest{
		ActorID:      s.exporter.ID,
		Amount:       500000,
		Currency:     "USD",
		MaturityDays: 60,
		Incoterms:    "FOB",
	})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

func (s *LifecycleTestSuite) TestCreateUnknownActor() {
	_, err := s.service.Create(&CreatePTTRequest{
		ActorID:      uuid.New(),
		Amount:       500000,
		Currency:     "USD",
		MaturityDays: 60,
		Incoterms:    "FOB",
	})
	s.True(apperrors.Is(err, apperrors.KindNotFound))
}

// Issuance

func (s *LifecycleTestSuite) TestIssuanceDualControl() {
	ptt := s.createPTT()

	approved, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusMakerApproved, approved.Status)
	s.Equal(s.bankMaker.ID, *approved.MakerApprovedBy)
	s.NotNil(approved.MakerApprovedAt)

	issued, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusIssued, issued.Status)
	s.Equal(s.bankChecker.ID, *issued.CheckerApprovedBy)
	s.Require().NotNil(issued.IssueDate)
	s.Require().NotNil(issued.MaturityDate)
	// 60 calendar days from issuance.
	s.True(issued.MaturityDate.Equal(issued.IssueDate.AddDate(0, 0, 60)))
}

func (s *LifecycleTestSuite) TestIssuanceAcceptsFunderBackOffice() {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.funderMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)

	issued, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.funderChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusIssued, issued.Status)
}

func (s *LifecycleTestSuite) TestCheckerCannotApproveBeforeMaker() {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "must be in maker_approved status")
}

func (s *LifecycleTestSuite) TestMakerApproveTwice() {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)

	_, err = s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "currently maker_approved")
}

func (s *LifecycleTestSuite) TestApproveRejectsWrongRole() {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.importer.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

func (s *LifecycleTestSuite) TestApproveRejectsSuspendedActor() {
	ptt := s.createPTT()

	s.Require().NoError(s.db.Model(s.bankMaker).Update("status", models.UserStatusSuspended).Error)

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
	s.Contains(err.Error(), "suspended")
}

func (s *LifecycleTestSuite) TestApproveRejectsUnknownAction() {
	ptt := s.createPTT()

	_, err := s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: "sign_off"})
	s.True(apperrors.Is(err, apperrors.KindInvalidInput))
}

// Transfer

func (s *LifecycleTestSuite) TestTransfer() {
	ptt := s.issuePTT()

	transferred, err := s.service.Transfer(ptt.ID, &TransferRequest{ActorID: s.importer.ID})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusTransferred, transferred.Status)
	s.Equal(s.importer.ID, *transferred.TransferredBy)
	s.NotNil(transferred.TransferredAt)
}

func (s *LifecycleTestSuite) TestTransferOnlyByImporter() {
	ptt := s.issuePTT()

	_, err := s.service.Transfer(ptt.ID, &TransferRequest{ActorID: s.exporter.ID})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

func (s *LifecycleTestSuite) TestTransferRequiresIssuedStatus() {
	ptt := s.createPTT()

	_, err := s.service.Transfer(ptt.ID, &TransferRequest{ActorID: s.importer.ID})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
}

func (s *LifecycleTestSuite) TestTransferRequiresExporter() {
	ptt, err := s.service.Create(&CreatePTTRequest{
		ActorID:      s.importer.ID,
		Amount:       500000,
		Currency:     "USD",
		MaturityDays: 60,
		Incoterms:    "FOB",
	})
	s.Require().NoError(err)

	_, err = s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)
	_, err = s.service.Approve(ptt.ID, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)

	_, err = s.service.Transfer(ptt.ID, &TransferRequest{ActorID: s.importer.ID})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "exporter")
}

// Documents

func (s *LifecycleTestSuite) TestUploadDocuments() {
	ptt := s.transferPTT()

	uploaded := s.uploadDocuments(ptt.ID)
	s.Equal(models.PTTStatusDocumentsUploaded, uploaded.Status)
	s.Equal(models.StringList{"commercial-invoice.pdf", "bill-of-lading.pdf"}, uploaded.DocumentNames)
	s.Equal(models.StringList{"https://docs.example.com/ci.pdf", "https://docs.example.com/bl.pdf"}, uploaded.DocumentURLs)
	s.NotNil(uploaded.DocumentsUploadedAt)
}

func (s *LifecycleTestSuite) TestUploadDocumentsOnlyByExporter() {
	ptt := s.transferPTT()

	_, err := s.service.UploadDocuments(ptt.ID, &UploadDocumentsRequest{
		ActorID:   s.importer.ID,
		Documents: []DocumentRef{{Name: "ci.pdf", URL: "https://docs.example.com/ci.pdf"}},
	})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

func (s *LifecycleTestSuite) TestUploadDocumentsRequiresAtLeastOne() {
	ptt := s.transferPTT()

	_, err := s.service.UploadDocuments(ptt.ID, &UploadDocumentsRequest{ActorID: s.exporter.ID})
	s.True(apperrors.Is(err, apperrors.KindInvalidInput))
}

func (s *LifecycleTestSuite) TestReviewDocumentsApprove() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)

	approved := s.approveDocuments(ptt.ID)
	s.Equal(models.PTTStatusDocumentsApproved, approved.Status)
	s.NotNil(approved.DocumentsApprovedAt)
}

func (s *LifecycleTestSuite) TestReviewDocumentsReject() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)

	rejected, err := s.service.ReviewDocuments(ptt.ID, &ReviewDocumentsRequest{
		ActorID: s.importer.ID,
		Action:  ActionReject,
		// No reason supplied, the default applies.
	})
	s.Require().NoError(err)

	// Rollback to transferred clears the upload so the exporter starts over.
	s.Equal(models.PTTStatusTransferred, rejected.Status)
	s.Nil(rejected.DocumentNames)
	s.Nil(rejected.DocumentURLs)
	s.Nil(rejected.DocumentsUploadedAt)
	s.Equal("Documents rejected by importer", rejected.DocumentRejectionReason)

	// A second review on the rolled-back record is refused.
	_, err = s.service.ReviewDocuments(ptt.ID, &ReviewDocumentsRequest{ActorID: s.importer.ID, Action: ActionApprove})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))

	// The exporter can re-upload after the rollback.
	reuploaded := s.uploadDocuments(ptt.ID)
	s.Equal(models.PTTStatusDocumentsUploaded, reuploaded.Status)
}

func (s *LifecycleTestSuite) TestReviewDocumentsOnlyByImporter() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)

	_, err := s.service.ReviewDocuments(ptt.ID, &ReviewDocumentsRequest{ActorID: s.exporter.ID, Action: ActionApprove})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

// Discounting

func (s *LifecycleTestSuite) TestOfferDiscount() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)

	offered := s.offerForDiscount(ptt.ID, 2.5)
	s.Equal(models.PTTStatusOfferedForDiscount, offered.Status)
	s.Equal(2.5, *offered.DiscountPercentage)
	s.NotNil(offered.OfferedForDiscountAt)
}

func (s *LifecycleTestSuite) TestOfferDiscountValidatesPercentage() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)

	for _, pct := range []float64{0, -1, 100.01} {
		_, err := s.service.OfferDiscount(ptt.ID, &OfferDiscountRequest{ActorID: s.exporter.ID, DiscountPercentage: pct})
		s.True(apperrors.Is(err, apperrors.KindInvalidInput), "percentage %v", pct)
	}
}

func (s *LifecycleTestSuite) TestAcceptDiscountDualControl() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)
	s.offerForDiscount(ptt.ID, 2.5)

	approved, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusDiscountMakerApproved, approved.Status)
	s.Equal(s.funderMaker.ID, *approved.DiscountMakerApprovedBy)

	discounted, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusDiscounted, discounted.Status)
	s.Equal(s.funderChecker.ID, *discounted.DiscountCheckerApprovedBy)
	// Legacy columns track the checker approval.
	s.Equal(s.funderChecker.ID, *discounted.DiscountedBy)
	s.NotNil(discounted.DiscountedAt)
}

func (s *LifecycleTestSuite) TestAcceptDiscountRejectsBankRoles() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)
	s.offerForDiscount(ptt.ID, 2.5)

	_, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

func (s *LifecycleTestSuite) TestRejectDiscountFromOffered() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)
	s.offerForDiscount(ptt.ID, 2.5)

	rejected, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{
		ActorID:         s.funderMaker.ID,
		Action:          ActionReject,
		RejectionReason: "Rate too low for current book",
	})
	s.Require().NoError(err)

	s.Equal(models.PTTStatusDocumentsApproved, rejected.Status)
	s.Nil(rejected.DiscountPercentage)
	s.Nil(rejected.OfferedForDiscountAt)
	s.Equal("Rate too low for current book", rejected.DiscountRejectionReason)

	// The exporter may offer again at a new rate.
	reoffered := s.offerForDiscount(ptt.ID, 3.2)
	s.Equal(3.2, *reoffered.DiscountPercentage)
}

func (s *LifecycleTestSuite) TestRejectDiscountAfterMakerApproval() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)
	s.offerForDiscount(ptt.ID, 2.5)

	_, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)

	// The checker overrules the maker; the maker approval is wiped with the
	// offer.
	rejected, err := s.service.AcceptDiscount(ptt.ID, &DiscountDecisionRequest{ActorID: s.funderChecker.ID, Action: ActionReject})
	s.Require().NoError(err)

	s.Equal(models.PTTStatusDocumentsApproved, rejected.Status)
	s.Nil(rejected.DiscountMakerApprovedBy)
	s.Nil(rejected.DiscountMakerApprovedAt)
	s.Equal("Offer rejected by funder", rejected.DiscountRejectionReason)
}

// Settlement

func (s *LifecycleTestSuite) TestSettlementBeforeMaturity() {
	ptt := s.discountPTT()

	_, err := s.service.Settle(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "maturity")
}

func (s *LifecycleTestSuite) TestSettlementDualControl() {
	ptt := s.discountPTT()

	// Jump to the maturity day itself; date-level comparison admits it.
	s.clock = *ptt.MaturityDate

	approved, err := s.service.Settle(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusSettlementMakerApproved, approved.Status)
	s.Equal(s.bankMaker.ID, *approved.SettlementMakerApprovedBy)

	settled, err := s.service.Settle(ptt.ID, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
	s.Equal(models.PTTStatusSettled, settled.Status)
	s.Equal(s.bankChecker.ID, *settled.SettlementCheckerApprovedBy)
	s.NotNil(settled.SettledAt)

	// Settled is terminal.
	_, err = s.service.Settle(ptt.ID, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
}

func (s *LifecycleTestSuite) TestSettlementRequiresBankRoles() {
	ptt := s.discountPTT()
	s.clock = ptt.MaturityDate.AddDate(0, 0, 1)

	_, err := s.service.Settle(ptt.ID, &ApprovalRequest{ActorID: s.funderMaker.ID, Action: ActionMakerApprove})
	s.True(apperrors.Is(err, apperrors.KindForbidden))
}

// Concurrency

func (s *LifecycleTestSuite) TestConflictingTransitionsExactlyOneWinner() {
	ptt := s.createPTT()

	// Two makers who both observed the record in pending race the
	// conditional update; the write whose status predicate no longer holds
	// matches zero rows.
	winner := map[string]interface{}{
		"status":            models.PTTStatusMakerApproved,
		"maker_approved_by": s.bankMaker.ID,
		"maker_approved_at": s.clock,
	}
	updated, err := s.service.applyTransition(ptt.ID, winner, models.PTTStatusPending)
	s.Require().NoError(err)
	s.Equal(models.PTTStatusMakerApproved, updated.Status)

	loser := map[string]interface{}{
		"status":            models.PTTStatusMakerApproved,
		"maker_approved_by": s.funderMaker.ID,
		"maker_approved_at": s.clock,
	}
	_, err = s.service.applyTransition(ptt.ID, loser, models.PTTStatusPending)
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "currently maker_approved")

	// The losing write left the winner's fields untouched.
	reloaded, err := s.service.load(ptt.ID)
	s.Require().NoError(err)
	s.Equal(models.PTTStatusMakerApproved, reloaded.Status)
	s.Equal(s.bankMaker.ID, *reloaded.MakerApprovedBy)
}

func (s *LifecycleTestSuite) TestLostRaceNamesFullStatusSet() {
	ptt := s.transferPTT()
	s.uploadDocuments(ptt.ID)
	s.approveDocuments(ptt.ID)

	// A rejection that raced a completed rejection reports every status it
	// would have accepted, not just the first.
	_, err := s.service.applyTransition(ptt.ID, map[string]interface{}{
		"status": models.PTTStatusDocumentsApproved,
	}, models.PTTStatusOfferedForDiscount, models.PTTStatusDiscountMakerApproved)
	s.True(apperrors.Is(err, apperrors.KindInvalidState))
	s.Contains(err.Error(), "must be in offered_for_discount or discount_maker_approved status")
	s.Contains(err.Error(), "currently documents_approved")
}

// Reads

func (s *LifecycleTestSuite) TestGetDerivedValues() {
	ptt := s.discountPTT()

	details, err := s.service.Get(ptt.ID)
	s.Require().NoError(err)

	s.Require().NotNil(details.Derived.PurchasePrice)
	s.InDelta(487500, *details.Derived.PurchasePrice, 0.01)
	s.Require().NotNil(details.Derived.DiscountAmount)
	s.InDelta(12500, *details.Derived.DiscountAmount, 0.01)
	s.Require().NotNil(details.Derived.DaysToMaturity)
	s.Equal(60, *details.Derived.DaysToMaturity)
	s.Require().NotNil(details.Derived.Matured)
	s.False(*details.Derived.Matured)
}

func (s *LifecycleTestSuite) TestGetNotFound() {
	_, err := s.service.Get(uuid.New())
	s.True(apperrors.Is(err, apperrors.KindNotFound))
}

func (s *LifecycleTestSuite) TestList() {
	first := s.createPTT()
	s.issueByNumber(first.ID)

	s.createPTT()

	page := utils.PaginationParams{Page: 1, Limit: 20, Sort: "requested_at", Order: "desc"}

	items, total, err := s.service.List(ListPTTParams{PaginationParams: page})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(items, 2)
	// Counterparty profiles are joined onto each row.
	s.Require().NotNil(items[0].Importer)
	s.Equal("Pacific Imports Ltd", items[0].Importer.CompanyName)
	s.Require().NotNil(items[0].Exporter)
	s.Equal("Mekong Exports Co", items[0].Exporter.CompanyName)

	items, total, err = s.service.List(ListPTTParams{PaginationParams: page, Status: string(models.PTTStatusIssued)})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(items, 1)
	s.Equal(first.ID, items[0].ID)

	items, total, err = s.service.List(ListPTTParams{PaginationParams: page, ImporterBank: "No Such Bank"})
	s.Require().NoError(err)
	s.Equal(int64(0), total)
	s.Empty(items)
}

func (s *LifecycleTestSuite) issueByNumber(id uuid.UUID) {
	_, err := s.service.Approve(id, &ApprovalRequest{ActorID: s.bankMaker.ID, Action: ActionMakerApprove})
	s.Require().NoError(err)
	_, err = s.service.Approve(id, &ApprovalRequest{ActorID: s.bankChecker.ID, Action: ActionCheckerApprove})
	s.Require().NoError(err)
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}
