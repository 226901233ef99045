// internal/services/lifecycle_service.go
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/database"
	"github.com/tradebridge/ptt-backend/internal/models"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

// Lifecycle actions shared by the approval endpoints.
const (
	ActionMakerApprove   = "maker_approve"
	ActionCheckerApprove = "checker_approve"
	ActionApprove        = "approve"
	ActionReject         = "reject"
)

// LifecycleService is the PTT state machine. Every transition validates the
// actor's role (or ownership), checks the precondition status, computes the
// derived fields, and applies a single conditional update. A lost race shows
// up as zero rows affected and is reported as an invalid-state error.
type LifecycleService struct {
	db        *gorm.DB
	roles     *RoleAuthority
	numbering *NumberingService
	notifier  *NotificationService

	// Clock, injected for deterministic maturity and numbering tests.
	now func() time.Time
}

func NewLifecycleService(db *gorm.DB, roles *RoleAuthority, numbering *NumberingService, notifier *NotificationService) *LifecycleService {
	return &LifecycleService{
		db:        db,
		roles:     roles,
		numbering: numbering,
		notifier:  notifier,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *LifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// Request types

type DocumentRef struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

type CreatePTTRequest struct {
	ActorID      uuid.UUID  `json:"actor_id" validate:"required"`
	Amount       float64    `json:"amount" validate:"required,gt=0"`
	Currency     string     `json:"currency" validate:"required,currency_code"`
	MaturityDays int        `json:"maturity_days" validate:"required,gt=0"`
	Incoterms    string     `json:"incoterms" validate:"required,incoterms"`
	ExporterID   *uuid.UUID `json:"exporter_id,omitempty"`
	ExporterBank string     `json:"exporter_bank,omitempty"`
}

type ApprovalRequest struct {
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
	Action  string    `json:"action" validate:"required"`
}

type TransferRequest struct {
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
}

type UploadDocumentsRequest struct {
	ActorID   uuid.UUID     `json:"actor_id" validate:"required"`
	Documents []DocumentRef `json:"documents" validate:"required,min=1,dive"`
}

type ReviewDocumentsRequest struct {
	ActorID         uuid.UUID `json:"actor_id" validate:"required"`
	Action          string    `json:"action" validate:"required"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

type OfferDiscountRequest struct {
	ActorID            uuid.UUID `json:"actor_id" validate:"required"`
	DiscountPercentage float64   `json:"discount_percentage" validate:"required"`
}

type DiscountDecisionRequest struct {
	ActorID         uuid.UUID `json:"actor_id" validate:"required"`
	Action          string    `json:"action" validate:"required"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

type ListPTTParams struct {
	utils.PaginationParams
	Status       string
	ImporterBank string
}

// DerivedValues are the display numbers computed from the record, never
// stored.
type DerivedValues struct {
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	DiscountAmount *float64 `json:"discount_amount,omitempty"`
	DaysToMaturity *int     `json:"days_to_maturity,omitempty"`
	Matured        *bool    `json:"matured,omitempty"`
}

type PTTDetails struct {
	*models.PTTRequest
	Derived DerivedValues `json:"derived"`
}

type PTTListItem struct {
	models.PTTRequest
	Importer *models.ProfileSummary `json:"importer,omitempty"`
	Exporter *models.ProfileSummary `json:"exporter,omitempty"`
}

// Dual-control stage descriptor. The three approval stages (issuance,
// discounting, settlement) share this shape so the maker/checker discipline
// lives in exactly one code path.
type approvalStage struct {
	name         string
	makerRoles   []models.Role
	checkerRoles []models.Role
	makerFrom    models.PTTStatus
	makerTo      models.PTTStatus
	checkerFrom  models.PTTStatus
	checkerTo    models.PTTStatus
	// makerGuard vetoes a maker approval on conditions beyond the status
	// precondition (settlement requires maturity).
	makerGuard    func(ptt *models.PTTRequest, now time.Time) error
	makerFields   func(actorID uuid.UUID, now time.Time) map[string]interface{}
	checkerFields func(actorID uuid.UUID, now time.Time, ptt *models.PTTRequest) map[string]interface{}
}

var issuanceStage = approvalStage{
	name: "issuance",
	// Both bank and funder back offices may approve issuance.
	makerRoles:   []models.Role{models.RoleBankMaker, models.RoleFunderMaker},
	checkerRoles: []models.Role{models.RoleBankChecker, models.RoleFunderChecker},
	makerFrom:    models.PTTStatusPending,
	makerTo:      models.PTTStatusMakerApproved,
	checkerFrom:  models.PTTStatusMakerApproved,
	checkerTo:    models.PTTStatusIssued,
	makerFields: func(actorID uuid.UUID, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"maker_approved_by": actorID,
			"maker_approved_at": now,
		}
	},
	checkerFields: func(actorID uuid.UUID, now time.Time, ptt *models.PTTRequest) map[string]interface{} {
		return map[string]interface{}{
			"checker_approved_by": actorID,
			"checker_approved_at": now,
			"issue_date":          now,
			"maturity_date":       MaturityDate(now, ptt.MaturityDays),
		}
	},
}

var discountStage = approvalStage{
	name:         "discount",
	makerRoles:   []models.Role{models.RoleFunderMaker},
	checkerRoles: []models.Role{models.RoleFunderChecker},
	makerFrom:    models.PTTStatusOfferedForDiscount,
	makerTo:      models.PTTStatusDiscountMakerApproved,
	checkerFrom:  models.PTTStatusDiscountMakerApproved,
	checkerTo:    models.PTTStatusDiscounted,
	makerFields: func(actorID uuid.UUID, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"discount_maker_approved_by": actorID,
			"discount_maker_approved_at": now,
		}
	},
	checkerFields: func(actorID uuid.UUID, now time.Time, ptt *models.PTTRequest) map[string]interface{} {
		return map[string]interface{}{
			"discount_checker_approved_by": actorID,
			"discount_checker_approved_at": now,
			// Legacy columns older reports still read.
			"discounted_by": actorID,
			"discounted_at": now,
		}
	},
}

var settlementStage = approvalStage{
	name:         "settlement",
	makerRoles:   []models.Role{models.RoleBankMaker},
	checkerRoles: []models.Role{models.RoleBankChecker},
	makerFrom:    models.PTTStatusDiscounted,
	makerTo:      models.PTTStatusSettlementMakerApproved,
	checkerFrom:  models.PTTStatusSettlementMakerApproved,
	checkerTo:    models.PTTStatusSettled,
	makerGuard: func(ptt *models.PTTRequest, now time.Time) error {
		if ptt.MaturityDate == nil {
			return apperrors.InvalidState("PTT has no maturity date")
		}
		if !Matured(*ptt.MaturityDate, now) {
			return apperrors.InvalidState("PTT has not reached maturity yet")
		}
		return nil
	},
	makerFields: func(actorID uuid.UUID, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"settlement_maker_approved_by": actorID,
			"settlement_maker_approved_at": now,
		}
	},
	checkerFields: func(actorID uuid.UUID, now time.Time, ptt *models.PTTRequest) map[string]interface{} {
		return map[string]interface{}{
			"settlement_checker_approved_by": actorID,
			"settlement_checker_approved_at": now,
			"settled_at":                     now,
		}
	},
}

// Create

func (s *LifecycleService) Create(req *CreatePTTRequest) (*models.PTTRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput("invalid PTT request: %v", err)
	}

	importer, err := s.roles.Require(req.ActorID, models.RoleImporter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	createOnce := func() (*models.PTTRequest, error) {
		var record *models.PTTRequest
		err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
			number, err := s.numbering.NextPTTNumber(tx, now)
			if err != nil {
				return err
			}

			record = &models.PTTRequest{
				PTTNumber:    number,
				Amount:       req.Amount,
				Currency:     req.Currency,
				MaturityDays: req.MaturityDays,
				Incoterms:    strings.ToUpper(req.Incoterms),
				Status:       models.PTTStatusPending,
				ImporterID:   req.ActorID,
				ExporterID:   req.ExporterID,
				ImporterBank: importer.BankName,
				ExporterBank: req.ExporterBank,
				RequestedAt:  now,
			}
			return tx.Create(record).Error
		})
		return record, err
	}

	record, err := createOnce()
	if err != nil && IsUniqueViolation(err) {
		// Two importers raced the monthly counter; recompute once.
		record, err = createOnce()
	}
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, apperrors.Conflict("PTT number collision, please retry")
		}
		if _, ok := err.(*apperrors.Error); ok {
			return nil, err
		}
		return nil, apperrors.Internal("failed to create PTT request", err)
	}

	return record, nil
}

// Approval stages

// Approve drives the issuance stage (pending -> maker_approved -> issued).
func (s *LifecycleService) Approve(id uuid.UUID, req *ApprovalRequest) (*models.PTTRequest, error) {
	ptt, err := s.approveStage(issuanceStage, id, req.ActorID, req.Action)
	if err != nil {
		return nil, err
	}
	if ptt.Status == models.PTTStatusIssued && s.notifier != nil {
		go s.notifier.PTTIssued(ptt)
	}
	return ptt, nil
}

// AcceptDiscount drives the discount stage, including the rollback to
// documents_approved on rejection.
func (s *LifecycleService) AcceptDiscount(id uuid.UUID, req *DiscountDecisionRequest) (*models.PTTRequest, error) {
	if req.Action == ActionReject {
		return s.rejectDiscount(id, req)
	}

	ptt, err := s.approveStage(discountStage, id, req.ActorID, req.Action)
	if err != nil {
		return nil, err
	}
	if ptt.Status == models.PTTStatusDiscounted && s.notifier != nil {
		go s.notifier.PTTDiscounted(ptt)
	}
	return ptt, nil
}

// Settle drives the settlement stage. The maker approval additionally
// requires the PTT to have reached maturity.
func (s *LifecycleService) Settle(id uuid.UUID, req *ApprovalRequest) (*models.PTTRequest, error) {
	ptt, err := s.approveStage(settlementStage, id, req.ActorID, req.Action)
	if err != nil {
		return nil, err
	}
	if ptt.Status == models.PTTStatusSettled && s.notifier != nil {
		go s.notifier.PTTSettled(ptt)
	}
	return ptt, nil
}

func (s *LifecycleService) approveStage(stage approvalStage, id uuid.UUID, actorID uuid.UUID, action string) (*models.PTTRequest, error) {
	now := s.now()

	switch action {
	case ActionMakerApprove:
		if _, err := s.roles.Require(actorID, stage.makerRoles...); err != nil {
			return nil, err
		}

		ptt, err := s.load(id)
		if err != nil {
			return nil, err
		}
		if ptt.Status != stage.makerFrom {
			return nil, statusPrecondition(ptt.Status, stage.makerFrom)
		}
		if stage.makerGuard != nil {
			if err := stage.makerGuard(ptt, now); err != nil {
				return nil, err
			}
		}

		updates := stage.makerFields(actorID, now)
		updates["status"] = stage.makerTo
		return s.applyTransition(id, updates, stage.makerFrom)

	case ActionCheckerApprove:
		if _, err := s.roles.Require(actorID, stage.checkerRoles...); err != nil {
			return nil, err
		}

		ptt, err := s.load(id)
		if err != nil {
			return nil, err
		}
		if ptt.Status != stage.checkerFrom {
			return nil, statusPrecondition(ptt.Status, stage.checkerFrom)
		}

		updates := stage.checkerFields(actorID, now, ptt)
		updates["status"] = stage.checkerTo
		return s.applyTransition(id, updates, stage.checkerFrom)

	default:
		return nil, apperrors.InvalidInput("action must be %q or %q", ActionMakerApprove, ActionCheckerApprove)
	}
}

func (s *LifecycleService) rejectDiscount(id uuid.UUID, req *DiscountDecisionRequest) (*models.PTTRequest, error) {
	if _, err := s.roles.Require(req.ActorID, models.RoleFunderMaker, models.RoleFunderChecker); err != nil {
		return nil, err
	}

	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if ptt.Status != models.PTTStatusOfferedForDiscount && ptt.Status != models.PTTStatusDiscountMakerApproved {
		return nil, statusPrecondition(ptt.Status, models.PTTStatusOfferedForDiscount, models.PTTStatusDiscountMakerApproved)
	}

	reason := req.RejectionReason
	if reason == "" {
		reason = "Offer rejected by funder"
	}

	// Roll back to documents_approved, clearing the offer and any
	// maker approval already recorded.
	updates := map[string]interface{}{
		"status":                     models.PTTStatusDocumentsApproved,
		"discount_rejection_reason":  reason,
		"discount_percentage":        nil,
		"offered_for_discount_at":    nil,
		"discount_maker_approved_by": nil,
		"discount_maker_approved_at": nil,
	}
	updated, err := s.applyTransition(id, updates, models.PTTStatusOfferedForDiscount, models.PTTStatusDiscountMakerApproved)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		go s.notifier.DiscountRejected(updated, reason)
	}
	return updated, nil
}

// Ownership-gated transitions

func (s *LifecycleService) Transfer(id uuid.UUID, req *TransferRequest) (*models.PTTRequest, error) {
	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if ptt.ImporterID != req.ActorID {
		return nil, apperrors.Forbidden("only the importer can transfer this PTT")
	}
	if ptt.Status != models.PTTStatusIssued {
		return nil, statusPrecondition(ptt.Status, models.PTTStatusIssued)
	}
	if ptt.ExporterID == nil {
		return nil, apperrors.InvalidState("PTT must have an exporter specified before transfer")
	}

	now := s.now()
	updated, err := s.applyTransition(id, map[string]interface{}{
		"status":         models.PTTStatusTransferred,
		"transferred_by": req.ActorID,
		"transferred_at": now,
	}, models.PTTStatusIssued)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		go s.notifier.PTTTransferred(updated)
	}
	return updated, nil
}

func (s *LifecycleService) UploadDocuments(id uuid.UUID, req *UploadDocumentsRequest) (*models.PTTRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput("documents are required and must carry name and url")
	}

	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if ptt.ExporterID == nil || *ptt.ExporterID != req.ActorID {
		return nil, apperrors.Forbidden("only the exporter can upload documents for this PTT")
	}
	if ptt.Status != models.PTTStatusTransferred {
		return nil, statusPrecondition(ptt.Status, models.PTTStatusTransferred)
	}

	names := make(models.StringList, len(req.Documents))
	urls := make(models.StringList, len(req.Documents))
	for i, doc := range req.Documents {
		names[i] = doc.Name
		urls[i] = doc.URL
	}

	now := s.now()
	return s.applyTransition(id, map[string]interface{}{
		"status":                models.PTTStatusDocumentsUploaded,
		"document_names":        names,
		"document_urls":         urls,
		"documents_uploaded_at": now,
	}, models.PTTStatusTransferred)
}

func (s *LifecycleService) ReviewDocuments(id uuid.UUID, req *ReviewDocumentsRequest) (*models.PTTRequest, error) {
	if req.Action != ActionApprove && req.Action != ActionReject {
		return nil, apperrors.InvalidInput("action must be %q or %q", ActionApprove, ActionReject)
	}

	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if ptt.ImporterID != req.ActorID {
		return nil, apperrors.Forbidden("only the importer can review documents for this PTT")
	}
	if ptt.Status != models.PTTStatusDocumentsUploaded {
		return nil, statusPrecondition(ptt.Status, models.PTTStatusDocumentsUploaded)
	}

	now := s.now()

	if req.Action == ActionApprove {
		return s.applyTransition(id, map[string]interface{}{
			"status":                models.PTTStatusDocumentsApproved,
			"documents_approved_at": now,
		}, models.PTTStatusDocumentsUploaded)
	}

	reason := req.RejectionReason
	if reason == "" {
		reason = "Documents rejected by importer"
	}

	// Roll back to transferred; the exporter re-uploads from scratch.
	return s.applyTransition(id, map[string]interface{}{
		"status":                    models.PTTStatusTransferred,
		"document_rejection_reason": reason,
		"document_names":            nil,
		"document_urls":             nil,
		"documents_uploaded_at":     nil,
	}, models.PTTStatusDocumentsUploaded)
}

func (s *LifecycleService) OfferDiscount(id uuid.UUID, req *OfferDiscountRequest) (*models.PTTRequest, error) {
	if req.DiscountPercentage <= 0 || req.DiscountPercentage > 100 {
		return nil, apperrors.InvalidInput("discount percentage must be between 0 and 100")
	}

	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if ptt.ExporterID == nil || *ptt.ExporterID != req.ActorID {
		return nil, apperrors.Forbidden("only the exporter can offer this PTT for discount")
	}
	if ptt.Status != models.PTTStatusDocumentsApproved {
		return nil, statusPrecondition(ptt.Status, models.PTTStatusDocumentsApproved)
	}

	now := s.now()
	return s.applyTransition(id, map[string]interface{}{
		"status":                  models.PTTStatusOfferedForDiscount,
		"discount_percentage":     req.DiscountPercentage,
		"offered_for_discount_at": now,
	}, models.PTTStatusDocumentsApproved)
}

// Reads

func (s *LifecycleService) Get(id uuid.UUID) (*PTTDetails, error) {
	ptt, err := s.load(id)
	if err != nil {
		return nil, err
	}

	details := &PTTDetails{PTTRequest: ptt}
	now := s.now()

	if ptt.DiscountPercentage != nil {
		price := PurchasePrice(ptt.Amount, *ptt.DiscountPercentage)
		margin := DiscountAmount(ptt.Amount, *ptt.DiscountPercentage)
		details.Derived.PurchasePrice = &price
		details.Derived.DiscountAmount = &margin
	}
	if ptt.MaturityDate != nil {
		days := DaysToMaturity(*ptt.MaturityDate, now)
		matured := Matured(*ptt.MaturityDate, now)
		details.Derived.DaysToMaturity = &days
		details.Derived.Matured = &matured
	}

	return details, nil
}

func (s *LifecycleService) List(params ListPTTParams) ([]PTTListItem, int64, error) {
	query := s.db.Model(&models.PTTRequest{})

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ImporterBank != "" {
		query = query.Where("importer_bank = ?", params.ImporterBank)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count PTT requests", err)
	}

	allowedSortFields := []string{"created_at", "requested_at", "amount", "status", "maturity_date"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var requests []models.PTTRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to fetch PTT requests", err)
	}

	profiles, err := s.counterpartyProfiles(requests)
	if err != nil {
		return nil, 0, err
	}

	items := make([]PTTListItem, len(requests))
	for i, ptt := range requests {
		item := PTTListItem{PTTRequest: ptt}
		if summary, ok := profiles[ptt.ImporterID]; ok {
			item.Importer = summary
		}
		if ptt.ExporterID != nil {
			if summary, ok := profiles[*ptt.ExporterID]; ok {
				item.Exporter = summary
			}
		}
		items[i] = item
	}

	return items, total, nil
}

func (s *LifecycleService) counterpartyProfiles(requests []models.PTTRequest) (map[uuid.UUID]*models.ProfileSummary, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, ptt := range requests {
		if !seen[ptt.ImporterID] {
			seen[ptt.ImporterID] = true
			ids = append(ids, ptt.ImporterID)
		}
		if ptt.ExporterID != nil && !seen[*ptt.ExporterID] {
			seen[*ptt.ExporterID] = true
			ids = append(ids, *ptt.ExporterID)
		}
	}

	profiles := make(map[uuid.UUID]*models.ProfileSummary)
	if len(ids) == 0 {
		return profiles, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperrors.Internal("failed to fetch counterparty profiles", err)
	}
	for i := range users {
		summary := users[i].Summary()
		profiles[users[i].ID] = &summary
	}

	return profiles, nil
}

// Plumbing

func (s *LifecycleService) load(id uuid.UUID) (*models.PTTRequest, error) {
	var ptt models.PTTRequest
	if err := s.db.First(&ptt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("PTT request not found")
		}
		return nil, apperrors.Internal("failed to load PTT request", err)
	}
	return &ptt, nil
}

// applyTransition is the single concurrency guard: the update only lands if
// the record is still in one of the expected statuses. Zero rows affected
// means another actor transitioned the record first (or it disappeared), and
// the caller gets the precise reason.
func (s *LifecycleService) applyTransition(id uuid.UUID, updates map[string]interface{}, from ...models.PTTStatus) (*models.PTTRequest, error) {
	result := s.db.Model(&models.PTTRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to update PTT request", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := s.load(id)
		if err != nil {
			return nil, err
		}
		return nil, statusPrecondition(current.Status, from...)
	}

	return s.load(id)
}

func statusPrecondition(current models.PTTStatus, required ...models.PTTStatus) *apperrors.Error {
	names := make([]string, len(required))
	for i, status := range required {
		names[i] = string(status)
	}
	return apperrors.InvalidState("PTT must be in %s status, currently %s", strings.Join(names, " or "), current)
}
