// internal/handlers/ptt.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradebridge/ptt-backend/internal/services"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

type PTTHandler struct {
	lifecycle *services.LifecycleService
}

func NewPTTHandler(lifecycle *services.LifecycleService) *PTTHandler {
	return &PTTHandler{
		lifecycle: lifecycle,
	}
}

// POST /ptt
func (h *PTTHandler) Create(c *gin.Context) {
	var req services.CreatePTTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	ptt, err := h.lifecycle.Create(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     "PTT request created successfully",
		"ptt_request": ptt,
	})
}

// GET /ptt?status=&bank=
func (h *PTTHandler) List(c *gin.Context) {
	params := services.ListPTTParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           c.Query("status"),
		ImporterBank:     c.Query("bank"),
	}

	items, total, err := h.lifecycle.List(params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(items, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /ptt/:id
func (h *PTTHandler) Get(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	details, err := h.lifecycle.Get(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"ptt_request": details,
	})
}

// POST /ptt/:id/approve
func (h *PTTHandler) Approve(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.Approve(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := "PTT request approved by maker"
	if req.Action == services.ActionCheckerApprove {
		message = "PTT request issued by checker"
	}

	utils.SuccessResponse(c, gin.H{
		"message":     message,
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/transfer
func (h *PTTHandler) Transfer(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.Transfer(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "PTT transferred successfully to exporter",
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/upload-documents
func (h *PTTHandler) UploadDocuments(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.UploadDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.UploadDocuments(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "Documents uploaded successfully",
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/review-documents
func (h *PTTHandler) ReviewDocuments(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.ReviewDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.ReviewDocuments(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := "Documents approved successfully"
	if req.Action == services.ActionReject {
		message = "Documents rejected"
	}

	utils.SuccessResponse(c, gin.H{
		"message":     message,
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/offer-discount
func (h *PTTHandler) OfferDiscount(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.OfferDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.OfferDiscount(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     "PTT offered for discount successfully",
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/accept-discount
func (h *PTTHandler) AcceptDiscount(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.DiscountDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.AcceptDiscount(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	var message string
	switch req.Action {
	case services.ActionMakerApprove:
		message = "Discount offer approved by maker. Awaiting checker approval."
	case services.ActionCheckerApprove:
		message = "Discount offer accepted successfully"
	default:
		message = "Discount offer rejected"
	}

	utils.SuccessResponse(c, gin.H{
		"message":     message,
		"ptt_request": ptt,
	})
}

// POST /ptt/:id/settle
func (h *PTTHandler) Settle(c *gin.Context) {
	id, ok := h.pttID(c)
	if !ok {
		return
	}

	var req services.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	ptt, err := h.lifecycle.Settle(id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := "Settlement approved by maker. Awaiting checker approval."
	if req.Action == services.ActionCheckerApprove {
		message = "Settlement finalized by checker. PTT has been settled."
	}

	utils.SuccessResponse(c, gin.H{
		"message":     message,
		"ptt_request": ptt,
	})
}

func (h *PTTHandler) pttID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid PTT request ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
