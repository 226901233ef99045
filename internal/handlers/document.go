// internal/handlers/document.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradebridge/ptt-backend/internal/services"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

type DocumentHandler struct {
	storage *services.StorageService
}

func NewDocumentHandler(storage *services.StorageService) *DocumentHandler {
	return &DocumentHandler{
		storage: storage,
	}
}

// POST /documents
//
// Accepts one or more files under the "documents" multipart field and returns
// the stored names and URLs. The caller then attaches them to a PTT via the
// upload-documents lifecycle command.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	files := form.File["documents"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "At least one document file is required", nil)
		return
	}

	results := make([]*services.UploadResult, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read uploaded file", err.Error())
			return
		}

		result, err := h.storage.UploadDocument(file, header)
		file.Close()
		if err != nil {
			utils.AppErrorResponse(c, err)
			return
		}
		results = append(results, result)
	}

	utils.CreatedResponse(c, gin.H{
		"message":   "Documents uploaded successfully",
		"documents": results,
	})
}
