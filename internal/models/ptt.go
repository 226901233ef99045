// internal/models/ptt.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// PTTRequest is the central entity: a Programmable Trade Token request moving
// through the role-gated lifecycle from pending to settled. Rows are never
// deleted; terminal records stay for audit.
type PTTRequest struct {
	BaseModel
	PTTNumber    string  `json:"ptt_number" gorm:"column:ptt_number;uniqueIndex;size:20;not null"`
	Amount       float64 `json:"amount" gorm:"not null"`
	Currency     string  `json:"currency" gorm:"size:3;not null"`
	MaturityDays int     `json:"maturity_days" gorm:"not null"`
	Incoterms    string  `json:"incoterms" gorm:"size:10;not null"`

	Status PTTStatus `json:"status" gorm:"type:varchar(30);default:'pending';index"`

	ImporterID   uuid.UUID  `json:"importer_id" gorm:"type:uuid;not null;index"`
	ExporterID   *uuid.UUID `json:"exporter_id" gorm:"type:uuid;index"`
	ImporterBank string     `json:"importer_bank" gorm:"size:255;index"`
	ExporterBank string     `json:"exporter_bank" gorm:"size:255"`

	RequestedAt time.Time `json:"requested_at"`

	// Issuance (dual control)
	MakerApprovedBy   *uuid.UUID `json:"maker_approved_by" gorm:"type:uuid"`
	MakerApprovedAt   *time.Time `json:"maker_approved_at"`
	CheckerApprovedBy *uuid.UUID `json:"checker_approved_by" gorm:"type:uuid"`
	CheckerApprovedAt *time.Time `json:"checker_approved_at"`
	IssueDate         *time.Time `json:"issue_date"`
	MaturityDate      *time.Time `json:"maturity_date"`

	// Transfer
	TransferredBy *uuid.UUID `json:"transferred_by" gorm:"type:uuid"`
	TransferredAt *time.Time `json:"transferred_at"`

	// Documents
	DocumentNames           StringList `json:"document_names" gorm:"type:text"`
	DocumentURLs            StringList `json:"document_urls" gorm:"column:document_urls;type:text"`
	DocumentsUploadedAt     *time.Time `json:"documents_uploaded_at"`
	DocumentsApprovedAt     *time.Time `json:"documents_approved_at"`
	DocumentRejectionReason string     `json:"document_rejection_reason,omitempty" gorm:"type:text"`

	// Discounting (dual control)
	DiscountPercentage        *float64   `json:"discount_percentage"`
	OfferedForDiscountAt      *time.Time `json:"offered_for_discount_at"`
	DiscountMakerApprovedBy   *uuid.UUID `json:"discount_maker_approved_by" gorm:"type:uuid"`
	DiscountMakerApprovedAt   *time.Time `json:"discount_maker_approved_at"`
	DiscountCheckerApprovedBy *uuid.UUID `json:"discount_checker_approved_by" gorm:"type:uuid"`
	DiscountCheckerApprovedAt *time.Time `json:"discount_checker_approved_at"`
	// Legacy aliases kept in step with the checker approval.
	DiscountedBy            *uuid.UUID `json:"discounted_by" gorm:"type:uuid"`
	DiscountedAt            *time.Time `json:"discounted_at"`
	DiscountRejectionReason string     `json:"discount_rejection_reason,omitempty" gorm:"type:text"`

	// Settlement (dual control)
	SettlementMakerApprovedBy   *uuid.UUID `json:"settlement_maker_approved_by" gorm:"type:uuid"`
	SettlementMakerApprovedAt   *time.Time `json:"settlement_maker_approved_at"`
	SettlementCheckerApprovedBy *uuid.UUID `json:"settlement_checker_approved_by" gorm:"type:uuid"`
	SettlementCheckerApprovedAt *time.Time `json:"settlement_checker_approved_at"`
	SettledAt                   *time.Time `json:"settled_at"`
}

func (PTTRequest) TableName() string {
	return "ptt_requests"
}

// AuditLog records every mutating API call for back-office review.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null"`
	ResourceType string     `json:"resource_type" gorm:"size:50;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	Payload      JSONB      `json:"payload" gorm:"type:text"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:500"`
}
