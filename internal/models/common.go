// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key so inserts work on both PostgreSQL and
// the sqlite test dialect.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB map column, serialized as JSON
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), j)
		}
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// StringList stores an ordered list of strings as a JSON column. Used for the
// parallel document name/URL lists on a PTT request.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Enums
type Role string

const (
	RoleImporter      Role = "importer"
	RoleExporter      Role = "exporter"
	RoleBankMaker     Role = "bank_maker"
	RoleBankChecker   Role = "bank_checker"
	RoleFunderMaker   Role = "funder_maker"
	RoleFunderChecker Role = "funder_checker"
)

// ValidRoles lists every role accepted at registration.
var ValidRoles = []Role{
	RoleImporter,
	RoleExporter,
	RoleBankMaker,
	RoleBankChecker,
	RoleFunderMaker,
	RoleFunderChecker,
}

func (r Role) Valid() bool {
	for _, role := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// PTTStatus is the closed set of lifecycle states of a PTT request. Status
// changes only through validated transitions in the lifecycle service.
type PTTStatus string

const (
	PTTStatusPending                 PTTStatus = "pending"
	PTTStatusMakerApproved           PTTStatus = "maker_approved"
	PTTStatusIssued                  PTTStatus = "issued"
	PTTStatusTransferred             PTTStatus = "transferred"
	PTTStatusDocumentsUploaded       PTTStatus = "documents_uploaded"
	PTTStatusDocumentsApproved       PTTStatus = "documents_approved"
	PTTStatusOfferedForDiscount      PTTStatus = "offered_for_discount"
	PTTStatusDiscountMakerApproved   PTTStatus = "discount_maker_approved"
	PTTStatusDiscounted              PTTStatus = "discounted"
	PTTStatusSettlementMakerApproved PTTStatus = "settlement_maker_approved"
	PTTStatusSettled                 PTTStatus = "settled"
)
