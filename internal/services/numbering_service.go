// internal/services/numbering_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/models"
)

// NumberingService generates the human-readable business identifier
// PTT-{YYYYMM}-{0001..}. The sequence restarts every month.
type NumberingService struct {
	db *gorm.DB
}

func NewNumberingService(db *gorm.DB) *NumberingService {
	return &NumberingService{db: db}
}

// NextPTTNumber counts this month's requests and returns the next number in
// sequence. Callers must run it inside the same transaction as the insert;
// a duplicate slipping through under concurrency surfaces as a unique-key
// violation on ptt_number and is retried once by the lifecycle service.
func (s *NumberingService) NextPTTNumber(tx *gorm.DB, now time.Time) (string, error) {
	if tx == nil {
		tx = s.db
	}

	// Month windows are defined in UTC; a zoned clock near midnight must not
	// shift the window into the wrong month.
	now = now.UTC()

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)

	var count int64
	err := tx.Model(&models.PTTRequest{}).Unscoped().
		Where("requested_at >= ? AND requested_at < ?", firstOfMonth, firstOfNextMonth).
		Count(&count).Error
	if err != nil {
		return "", apperrors.Internal("failed to count monthly PTT requests", err)
	}

	prefix := fmt.Sprintf("PTT-%04d%02d", now.Year(), int(now.Month()))
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// IsUniqueViolation recognizes a duplicate-key failure from either the
// PostgreSQL driver or the sqlite test dialect.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
