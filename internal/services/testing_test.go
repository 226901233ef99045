// internal/services/testing_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradebridge/ptt-backend/internal/models"
)

// newTestDB opens a fresh in-memory database. Each call gets its own named
// shared-cache instance so parallel tests do not see each other's data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PTTRequest{}, &models.AuditLog{}))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role models.Role, companyName, bankName string) *models.User {
	t.Helper()

	user := &models.User{
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()),
		Role:        role,
		CompanyName: companyName,
		BankName:    bankName,
		Status:      models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Str0ngPass!word"))
	require.NoError(t, db.Create(user).Error)
	return user
}
