// internal/services/role_authority.go
package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/models"
)

// RoleAuthority answers "may this identity perform an action requiring one of
// these roles". Ownership checks against a specific PTT stay in the lifecycle
// service.
type RoleAuthority struct {
	db *gorm.DB
}

func NewRoleAuthority(db *gorm.DB) *RoleAuthority {
	return &RoleAuthority{db: db}
}

// Lookup loads the actor's profile.
func (a *RoleAuthority) Lookup(actorID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := a.db.First(&user, "id = ?", actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user profile not found")
		}
		return nil, apperrors.Internal("failed to load user profile", err)
	}
	return &user, nil
}

// Require loads the actor and verifies membership in the allowed role set.
func (a *RoleAuthority) Require(actorID uuid.UUID, roles ...models.Role) (*models.User, error) {
	user, err := a.Lookup(actorID)
	if err != nil {
		return nil, err
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("account is suspended")
	}

	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}

	return nil, apperrors.Forbidden("action requires one of the roles: %s", roleNames(roles))
}

func roleNames(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, ", ")
}
