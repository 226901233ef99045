// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"`
	Role          Role       `json:"role" gorm:"type:varchar(20);not null;index"`
	CompanyName   string     `json:"company_name" gorm:"size:255;not null"`
	ContactPerson string     `json:"contact_person" gorm:"size:255"`
	PhoneNumber   string     `json:"phone_number" gorm:"size:50"`
	BankName      string     `json:"bank_name" gorm:"size:255"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// ProfileSummary is the counterparty view joined onto PTT listings.
type ProfileSummary struct {
	UserID        string `json:"user_id"`
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	PhoneNumber   string `json:"phone_number"`
}

func (u *User) Summary() ProfileSummary {
	return ProfileSummary{
		UserID:        u.ID.String(),
		CompanyName:   u.CompanyName,
		ContactPerson: u.ContactPerson,
		PhoneNumber:   u.PhoneNumber,
	}
}
