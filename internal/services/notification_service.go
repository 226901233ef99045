// internal/services/notification_service.go
package services

import (
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/config"
	"github.com/tradebridge/ptt-backend/internal/models"
)

// NotificationService emails the counterparties after lifecycle transitions.
// It is always called fire-and-forget: a slow or failing mail relay must
// never stall or fail a financial state change.
type NotificationService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:  db,
		cfg: cfg,
	}
}

func (s *NotificationService) PTTIssued(ptt *models.PTTRequest) {
	subject := fmt.Sprintf("PTT %s issued", ptt.PTTNumber)
	body := fmt.Sprintf(
		"Your PTT %s for %s %.2f has been issued. Maturity date: %s.",
		ptt.PTTNumber, ptt.Currency, ptt.Amount, ptt.MaturityDate.Format("2006-01-02"),
	)
	s.notifyUser(ptt.ImporterID, subject, body)
}

func (s *NotificationService) PTTTransferred(ptt *models.PTTRequest) {
	if ptt.ExporterID == nil {
		return
	}
	subject := fmt.Sprintf("PTT %s transferred to you", ptt.PTTNumber)
	body := fmt.Sprintf(
		"PTT %s for %s %.2f has been transferred to you. Please upload the trade documents.",
		ptt.PTTNumber, ptt.Currency, ptt.Amount,
	)
	s.notifyUser(*ptt.ExporterID, subject, body)
}

func (s *NotificationService) PTTDiscounted(ptt *models.PTTRequest) {
	if ptt.ExporterID == nil || ptt.DiscountPercentage == nil {
		return
	}
	subject := fmt.Sprintf("PTT %s discount accepted", ptt.PTTNumber)
	body := fmt.Sprintf(
		"Your discount offer of %.2f%% on PTT %s was accepted. Purchase price: %s %.2f.",
		*ptt.DiscountPercentage, ptt.PTTNumber, ptt.Currency,
		PurchasePrice(ptt.Amount, *ptt.DiscountPercentage),
	)
	s.notifyUser(*ptt.ExporterID, subject, body)
}

func (s *NotificationService) DiscountRejected(ptt *models.PTTRequest, reason string) {
	if ptt.ExporterID == nil {
		return
	}
	subject := fmt.Sprintf("PTT %s discount offer rejected", ptt.PTTNumber)
	body := fmt.Sprintf("Your discount offer on PTT %s was rejected: %s", ptt.PTTNumber, reason)
	s.notifyUser(*ptt.ExporterID, subject, body)
}

func (s *NotificationService) PTTSettled(ptt *models.PTTRequest) {
	subject := fmt.Sprintf("PTT %s settled", ptt.PTTNumber)
	body := fmt.Sprintf("PTT %s for %s %.2f has been settled at maturity.", ptt.PTTNumber, ptt.Currency, ptt.Amount)
	s.notifyUser(ptt.ImporterID, subject, body)
	if ptt.ExporterID != nil {
		s.notifyUser(*ptt.ExporterID, subject, body)
	}
}

func (s *NotificationService) notifyUser(userID uuid.UUID, subject, body string) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Notification recipient not found")
		return
	}

	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"subject": subject,
		}).Warn("Failed to send notification email")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"subject": subject,
	}).Info("Notification sent")
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.cfg.Email.SMTPUsername == "" {
		// No relay configured (local development); log only.
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Email.SMTPUsername, s.cfg.Email.SMTPPassword, s.cfg.Email.SMTPHost)
	addr := s.cfg.Email.SMTPHost + ":" + s.cfg.Email.SMTPPort

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.Email.FromName, s.cfg.Email.FromEmail, to, subject, body,
	))

	return smtp.SendMail(addr, auth, s.cfg.Email.FromEmail, []string{to}, msg)
}
