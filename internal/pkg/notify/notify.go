// Package notify delivers SMS and email notifications and records every
// attempt in the notification log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
)

var ErrNoChannel = errors.New("no notification channel available")

type Service struct {
	SMS       *TwilioClient
	Email     EmailSender
	Templates *Templates
	Logs      repository.NotificationRepository
}

func NewService(sms *TwilioClient, email EmailSender, templates *Templates, logs repository.NotificationRepository) *Service {
	return &Service{SMS: sms, Email: email, Templates: templates, Logs: logs}
}

// SendSMS relays message to the given number. Success and failure are both logged;
// failures are logged with type "general" and a fixed body.
func (s *Service) SendSMS(ctx context.Context, userID uint, to, message, notificationType string) (string, error) {
	sid, err := s.SMS.SendSMS(ctx, to, message)
	if err != nil {
		log.Errorf("[Notify] SMS to user %d failed: %v", userID, err)
		s.record(userID, models.NotificationTypeGeneral, models.NotificationChannelSMS, models.NotificationFailedMessage, models.NotificationStatusFailed, "")
		return "", err
	}
	s.record(userID, notificationType, models.NotificationChannelSMS, message, models.NotificationStatusSent, sid)
	return sid, nil
}

// SendEmail sends one email and logs it with channel "email".
func (s *Service) SendEmail(ctx context.Context, userID uint, to, subject, html, notificationType string) error {
	if s.Email == nil {
		return ErrNoChannel
	}
	if err := s.Email.SendEmail(ctx, to, subject, html); err != nil {
		log.Errorf("[Notify] Email to user %d failed: %v", userID, err)
		s.record(userID, notificationType, models.NotificationChannelEmail, models.NotificationFailedMessage, models.NotificationStatusFailed, "")
		return err
	}
	s.record(userID, notificationType, models.NotificationChannelEmail, subject, models.NotificationStatusSent, "")
	return nil
}

func (s *Service) record(userID uint, notificationType, channel, message, status, providerID string) {
	if s.Logs == nil {
		return
	}
	t := strings.TrimSpace(notificationType)
	if t == "" {
		t = models.NotificationTypeGeneral
	}
	entry := &models.NotificationLog{
		UserID:            userID,
		NotificationType:  t,
		Channel:           channel,
		Message:           message,
		Status:            status,
		ProviderMessageID: providerID,
	}
	if err := s.Logs.Create(entry); err != nil {
		log.Errorf("[Notify] Failed to write notification log for user %d: %v", userID, err)
	}
}

// BillReminder is everything needed to remind one user about one bill.
type BillReminder struct {
	User     models.User
	Settings *models.UserSettings
	Bill     models.Bill
	Now      time.Time
}

type billReminderView struct {
	Name     string
	Title    string
	Amount   string
	DueDate  string
	DaysLeft int
	Overdue  bool
	Category string
}

func (r BillReminder) view() billReminderView {
	days := aggregate.DaysUntil(r.Bill.DueDate, r.Now)
	name := r.User.Name
	if name == "" {
		name = r.User.Email
	}
	return billReminderView{
		Name:     name,
		Title:    r.Bill.Title,
		Amount:   "$" + r.Bill.Amount.StringFixed(2),
		DueDate:  r.Bill.DueDate.Format("Jan 02, 2006"),
		DaysLeft: days,
		Overdue:  days < 0,
		Category: r.Bill.Category,
	}
}

func smsText(b models.Bill, days int) string {
	amount := b.Amount
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	switch {
	case days < 0:
		return fmt.Sprintf("CashFox: %s ($%s) is overdue.", b.Title, amount.StringFixed(2))
	case days == 0:
		return fmt.Sprintf("CashFox: %s ($%s) is due today.", b.Title, amount.StringFixed(2))
	default:
		return fmt.Sprintf("CashFox: %s ($%s) is due in %d day(s).", b.Title, amount.StringFixed(2), days)
	}
}

// SendBillReminder emails the user and, for premium users with a phone number,
// also sends an SMS. It fails only when no channel delivered.
func (s *Service) SendBillReminder(ctx context.Context, r BillReminder) error {
	if r.Now.IsZero() {
		r.Now = time.Now()
	}
	v := r.view()
	var errs []error
	delivered := false

	if s.Email != nil && s.Templates != nil && r.User.Email != "" {
		body, err := s.Templates.Render(billReminderTemplate, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("render bill reminder: %w", err))
		} else {
			subject := fmt.Sprintf("Reminder: %s is due %s", v.Title, v.DueDate)
			if err := s.SendEmail(ctx, r.User.ID, r.User.Email, subject, body, models.NotificationTypeBillReminder); err != nil {
				errs = append(errs, err)
			} else {
				delivered = true
			}
		}
	}

	if r.Settings.IsPremium() && r.Settings.PhoneNumber != "" && s.SMS.Configured() {
		if _, err := s.SendSMS(ctx, r.User.ID, r.Settings.PhoneNumber, smsText(r.Bill, v.DaysLeft), models.NotificationTypeBillReminder); err != nil {
			errs = append(errs, err)
		} else {
			delivered = true
		}
	}

	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoChannel
	}
	return errors.Join(errs...)
}
