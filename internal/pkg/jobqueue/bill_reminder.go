package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/internal/pkg/notify"
)

const (
	// ReminderWindow is how far ahead unpaid bills are picked up.
	ReminderWindow = 72 * time.Hour
	// ReminderGap is the minimum time between two reminders for the same bill.
	ReminderGap = 24 * time.Hour

	reminderSweepBatch = 200
)

// SweepBillReminders claims every bill due for a reminder and hands it to enqueue.
// Bills are marked reminded when enqueued so overlapping sweeps do not double-send.
func SweepBillReminders(ctx context.Context, deps *Dependencies, now time.Time, enqueue func(BillReminderJobPayload) error) (int, error) {
	if deps == nil || deps.Bills == nil {
		return 0, fmt.Errorf("bill repository not configured")
	}

	bills, err := deps.Bills.DueForReminder(now, ReminderWindow, ReminderGap, reminderSweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list due bills: %w", err)
	}

	enqueued := 0
	for _, b := range bills {
		if err := ctx.Err(); err != nil {
			return enqueued, err
		}
		payload := BillReminderJobPayload{BillID: b.ID, UserID: b.UserID}
		if err := enqueue(payload); err != nil {
			log.Errorf("[Reminders] Failed to enqueue reminder for bill %d: %v", b.ID, err)
			continue
		}
		if err := deps.Bills.MarkReminded(b.ID, now); err != nil {
			log.Errorf("[Reminders] Failed to mark bill %d as reminded: %v", b.ID, err)
		}
		enqueued++
	}
	return enqueued, nil
}

// ProcessBillReminder sends the reminder for one bill. Bills paid or deleted in the
// meantime and users who opted out are skipped without error.
func ProcessBillReminder(ctx context.Context, deps *Dependencies, payload BillReminderJobPayload, now time.Time) error {
	if deps == nil || deps.Reminders == nil {
		return fmt.Errorf("reminder sender not configured")
	}

	bill, err := deps.Bills.GetByID(payload.UserID, payload.BillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[Reminders] Bill %d no longer exists, skipping reminder", payload.BillID)
			return nil
		}
		return fmt.Errorf("load bill %d: %w", payload.BillID, err)
	}
	if bill.IsPaid {
		return nil
	}

	user, err := deps.Users.GetByID(payload.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", payload.UserID, err)
	}
	settings, err := deps.Settings.GetOrCreate(payload.UserID)
	if err != nil {
		return fmt.Errorf("load settings for user %d: %w", payload.UserID, err)
	}
	if !settings.BillReminders {
		log.Debugf("[Reminders] User %d opted out of bill reminders", payload.UserID)
		return nil
	}

	return deps.Reminders.SendBillReminder(ctx, notify.BillReminder{
		User:     *user,
		Settings: settings,
		Bill:     *bill,
		Now:      now,
	})
}

func (q *Queue) processBillReminderJob(ctx context.Context, job *Job) error {
	payload, err := BillReminderJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid bill reminder payload: %w", err)
	}
	return ProcessBillReminder(ctx, q.dependencies(), *payload, time.Now())
}
