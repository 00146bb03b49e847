package jobqueue

import (
	"context"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/notify"
)

// ReminderSender delivers one bill reminder over whatever channels the user has.
type ReminderSender interface {
	SendBillReminder(ctx context.Context, r notify.BillReminder) error
}

// Dependencies are the collaborators used by the background workers.
type Dependencies struct {
	Users        repository.UserRepository
	Settings     repository.SettingsRepository
	Bills        repository.BillRepository
	Entitlements repository.EntitlementRepository
	Resolver     *entitlements.Resolver
	Reminders    ReminderSender
}

// DependenciesFromFactory builds worker dependencies from the repository factory.
func DependenciesFromFactory(f *repository.Factory, resolver *entitlements.Resolver, reminders ReminderSender) *Dependencies {
	return &Dependencies{
		Users:        f.GetUserRepository(),
		Settings:     f.GetSettingsRepository(),
		Bills:        f.GetBillRepository(),
		Entitlements: f.GetEntitlementRepository(),
		Resolver:     resolver,
		Reminders:    reminders,
	}
}
