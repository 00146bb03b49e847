package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
)

// UserRepository stores accounts. Delete also retires everything the user owns.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SettingsRepository loads and stores per-user settings.
type SettingsRepository interface {
	GetOrCreate(userID uint) (*models.UserSettings, error)
	Save(settings *models.UserSettings) error
	TouchAPIKey(settingsID uint, at time.Time) error
}

// OwnedRepository is the CRUD surface shared by every user-owned record.
// Lookups and deletes are always scoped to the owner.
type OwnedRepository[T any] interface {
	Create(item *T) error
	ListByUser(userID uint) ([]T, error)
	GetByID(userID, id uint) (*T, error)
	Update(item *T) error
	Delete(userID, id uint) error
}

// BillRepository adds the cross-user queries used by the reminder sweep.
type BillRepository interface {
	OwnedRepository[models.Bill]
	DueForReminder(now time.Time, within, gap time.Duration, limit int) ([]models.Bill, error)
	MarkReminded(id uint, at time.Time) error
}

// EntitlementRepository persists the last resolved entitlement per user.
type EntitlementRepository interface {
	Upsert(state *models.EntitlementState) error
	GetByUserID(userID uint) (*models.EntitlementState, error)
	DeleteByUserID(userID uint) error
	ListStale(before time.Time, afterUserID uint, limit int) ([]models.EntitlementState, error)
}

// NotificationRepository reads the outbound notification log.
type NotificationRepository interface {
	Create(entry *models.NotificationLog) error
	ListByUser(userID uint, limit int) ([]models.NotificationLog, error)
}

// AnalysisRepository stores generated financial analyses.
type AnalysisRepository interface {
	Create(entry *models.AnalysisLog) error
	ListByUser(userID uint, limit int) ([]models.AnalysisLog, error)
}

// QueueRepository inspects and prunes the Redis keys of the job queue and
// the entitlement cache.
type QueueRepository interface {
	FindKeysByPatterns(ctx context.Context, patterns []string) ([]string, error)
	Describe(ctx context.Context, keys []string) ([]RedisKeyInfo, error)
	DeleteKeys(ctx context.Context, keys []string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Settings     SettingsRepository
	Expense      OwnedRepository[models.Expense]
	Income       OwnedRepository[models.Income]
	Investment   OwnedRepository[models.Investment]
	Budget       OwnedRepository[models.Budget]
	Goal         OwnedRepository[models.SavingsGoal]
	Recurring    OwnedRepository[models.RecurringExpense]
	Bill         BillRepository
	Entitlement  EntitlementRepository
	Notification NotificationRepository
	Analysis     AnalysisRepository
	Queue        QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Settings:     NewSettingsRepository(db),
		Expense:      NewOwnedRepository[models.Expense](db, "date DESC, id DESC"),
		Income:       NewOwnedRepository[models.Income](db, "date DESC, id DESC"),
		Investment:   NewOwnedRepository[models.Investment](db, "date DESC, id DESC"),
		Budget:       NewOwnedRepository[models.Budget](db, "created_at DESC, id DESC"),
		Goal:         NewOwnedRepository[models.SavingsGoal](db, "created_at DESC, id DESC"),
		Recurring:    NewOwnedRepository[models.RecurringExpense](db, "next_due_date ASC, id ASC"),
		Bill:         NewBillRepository(db),
		Entitlement:  NewEntitlementRepository(db),
		Notification: NewNotificationRepository(db),
		Analysis:     NewAnalysisRepository(db),
		Queue:        NewQueueRepository(),
	}
}
