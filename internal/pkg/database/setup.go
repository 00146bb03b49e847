package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is the process-wide handle opened by SetupDatabase.
var DB *gorm.DB

// GetDB returns the handle opened by SetupDatabase (nil before setup).
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the global handle. Tests use it to inject an in-memory store.
func SetDB(db *gorm.DB) {
	DB = db
}

func SetupDatabase() {
	driver := strings.ToLower(strings.TrimSpace(env.GetEnv("DB_DRIVER", DriverMySQL)))
	dsn := buildDSN(driver)

	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = Open(driver, dsn)
		if err == nil {
			if err = Migrate(DB); err != nil {
				panic(err)
			}
			log.Infof("[Database] Connected using %s driver", driver)
			return
		}

		log.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func buildDSN(driver string) string {
	switch driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_NAME", ""),
			env.GetEnv("DB_PORT", "5432"),
			env.GetEnv("DB_SSLMODE", "disable"),
		)
	case DriverSQLite:
		return env.GetEnv("DB_PATH", "cashfox.db")
	default:
		// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", ""),
		)
	}
}

// Open connects to the given driver without migrating.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if !env.IsDev() {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	switch driver {
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	case DriverMySQL:
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Migrate creates or updates all tables owned by the application.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.Expense{},
		&models.Income{},
		&models.Investment{},
		&models.Budget{},
		&models.SavingsGoal{},
		&models.RecurringExpense{},
		&models.Bill{},
		&models.EntitlementState{},
		&models.NotificationLog{},
		&models.AnalysisLog{},
		&models.BillingAccount{},
		&models.BillingSubscription{},
		&models.BillingPlanMapping{},
		&models.BillingWebhookEvent{},
	)
}

// NewSQLiteMemory opens a migrated, private in-memory database. name keeps
// parallel tests apart.
func NewSQLiteMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
