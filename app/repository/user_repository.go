package repository

import (
	"strings"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
)

// ownedLedger lists the soft-deletable records a user owns. They are retired
// together with the account.
var ownedLedger = []interface{}{
	&models.Expense{},
	&models.Income{},
	&models.Investment{},
	&models.Budget{},
	&models.SavingsGoal{},
	&models.RecurringExpense{},
	&models.Bill{},
	&models.UserSettings{},
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Emails are stored lowercased so sign-in is case insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash returns the owner of an unrevoked key together with the
// settings row holding it. Keys of deleted accounts never match.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}

	var settings models.UserSettings
	err := r.db.
		Joins("JOIN users ON users.id = user_settings.user_id AND users.deleted_at IS NULL").
		Where("user_settings.api_key_hash = ? AND user_settings.api_key_revoked_at IS NULL", hash).
		First(&settings).Error
	if err != nil {
		return nil, nil, err
	}

	user, err := r.GetByID(settings.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, &settings, nil
}

func (r *userRepository) Update(user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.Save(user).Error
}

// Delete soft-deletes the account and its ledger in one transaction.
func (r *userRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range ownedLedger {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List pages through accounts, newest first.
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
