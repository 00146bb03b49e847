package repository

import "gorm.io/gorm"

type ownedRepository[T any] struct {
	db    *gorm.DB
	order string
}

// NewOwnedRepository creates a user-scoped repository for T. order is the
// ORDER BY clause applied to ListByUser.
func NewOwnedRepository[T any](db *gorm.DB, order string) OwnedRepository[T] {
	return &ownedRepository[T]{db: db, order: order}
}

func (r *ownedRepository[T]) Create(item *T) error {
	return r.db.Create(item).Error
}

func (r *ownedRepository[T]) ListByUser(userID uint) ([]T, error) {
	var items []T
	q := r.db.Where("user_id = ?", userID)
	if r.order != "" {
		q = q.Order(r.order)
	}
	err := q.Find(&items).Error
	return items, err
}

// GetByID returns gorm.ErrRecordNotFound when the record belongs to someone else.
func (r *ownedRepository[T]) GetByID(userID, id uint) (*T, error) {
	var item T
	err := r.db.Where("user_id = ?", userID).First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ownedRepository[T]) Update(item *T) error {
	return r.db.Save(item).Error
}

func (r *ownedRepository[T]) Delete(userID, id uint) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
