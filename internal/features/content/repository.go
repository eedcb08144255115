package content

import (
	"lunarcms/internal/storage"

	"github.com/google/uuid"
)

// Record is implemented by every content model so the repository can be
// shared across tables.
type Record[T any] interface {
	*T
	GetID() uuid.UUID
	SetID(id uuid.UUID)
}

type ContentRepository[T any, PT Record[T]] struct {
	orderBy      string
	activeFilter bool // table carries an is_active column
}

func (r *ContentRepository[T, PT]) List(includeInactive bool) ([]*T, error) {
	items := make([]*T, 0)

	query := storage.GetDb().Model(new(T)).Order(r.orderBy)

	if r.activeFilter && !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	err := query.Find(&items).Error

	return items, err
}

func (r *ContentRepository[T, PT]) GetByID(itemID uuid.UUID) (*T, error) {
	var item T

	err := storage.GetDb().
		Where("id = ?", itemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *ContentRepository[T, PT]) Create(item *T) error {
	if PT(item).GetID() == uuid.Nil {
		PT(item).SetID(uuid.New())
	}

	return storage.GetDb().Create(item).Error
}

func (r *ContentRepository[T, PT]) Update(item *T) error {
	return storage.GetDb().Save(item).Error
}

func (r *ContentRepository[T, PT]) Delete(itemID uuid.UUID) error {
	return storage.GetDb().Delete(new(T), "id = ?", itemID).Error
}
