package monitoring

import (
	"lunarcms/internal/storage"

	"github.com/google/uuid"
)

type SecurityEventRepository struct{}

func (r *SecurityEventRepository) Create(event *SecurityEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	return storage.GetDb().Create(event).Error
}

func (r *SecurityEventRepository) GetEvents(request *GetSecurityEventsRequest) ([]*SecurityEvent, int64, error) {
	var events = make([]*SecurityEvent, 0)

	query := storage.GetDb().Model(&SecurityEvent{})

	if request.Kind != "" {
		query = query.Where("kind = ?", request.Kind)
	}

	if request.KeyID != nil {
		query = query.Where("key_id = ?", *request.KeyID)
	}

	if request.BeforeDate != nil {
		query = query.Where("created_at < ?", *request.BeforeDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(request.Limit).
		Offset(request.Offset).
		Find(&events).Error

	return events, total, err
}
