package api_keys

import (
	"context"
	"time"

	"lunarcms/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KeyStore is the persistence contract consumed by the service. Every
// call carries a deadline so a hung database converts into an error
// instead of stalling the request. The request hot path is tested
// against an in-memory implementation.
type KeyStore interface {
	Create(ctx context.Context, apiKey *ApiKey) error
	// GetByDigest returns (nil, nil) when no key matches. It applies no
	// status filter so callers can distinguish disabled from missing.
	GetByDigest(ctx context.Context, keyDigest string) (*ApiKey, error)
	GetByID(ctx context.Context, apiKeyID uuid.UUID) (*ApiKey, error)
	List(ctx context.Context, request *ListApiKeysRequestDTO) ([]*ApiKey, int64, error)
	Update(ctx context.Context, apiKey *ApiKey) error
	Revoke(ctx context.Context, apiKeyID uuid.UUID) error
	RecordUsage(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error
}

type ApiKeyRepository struct{}

func (r *ApiKeyRepository) Create(ctx context.Context, apiKey *ApiKey) error {
	if apiKey.ID == uuid.Nil {
		apiKey.ID = uuid.New()
	}

	now := time.Now().UTC()
	if apiKey.CreatedAt.IsZero() {
		apiKey.CreatedAt = now
	}
	apiKey.UpdatedAt = now

	return storage.GetDb().WithContext(ctx).Create(apiKey).Error
}

func (r *ApiKeyRepository) GetByDigest(ctx context.Context, keyDigest string) (*ApiKey, error) {
	var apiKey ApiKey

	err := storage.GetDb().WithContext(ctx).
		Where("key_digest = ?", keyDigest).
		First(&apiKey).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}

		return nil, err
	}

	return &apiKey, nil
}

func (r *ApiKeyRepository) GetByID(ctx context.Context, apiKeyID uuid.UUID) (*ApiKey, error) {
	var apiKey ApiKey

	err := storage.GetDb().WithContext(ctx).
		Where("id = ?", apiKeyID).
		First(&apiKey).Error

	if err != nil {
		return nil, err
	}

	return &apiKey, nil
}

func (r *ApiKeyRepository) List(ctx context.Context, request *ListApiKeysRequestDTO) ([]*ApiKey, int64, error) {
	var apiKeys = make([]*ApiKey, 0)

	query := storage.GetDb().WithContext(ctx).Model(&ApiKey{})

	if request.IsActive != nil {
		query = query.Where("is_active = ?", *request.IsActive)
	}

	if request.Tier != nil {
		query = query.Where("rate_limit_tier = ?", *request.Tier)
	}

	if request.CreatedBy != nil {
		query = query.Where("created_by = ?", *request.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(request.Limit).
		Offset(request.Offset).
		Find(&apiKeys).Error

	return apiKeys, total, err
}

func (r *ApiKeyRepository) Update(ctx context.Context, apiKey *ApiKey) error {
	apiKey.UpdatedAt = time.Now().UTC()

	return storage.GetDb().WithContext(ctx).Save(apiKey).Error
}

// Revoke deactivates the key. Rows are never deleted so usage history
// survives revocation.
func (r *ApiKeyRepository) Revoke(ctx context.Context, apiKeyID uuid.UUID) error {
	return storage.GetDb().WithContext(ctx).Model(&ApiKey{}).
		Where("id = ?", apiKeyID).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *ApiKeyRepository) RecordUsage(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error {
	return storage.GetDb().WithContext(ctx).Model(&ApiKey{}).
		Where("id = ?", apiKeyID).
		Updates(map[string]any{
			"last_used_at":  usedAt,
			"request_count": gorm.Expr("request_count + 1"),
		}).Error
}
