package api_keys

import (
	"time"

	"lunarcms/internal/storage"

	"github.com/google/uuid"
)

type StringList = storage.StringList

type ApiKey struct {
	ID            uuid.UUID      `json:"id"            gorm:"column:id"`
	KeyDigest     string         `json:"-"             gorm:"column:key_digest;uniqueIndex"` // Never expose in JSON
	KeyPrefix     string         `json:"keyPrefix"     gorm:"column:key_prefix"`
	Name          string         `json:"name"          gorm:"column:name"`
	Description   string         `json:"description"   gorm:"column:description"`
	Environment   KeyEnvironment `json:"environment"   gorm:"column:environment"`
	Scopes        StringList     `json:"scopes"        gorm:"column:scopes;type:jsonb"`
	RateLimitTier RateLimitTier  `json:"rateLimitTier" gorm:"column:rate_limit_tier"`
	IPWhitelist   StringList     `json:"ipWhitelist"   gorm:"column:ip_whitelist;type:jsonb"`
	IsActive      bool           `json:"isActive"      gorm:"column:is_active"`
	LastUsedAt    *time.Time     `json:"lastUsedAt"    gorm:"column:last_used_at"`
	RequestCount  int64          `json:"requestCount"  gorm:"column:request_count"`
	ExpiresAt     *time.Time     `json:"expiresAt"     gorm:"column:expires_at"`
	CreatedBy     *uuid.UUID     `json:"createdBy"     gorm:"column:created_by"`
	CreatedAt     time.Time      `json:"createdAt"     gorm:"column:created_at"`
	UpdatedAt     time.Time      `json:"updatedAt"     gorm:"column:updated_at"`

	RawKey string `json:"key,omitempty" gorm:"-"` // Temporary field only populated during creation
}

func (ApiKey) TableName() string {
	return "api_keys"
}
