package api_keys

import (
	"time"

	rate_limit "lunarcms/internal/util/rate_limit"

	"github.com/google/uuid"
)

type CreateApiKeyRequestDTO struct {
	Name          string         `json:"name"          binding:"required,min=1,max=100"`
	Description   string         `json:"description"   binding:"max=500"`
	Environment   KeyEnvironment `json:"environment"   binding:"required"`
	Scopes        []string       `json:"scopes"        binding:"required,min=1"`
	RateLimitTier RateLimitTier  `json:"rateLimitTier"`
	IPWhitelist   []string       `json:"ipWhitelist"`
	ExpiresAt     *time.Time     `json:"expiresAt"`
}

type UpdateApiKeyRequestDTO struct {
	Name          *string        `json:"name,omitempty"          binding:"omitempty,min=1,max=100"`
	Description   *string        `json:"description,omitempty"   binding:"omitempty,max=500"`
	Scopes        *[]string      `json:"scopes,omitempty"        binding:"omitempty,min=1"`
	RateLimitTier *RateLimitTier `json:"rateLimitTier,omitempty"`
	IPWhitelist   *[]string      `json:"ipWhitelist,omitempty"`
	IsActive      *bool          `json:"isActive,omitempty"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
}

type ListApiKeysRequestDTO struct {
	Limit     int            `form:"limit"     json:"limit"`
	Offset    int            `form:"offset"    json:"offset"`
	IsActive  *bool          `form:"isActive"  json:"isActive"`
	Tier      *RateLimitTier `form:"tier"      json:"tier"`
	CreatedBy *uuid.UUID     `form:"createdBy" json:"createdBy"`
}

type ListApiKeysResponseDTO struct {
	ApiKeys []*ApiKey `json:"apiKeys"`
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

type AvailableScopesResponseDTO struct {
	Scopes []string `json:"scopes"`
}

type AvailableTiersResponseDTO struct {
	Tiers map[RateLimitTier]TierLimits `json:"tiers"`
}

type RateLimitStatusResponseDTO struct {
	KeyID  uuid.UUID            `json:"keyId"`
	Tier   RateLimitTier        `json:"tier"`
	Limits TierLimits           `json:"limits"`
	Status *rate_limit.Decision `json:"status"`
}

type KeyInfoResponseDTO struct {
	ID            uuid.UUID      `json:"id"`
	KeyPrefix     string         `json:"keyPrefix"`
	Name          string         `json:"name"`
	Environment   KeyEnvironment `json:"environment"`
	Scopes        []string       `json:"scopes"`
	RateLimitTier RateLimitTier  `json:"rateLimitTier"`
	ExpiresAt     *time.Time     `json:"expiresAt"`
}

// CachedApiKey is the short lived cache entry used on the request hot
// path. Expiry is evaluated at check time so cached keys still expire
// on schedule.
type CachedApiKey struct {
	ID            uuid.UUID     `json:"id"`
	KeyPrefix     string        `json:"keyPrefix"`
	Scopes        []string      `json:"scopes"`
	RateLimitTier RateLimitTier `json:"rateLimitTier"`
	IPWhitelist   []string      `json:"ipWhitelist"`
	Status        ApiKeyStatus  `json:"status"`
	ExpiresAt     *time.Time    `json:"expiresAt"`
}

func (k *CachedApiKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
