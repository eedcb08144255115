package api_keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cache_utils "lunarcms/internal/util/cache"
	rate_limit "lunarcms/internal/util/rate_limit"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type KeyValidationStatus string

const (
	KeyValid            KeyValidationStatus = "VALID"
	KeyMalformed        KeyValidationStatus = "MALFORMED"
	KeyNotFound         KeyValidationStatus = "NOT_FOUND"
	KeyDisabled         KeyValidationStatus = "DISABLED"
	KeyExpired          KeyValidationStatus = "EXPIRED"
	KeyStoreUnavailable KeyValidationStatus = "STORE_UNAVAILABLE"
)

// A hung database must surface as a store error, not a stalled request.
const keyStoreTimeout = 5 * time.Second

type ApiKeyService struct {
	keyStore    KeyStore
	rateLimiter *rate_limit.RateLimiter

	// nil in unit tests, lookups then always hit the key store
	keyCacheUtil *cache_utils.CacheUtil[CachedApiKey]
	singleflight singleflight.Group // Prevents thundering herd on DB calls
	logger       *slog.Logger
	now          func() time.Time
	storeTimeout time.Duration
}

// storeContext bounds a single key store call.
func (s *ApiKeyService) storeContext() (context.Context, context.CancelFunc) {
	timeout := s.storeTimeout
	if timeout <= 0 {
		timeout = keyStoreTimeout
	}

	return context.WithTimeout(context.Background(), timeout)
}

func (s *ApiKeyService) CreateApiKey(
	request *CreateApiKeyRequestDTO,
	createdBy *uuid.UUID,
) (*ApiKey, error) {
	if !request.Environment.IsValid() {
		return nil, errors.New("invalid key environment")
	}

	for _, scope := range request.Scopes {
		if !IsValidScope(scope) {
			return nil, fmt.Errorf("unknown scope: %s", scope)
		}
	}

	tier := request.RateLimitTier
	if tier == "" {
		tier = RateLimitTierBasic
	}
	if !tier.IsValid() {
		return nil, errors.New("invalid rate limit tier")
	}

	rawKey, keyDigest, displayPrefix, err := GenerateKey(request.Environment)
	if err != nil {
		return nil, err
	}

	apiKey := &ApiKey{
		ID:            uuid.New(),
		KeyDigest:     keyDigest,
		KeyPrefix:     displayPrefix,
		Name:          request.Name,
		Description:   request.Description,
		Environment:   request.Environment,
		Scopes:        request.Scopes,
		RateLimitTier: tier,
		IPWhitelist:   request.IPWhitelist,
		IsActive:      true,
		ExpiresAt:     request.ExpiresAt,
		CreatedBy:     createdBy,
	}

	ctx, cancel := s.storeContext()
	defer cancel()

	if err := s.keyStore.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	// Pre-warm cache with the new key for immediate availability
	s.cacheSet(keyDigest, s.toCachedKey(apiKey))

	s.logger.Info("API key created",
		"keyId", apiKey.ID,
		"keyPrefix", apiKey.KeyPrefix,
		"tier", apiKey.RateLimitTier,
	)

	// The raw key is returned exactly once and never persisted
	apiKey.RawKey = rawKey

	return apiKey, nil
}

func (s *ApiKeyService) GetApiKeys(request *ListApiKeysRequestDTO) (*ListApiKeysResponseDTO, error) {
	limit := request.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	request.Limit = limit
	request.Offset = max(request.Offset, 0)

	ctx, cancel := s.storeContext()
	defer cancel()

	apiKeys, total, err := s.keyStore.List(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to get API keys: %w", err)
	}

	return &ListApiKeysResponseDTO{
		ApiKeys: apiKeys,
		Total:   total,
		Limit:   request.Limit,
		Offset:  request.Offset,
	}, nil
}

func (s *ApiKeyService) GetApiKey(apiKeyID uuid.UUID) (*ApiKey, error) {
	ctx, cancel := s.storeContext()
	defer cancel()

	apiKey, err := s.keyStore.GetByID(ctx, apiKeyID)
	if err != nil {
		return nil, errors.New("API key not found")
	}

	return apiKey, nil
}

func (s *ApiKeyService) UpdateApiKey(apiKeyID uuid.UUID, request *UpdateApiKeyRequestDTO) (*ApiKey, error) {
	ctx, cancel := s.storeContext()
	defer cancel()

	apiKey, err := s.keyStore.GetByID(ctx, apiKeyID)
	if err != nil {
		return nil, errors.New("API key not found")
	}

	if request.Name != nil {
		apiKey.Name = *request.Name
	}

	if request.Description != nil {
		apiKey.Description = *request.Description
	}

	if request.Scopes != nil {
		for _, scope := range *request.Scopes {
			if !IsValidScope(scope) {
				return nil, fmt.Errorf("unknown scope: %s", scope)
			}
		}
		apiKey.Scopes = *request.Scopes
	}

	if request.RateLimitTier != nil {
		if !request.RateLimitTier.IsValid() {
			return nil, errors.New("invalid rate limit tier")
		}
		apiKey.RateLimitTier = *request.RateLimitTier
	}

	if request.IPWhitelist != nil {
		apiKey.IPWhitelist = *request.IPWhitelist
	}

	if request.IsActive != nil {
		apiKey.IsActive = *request.IsActive
	}

	if request.ExpiresAt != nil {
		apiKey.ExpiresAt = request.ExpiresAt
	}

	if err := s.keyStore.Update(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to update API key: %w", err)
	}

	s.cacheInvalidate(apiKey.KeyDigest)

	return apiKey, nil
}

func (s *ApiKeyService) RevokeApiKey(apiKeyID uuid.UUID) error {
	ctx, cancel := s.storeContext()
	defer cancel()

	apiKey, err := s.keyStore.GetByID(ctx, apiKeyID)
	if err != nil {
		return errors.New("API key not found")
	}

	if err := s.keyStore.Revoke(ctx, apiKeyID); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	s.cacheInvalidate(apiKey.KeyDigest)

	s.logger.Info("API key revoked", "keyId", apiKey.ID, "keyPrefix", apiKey.KeyPrefix)

	return nil
}

// ValidateKey resolves a raw key presented on a request into its cached
// form. Malformed keys are rejected before any store access. A store
// failure or timeout yields KeyStoreUnavailable so the caller can fail
// closed.
func (s *ApiKeyService) ValidateKey(rawKey string) (*CachedApiKey, KeyValidationStatus) {
	if !IsWellFormedKey(rawKey) {
		return nil, KeyMalformed
	}

	keyDigest := DigestKey(rawKey)

	if cachedKey := s.cacheGet(keyDigest); cachedKey != nil {
		return s.evaluateCachedKey(cachedKey)
	}

	result, err, _ := s.singleflight.Do(keyDigest, func() (any, error) {
		ctx, cancel := s.storeContext()
		defer cancel()

		return s.keyStore.GetByDigest(ctx, keyDigest)
	})

	if err != nil {
		s.logger.Error("API key lookup failed", "error", err)
		return nil, KeyStoreUnavailable
	}

	apiKey, _ := result.(*ApiKey)
	if apiKey == nil {
		// Cache the miss to prevent repeated DB hits for unknown keys
		notFound := &CachedApiKey{Status: ApiKeyStatusNotFound}
		s.cacheSet(keyDigest, notFound)

		return nil, KeyNotFound
	}

	cachedKey := s.toCachedKey(apiKey)
	s.cacheSet(keyDigest, cachedKey)

	return s.evaluateCachedKey(cachedKey)
}

func (s *ApiKeyService) evaluateCachedKey(cachedKey *CachedApiKey) (*CachedApiKey, KeyValidationStatus) {
	switch cachedKey.Status {
	case ApiKeyStatusNotFound:
		return nil, KeyNotFound
	case ApiKeyStatusDisabled:
		return cachedKey, KeyDisabled
	}

	if cachedKey.IsExpired(s.now()) {
		return cachedKey, KeyExpired
	}

	return cachedKey, KeyValid
}

// CheckRateLimit consumes one request from the key's quota.
func (s *ApiKeyService) CheckRateLimit(cachedKey *CachedApiKey) *rate_limit.Decision {
	limits := cachedKey.RateLimitTier.Limits()

	return s.rateLimiter.CheckAndIncrement(cachedKey.ID.String(), limits.HourLimit, limits.DayLimit)
}

// RateLimitStatus reads current counts without consuming quota.
func (s *ApiKeyService) RateLimitStatus(apiKeyID uuid.UUID, tier RateLimitTier) *RateLimitStatusResponseDTO {
	limits := tier.Limits()

	return &RateLimitStatusResponseDTO{
		KeyID:  apiKeyID,
		Tier:   tier,
		Limits: limits,
		Status: s.rateLimiter.Status(apiKeyID.String(), limits.HourLimit, limits.DayLimit),
	}
}

// RecordUsage updates last-used bookkeeping in the background. Failures
// are logged and never affect the request.
func (s *ApiKeyService) RecordUsage(apiKeyID uuid.UUID) {
	usedAt := s.now().UTC()

	go func() {
		ctx, cancel := s.storeContext()
		defer cancel()

		if err := s.keyStore.RecordUsage(ctx, apiKeyID, usedAt); err != nil {
			s.logger.Warn("failed to record API key usage", "error", err, "keyId", apiKeyID)
		}
	}()
}

func (s *ApiKeyService) toCachedKey(apiKey *ApiKey) *CachedApiKey {
	status := ApiKeyStatusActive
	if !apiKey.IsActive {
		status = ApiKeyStatusDisabled
	}

	return &CachedApiKey{
		ID:            apiKey.ID,
		KeyPrefix:     apiKey.KeyPrefix,
		Scopes:        apiKey.Scopes,
		RateLimitTier: apiKey.RateLimitTier,
		IPWhitelist:   apiKey.IPWhitelist,
		Status:        status,
		ExpiresAt:     apiKey.ExpiresAt,
	}
}

func (s *ApiKeyService) cacheGet(keyDigest string) *CachedApiKey {
	if s.keyCacheUtil == nil {
		return nil
	}

	return s.keyCacheUtil.Get(keyDigest)
}

func (s *ApiKeyService) cacheSet(keyDigest string, cachedKey *CachedApiKey) {
	if s.keyCacheUtil == nil {
		return
	}

	s.keyCacheUtil.Set(keyDigest, cachedKey)
}

func (s *ApiKeyService) cacheInvalidate(keyDigest string) {
	if s.keyCacheUtil == nil {
		return
	}

	s.keyCacheUtil.Invalidate(keyDigest)
}
