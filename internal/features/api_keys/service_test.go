package api_keys

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ValidateKey_ActiveKey_ReturnsValid(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	apiKey, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic, nil)

	cachedKey, status := service.ValidateKey(rawKey)

	require.Equal(t, KeyValid, status)
	assert.Equal(t, apiKey.ID, cachedKey.ID)
	assert.Equal(t, apiKey.KeyPrefix, cachedKey.KeyPrefix)
	assert.Equal(t, []string{ScopeReadAll}, cachedKey.Scopes)
	assert.Equal(t, RateLimitTierBasic, cachedKey.RateLimitTier)
}

func Test_ValidateKey_MalformedKey_RejectedBeforeStoreAccess(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	keyStore.FailAll = true // any store access would error
	service := NewTestApiKeyService(keyStore, time.Now().UTC())

	cachedKey, status := service.ValidateKey("not-a-key")

	assert.Equal(t, KeyMalformed, status)
	assert.Nil(t, cachedKey)
}

func Test_ValidateKey_UnknownKey_ReturnsNotFound(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())

	rawKey, _, _, err := GenerateKey(KeyEnvironmentLive)
	require.NoError(t, err)

	cachedKey, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyNotFound, status)
	assert.Nil(t, cachedKey)
}

func Test_ValidateKey_DisabledKey_ReturnsDisabled(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.IsActive = false })

	_, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyDisabled, status)
}

func Test_ValidateKey_ExpiredKey_ReturnsExpired(t *testing.T) {
	now := time.Now().UTC()
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, now)

	expiry := now.Add(-time.Hour)
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.ExpiresAt = &expiry })

	_, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyExpired, status)
}

func Test_ValidateKey_FutureExpiry_StillValid(t *testing.T) {
	now := time.Now().UTC()
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, now)

	expiry := now.Add(time.Hour)
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.ExpiresAt = &expiry })

	_, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyValid, status)
}

func Test_ValidateKey_StoreUnavailable_FailsClosed(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	keyStore.FailAll = true
	service := NewTestApiKeyService(keyStore, time.Now().UTC())

	rawKey, _, _, err := GenerateKey(KeyEnvironmentLive)
	require.NoError(t, err)

	cachedKey, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyStoreUnavailable, status)
	assert.Nil(t, cachedKey)
}

// hangingKeyStore blocks lookups until the call deadline fires,
// simulating a database that accepts connections but never answers.
type hangingKeyStore struct {
	*MemoryKeyStore
}

func (s hangingKeyStore) GetByDigest(ctx context.Context, keyDigest string) (*ApiKey, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func Test_ValidateKey_StoreHangs_TimesOutAndFailsClosed(t *testing.T) {
	service := NewTestApiKeyService(hangingKeyStore{NewMemoryKeyStore()}, time.Now().UTC())
	service.storeTimeout = 50 * time.Millisecond

	rawKey, _, _, err := GenerateKey(KeyEnvironmentLive)
	require.NoError(t, err)

	started := time.Now()
	cachedKey, status := service.ValidateKey(rawKey)

	assert.Equal(t, KeyStoreUnavailable, status)
	assert.Nil(t, cachedKey)
	assert.Less(t, time.Since(started), 5*time.Second, "lookup must stop at the store deadline")
}

func Test_CreateApiKey_ValidRequest_ReturnsRawKeyOnce(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())

	creatorID := uuid.New()
	apiKey, err := service.CreateApiKey(&CreateApiKeyRequestDTO{
		Name:        "Website frontend",
		Environment: KeyEnvironmentLive,
		Scopes:      []string{ScopeReadAll},
	}, &creatorID)
	require.NoError(t, err)

	assert.NotEmpty(t, apiKey.RawKey)
	assert.True(t, IsWellFormedKey(apiKey.RawKey))
	assert.Equal(t, DigestKey(apiKey.RawKey), apiKey.KeyDigest)
	assert.Equal(t, RateLimitTierBasic, apiKey.RateLimitTier, "tier defaults to basic")
	assert.True(t, apiKey.IsActive)
	assert.Equal(t, &creatorID, apiKey.CreatedBy)

	// The stored record never carries the raw key
	stored, err := keyStore.GetByID(context.Background(), apiKey.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RawKey)
}

func Test_CreateApiKey_UnknownScope_ReturnsError(t *testing.T) {
	service := NewTestApiKeyService(NewMemoryKeyStore(), time.Now().UTC())

	_, err := service.CreateApiKey(&CreateApiKeyRequestDTO{
		Name:        "Bad key",
		Environment: KeyEnvironmentLive,
		Scopes:      []string{"read:everything"},
	}, nil)

	assert.Error(t, err)
}

func Test_UpdateApiKey_DeactivateKey_SubsequentValidationDisabled(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	apiKey, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic, nil)

	isActive := false
	_, err := service.UpdateApiKey(apiKey.ID, &UpdateApiKeyRequestDTO{IsActive: &isActive})
	require.NoError(t, err)

	_, status := service.ValidateKey(rawKey)
	assert.Equal(t, KeyDisabled, status)
}

func Test_RevokeApiKey_RevokedKey_NoLongerValidates(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	apiKey, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadAll}, RateLimitTierBasic, nil)

	require.NoError(t, service.RevokeApiKey(apiKey.ID))

	_, status := service.ValidateKey(rawKey)
	assert.Equal(t, KeyDisabled, status)

	// Record survives revocation
	stored, err := keyStore.GetByID(context.Background(), apiKey.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}
