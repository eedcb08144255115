package api_keys

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lunarcms/internal/features/monitoring"
	"lunarcms/internal/features/users"
	rate_limit "lunarcms/internal/util/rate_limit"

	"github.com/google/uuid"
)

// MemoryKeyStore is an in-memory KeyStore used by unit tests. FailAll
// simulates an identity store outage.
type MemoryKeyStore struct {
	mu      sync.Mutex
	keys    map[uuid.UUID]*ApiKey
	FailAll bool
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[uuid.UUID]*ApiKey)}
}

func (s *MemoryKeyStore) Create(ctx context.Context, apiKey *ApiKey) error {
	if s.FailAll {
		return errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if apiKey.ID == uuid.Nil {
		apiKey.ID = uuid.New()
	}

	copied := *apiKey
	s.keys[apiKey.ID] = &copied

	return nil
}

func (s *MemoryKeyStore) GetByDigest(ctx context.Context, keyDigest string) (*ApiKey, error) {
	if s.FailAll {
		return nil, errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, apiKey := range s.keys {
		if apiKey.KeyDigest == keyDigest {
			copied := *apiKey
			return &copied, nil
		}
	}

	return nil, nil
}

func (s *MemoryKeyStore) GetByID(ctx context.Context, apiKeyID uuid.UUID) (*ApiKey, error) {
	if s.FailAll {
		return nil, errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apiKey, exists := s.keys[apiKeyID]
	if !exists {
		return nil, errors.New("record not found")
	}

	copied := *apiKey

	return &copied, nil
}

func (s *MemoryKeyStore) List(ctx context.Context, request *ListApiKeysRequestDTO) ([]*ApiKey, int64, error) {
	if s.FailAll {
		return nil, 0, errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*ApiKey, 0)
	for _, apiKey := range s.keys {
		if request.IsActive != nil && apiKey.IsActive != *request.IsActive {
			continue
		}
		if request.Tier != nil && apiKey.RateLimitTier != *request.Tier {
			continue
		}
		if request.CreatedBy != nil &&
			(apiKey.CreatedBy == nil || *apiKey.CreatedBy != *request.CreatedBy) {
			continue
		}

		copied := *apiKey
		matched = append(matched, &copied)
	}

	return matched, int64(len(matched)), nil
}

func (s *MemoryKeyStore) Update(ctx context.Context, apiKey *ApiKey) error {
	if s.FailAll {
		return errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *apiKey
	s.keys[apiKey.ID] = &copied

	return nil
}

func (s *MemoryKeyStore) Revoke(ctx context.Context, apiKeyID uuid.UUID) error {
	if s.FailAll {
		return errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apiKey, exists := s.keys[apiKeyID]
	if !exists {
		return errors.New("record not found")
	}

	apiKey.IsActive = false

	return nil
}

func (s *MemoryKeyStore) RecordUsage(ctx context.Context, apiKeyID uuid.UUID, usedAt time.Time) error {
	if s.FailAll {
		return errors.New("key store unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apiKey, exists := s.keys[apiKeyID]
	if !exists {
		return errors.New("record not found")
	}

	apiKey.LastUsedAt = &usedAt
	apiKey.RequestCount++

	return nil
}

// NewTestApiKeyService builds a service on in-memory stores: no cache,
// MemoryStore rate limiting and a fixed clock.
func NewTestApiKeyService(keyStore KeyStore, at time.Time) *ApiKeyService {
	limiter := rate_limit.NewRateLimiterAt(
		rate_limit.NewMemoryStore(),
		func() time.Time { return at },
	)

	return &ApiKeyService{
		keyStore:    keyStore,
		rateLimiter: limiter,
		logger:      slog.Default(),
		now:         func() time.Time { return at },
	}
}

// NewTestMonitoringService returns a sink that only logs, for use in
// middleware tests.
func NewTestMonitoringService() *monitoring.MonitoringService {
	return monitoring.NewMonitoringService(nil, slog.Default())
}

type testSecretSource struct{}

func (testSecretSource) GetSecretKey() (string, error) {
	return "test-secret", nil
}

// NewTestApiKeyMiddleware wires the middleware with log-only monitoring
// and a session service that never reaches a database.
func NewTestApiKeyMiddleware(service *ApiKeyService) *ApiKeyMiddleware {
	return NewTestApiKeyMiddlewareWithSink(service, NewTestMonitoringService())
}

// NewTestApiKeyMiddlewareWithSink accepts a caller supplied monitoring
// sink so tests can observe the events the middleware emits.
func NewTestApiKeyMiddlewareWithSink(
	service *ApiKeyService,
	monitoringService *monitoring.MonitoringService,
) *ApiKeyMiddleware {
	return &ApiKeyMiddleware{
		apiKeyService:     service,
		userService:       users.NewUserService(&users.UserRepository{}, testSecretSource{}),
		monitoringService: monitoringService,
	}
}

// CreateTestApiKey seeds a key into the store and returns it along with
// the raw key string.
func CreateTestApiKey(
	keyStore KeyStore,
	scopes []string,
	tier RateLimitTier,
	mutate func(apiKey *ApiKey),
) (*ApiKey, string) {
	rawKey, keyDigest, displayPrefix, err := GenerateKey(KeyEnvironmentTest)
	if err != nil {
		panic(err)
	}

	apiKey := &ApiKey{
		ID:            uuid.New(),
		KeyDigest:     keyDigest,
		KeyPrefix:     displayPrefix,
		Name:          "Test Key",
		Environment:   KeyEnvironmentTest,
		Scopes:        scopes,
		RateLimitTier: tier,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}

	if mutate != nil {
		mutate(apiKey)
	}

	if err := keyStore.Create(context.Background(), apiKey); err != nil {
		panic(err)
	}

	return apiKey, rawKey
}
