package api_keys

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lunarcms/internal/features/monitoring"
	rate_limit "lunarcms/internal/util/rate_limit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(middleware *ApiKeyMiddleware, requiredScope string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/content", middleware.RequireScope(requiredScope), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router
}

func makeRequest(router *gin.Engine, headers map[string]string, remoteAddr string) *httptest.ResponseRecorder {
	request := httptest.NewRequest("GET", "/content", nil)
	if remoteAddr != "" {
		request.RemoteAddr = remoteAddr
	}
	for name, value := range headers {
		request.Header.Set(name, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func responseCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	return body["code"]
}

func Test_RequireScope_ValidKeyInApiKeyHeader_RequestAllowed(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "100", recorder.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", recorder.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, recorder.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "2400", recorder.Header().Get("X-RateLimit-Limit-Daily"))
	assert.Equal(t, "2399", recorder.Header().Get("X-RateLimit-Remaining-Daily"))
	assert.NotEmpty(t, recorder.Header().Get("X-RateLimit-Reset-Daily"))
}

func Test_RequireScope_ValidKeyAsBearer_RequestAllowed(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, map[string]string{"Authorization": "Bearer " + rawKey}, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func Test_RequireScope_BothHeadersPresent_ApiKeyHeaderWins(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, validRawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)
	_, disabledRawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.IsActive = false })
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, map[string]string{
		"X-API-Key":     validRawKey,
		"Authorization": "Bearer " + disabledRawKey,
	}, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func Test_RequireScope_NoCredentials_Unauthenticated(t *testing.T) {
	service := NewTestApiKeyService(NewMemoryKeyStore(), time.Now().UTC())
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, nil, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, CodeUnauthenticated, responseCode(t, recorder))
}

func Test_RequireScope_MalformedAndUnknownKeys_SameExternalResponse(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	unknownRawKey, _, _, err := GenerateKey(KeyEnvironmentLive)
	require.NoError(t, err)

	malformedRecorder := makeRequest(router, map[string]string{"X-API-Key": "lc_garbage"}, "")
	unknownRecorder := makeRequest(router, map[string]string{"X-API-Key": unknownRawKey}, "")

	// Identical externally so responses cannot be used to enumerate keys
	assert.Equal(t, http.StatusUnauthorized, malformedRecorder.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownRecorder.Code)
	assert.Equal(t, malformedRecorder.Body.String(), unknownRecorder.Body.String())
	assert.Equal(t, CodeInvalidKey, responseCode(t, malformedRecorder))
}

func Test_RequireScope_DisabledKey_Rejected(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.IsActive = false })
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, CodeKeyDisabled, responseCode(t, recorder))
}

func Test_RequireScope_ExpiredKey_Rejected(t *testing.T) {
	now := time.Now().UTC()
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, now)

	expiry := now.Add(-time.Minute)
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.ExpiresAt = &expiry })
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, CodeKeyExpired, responseCode(t, recorder))
}

func Test_RequireScope_IPWhitelist_EnforcedPerClientIP(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic,
		func(apiKey *ApiKey) { apiKey.IPWhitelist = StringList{"1.2.3.4"} })
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	allowedRecorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "1.2.3.4:50000")
	assert.Equal(t, http.StatusOK, allowedRecorder.Code)

	deniedRecorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "5.6.7.8:50000")
	assert.Equal(t, http.StatusForbidden, deniedRecorder.Code)
	assert.Equal(t, CodeIPNotAllowed, responseCode(t, deniedRecorder))
}

func Test_RequireScope_InsufficientScope_Rejected(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadFaqs}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeWritePricing)

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, CodeInsufficientScope, responseCode(t, recorder))
}

func Test_RequireScope_ScopeRejection_DoesNotConsumeQuota(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	apiKey, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadFaqs}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeWritePricing)

	for i := 0; i < 5; i++ {
		recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	}

	status := service.RateLimitStatus(apiKey.ID, apiKey.RateLimitTier)
	assert.Equal(t, 100, status.Status.HourRemaining)
	assert.Equal(t, 2400, status.Status.DayRemaining)
}

func Test_RequireScope_HourlyQuotaExhausted_RateLimited(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	for i := 0; i < 100; i++ {
		recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")
		require.Equal(t, http.StatusOK, recorder.Code, "request %d should be allowed", i+1)
	}

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, CodeRateLimited, responseCode(t, recorder))
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
}

func Test_RequireScope_KeyStoreDown_FailsClosed(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := NewTestApiKeyService(keyStore, time.Now().UTC())
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)
	router := newTestRouter(NewTestApiKeyMiddleware(service), ScopeReadPricing)

	keyStore.FailAll = true

	recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, CodeBackendUnavailable, responseCode(t, recorder))
}

type failingCounterStore struct{}

func (failingCounterStore) CheckAndIncrement(
	context.Context, string, int64, int64, int, int,
) (int64, int64, bool, error) {
	return 0, 0, false, errors.New("counter store unavailable")
}

func (failingCounterStore) Counts(context.Context, string, int64, int64) (int64, int64, error) {
	return 0, 0, errors.New("counter store unavailable")
}

func (failingCounterStore) Reset(context.Context, string) error {
	return errors.New("counter store unavailable")
}

func Test_RequireScope_RateLimitStoreDown_FailsOpen(t *testing.T) {
	keyStore := NewMemoryKeyStore()
	service := &ApiKeyService{
		keyStore:    keyStore,
		rateLimiter: rate_limit.NewRateLimiterWithStore(failingCounterStore{}),
		logger:      slog.Default(),
		now:         time.Now,
	}
	_, rawKey := CreateTestApiKey(keyStore, []string{ScopeReadPricing}, RateLimitTierBasic, nil)

	var eventLog bytes.Buffer
	sink := monitoring.NewMonitoringService(nil, slog.New(slog.NewTextHandler(&eventLog, nil)))
	router := newTestRouter(NewTestApiKeyMiddlewareWithSink(service, sink), ScopeReadPricing)

	for i := 0; i < 150; i++ {
		recorder := makeRequest(router, map[string]string{"X-API-Key": rawKey}, "")
		require.Equal(t, http.StatusOK, recorder.Code, "request %d must fail open", i+1)
	}

	// Degraded mode must be visible to operators even though clients
	// see normal responses
	assert.Contains(t, eventLog.String(), string(monitoring.EventBackendDegraded))
	assert.Contains(t, eventLog.String(), "rate limit store unreachable")
}
