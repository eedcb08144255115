package content

import (
	"net/http"
	"testing"
	"time"

	"lunarcms/internal/features/api_keys"
	test_utils "lunarcms/internal/util/testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newScopedTestRouter(t *testing.T, keyStore api_keys.KeyStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := api_keys.NewTestApiKeyService(keyStore, time.Now().UTC())
	middleware := api_keys.NewTestApiKeyMiddleware(service)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), middleware)

	return router
}

func Test_ContentRoutes_ReadOnlyKeyOnWriteRoute_Forbidden(t *testing.T) {
	keyStore := api_keys.NewMemoryKeyStore()
	_, rawKey := api_keys.CreateTestApiKey(
		keyStore, []string{api_keys.ScopeReadAll}, api_keys.RateLimitTierBasic, nil)
	router := newScopedTestRouter(t, keyStore)

	writeRoutes := []string{
		"/api/v1/content/pricing-plans",
		"/api/v1/content/features",
		"/api/v1/content/testimonials",
		"/api/v1/content/faqs",
		"/api/v1/content/settings",
	}

	for _, route := range writeRoutes {
		var body struct {
			Code string `json:"code"`
		}
		test_utils.MakeRequestAndUnmarshal(t, router, "POST", route,
			map[string]string{"X-API-Key": rawKey}, nil, http.StatusForbidden, &body)

		assert.Equal(t, api_keys.CodeInsufficientScope, body.Code, "route %s", route)
	}
}

func Test_ContentRoutes_RawKeyAsBearer_ScopeStillEnforced(t *testing.T) {
	keyStore := api_keys.NewMemoryKeyStore()
	_, rawKey := api_keys.CreateTestApiKey(
		keyStore, []string{api_keys.ScopeReadAll}, api_keys.RateLimitTierBasic, nil)
	router := newScopedTestRouter(t, keyStore)

	recorder := test_utils.MakeBearerRequest(router, "POST", "/api/v1/content/faqs", rawKey, nil)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func Test_ContentRoutes_NoCredentials_Unauthorized(t *testing.T) {
	router := newScopedTestRouter(t, api_keys.NewMemoryKeyStore())

	recorder := test_utils.MakeRequest(router, "GET", "/api/v1/content/faqs", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func Test_ContentRoutes_WriteContentScope_PassesScopeCheckOnAllTables(t *testing.T) {
	keyStore := api_keys.NewMemoryKeyStore()
	_, rawKey := api_keys.CreateTestApiKey(
		keyStore, []string{api_keys.ScopeWriteContent}, api_keys.RateLimitTierBasic, nil)
	router := newScopedTestRouter(t, keyStore)

	// Empty body makes the handler reject after the scope check: a 400
	// here proves the scope guard let the request through
	recorder := test_utils.MakeApiKeyRequest(router, "POST", "/api/v1/content/pricing-plans", rawKey, nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
