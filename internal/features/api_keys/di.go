package api_keys

import (
	"sync"
	"time"

	"lunarcms/internal/cache"
	"lunarcms/internal/features/monitoring"
	"lunarcms/internal/features/users"
	cache_utils "lunarcms/internal/util/cache"
	"lunarcms/internal/util/logger"
	rate_limit "lunarcms/internal/util/rate_limit"
)

// Validated keys are cached for a short TTL only, so a revoked key stops
// working within seconds without a DB hit per request.
const keyCacheExpiry = 10 * time.Second

var (
	diOnce sync.Once

	apiKeyService    *ApiKeyService
	apiKeyMiddleware *ApiKeyMiddleware
	apiKeyController *ApiKeyController
)

// Wiring is deferred until first use so importing the package does not
// open a cache connection.
func setUpDependencies() {
	apiKeyService = &ApiKeyService{
		keyStore:     &ApiKeyRepository{},
		rateLimiter:  rate_limit.NewRateLimiter(),
		keyCacheUtil: cache_utils.NewCacheUtilWithExpiry[CachedApiKey](cache.GetCache(), "lc_apikey:", keyCacheExpiry),
		logger:       logger.GetLogger(),
		now:          time.Now,
	}

	apiKeyMiddleware = &ApiKeyMiddleware{
		apiKeyService:     apiKeyService,
		userService:       users.GetUserService(),
		monitoringService: monitoring.GetMonitoringService(),
	}

	apiKeyController = &ApiKeyController{
		apiKeyService: apiKeyService,
	}
}

func GetApiKeyService() *ApiKeyService {
	diOnce.Do(setUpDependencies)
	return apiKeyService
}

func GetApiKeyMiddleware() *ApiKeyMiddleware {
	diOnce.Do(setUpDependencies)
	return apiKeyMiddleware
}

func GetApiKeyController() *ApiKeyController {
	diOnce.Do(setUpDependencies)
	return apiKeyController
}
