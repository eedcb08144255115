package api_keys

import (
	"net/http"
	"strconv"
	"strings"

	"lunarcms/internal/features/monitoring"
	"lunarcms/internal/features/users"
	rate_limit "lunarcms/internal/util/rate_limit"

	"github.com/gin-gonic/gin"
)

const authContextKey = "apiKey"

// Rejection codes returned to clients. Malformed and unknown keys both
// answer INVALID_KEY so responses do not help key enumeration.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidKey         = "INVALID_KEY"
	CodeKeyDisabled        = "KEY_DISABLED"
	CodeKeyExpired         = "KEY_EXPIRED"
	CodeIPNotAllowed       = "IP_NOT_ALLOWED"
	CodeInsufficientScope  = "INSUFFICIENT_SCOPE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

type ApiKeyMiddleware struct {
	apiKeyService     *ApiKeyService
	userService       *users.UserService
	monitoringService *monitoring.MonitoringService
}

// RequireScope guards a route group with API key auth. The request walks
// extraction, structural check, lookup, status, IP whitelist, scope and
// finally the rate limit, in that order. Scope rejections happen before
// the counter so they never consume quota.
//
// When no API key is presented the request falls through to JWT session
// auth; a valid session carries full access. requiredScope "" accepts
// any valid key.
func (m *ApiKeyMiddleware) RequireScope(requiredScope string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rawKey := extractKey(ctx)
		if rawKey == "" {
			m.authenticateSession(ctx)
			return
		}

		cachedKey, status := m.apiKeyService.ValidateKey(rawKey)

		switch status {
		case KeyMalformed:
			m.reject(ctx, http.StatusUnauthorized, CodeInvalidKey, "invalid API key",
				monitoring.EventInvalidKey, nil, "malformed key")
			return
		case KeyNotFound:
			m.reject(ctx, http.StatusUnauthorized, CodeInvalidKey, "invalid API key",
				monitoring.EventInvalidKey, nil, "no key matches digest")
			return
		case KeyDisabled:
			m.reject(ctx, http.StatusUnauthorized, CodeKeyDisabled, "API key is disabled",
				monitoring.EventKeyDisabled, cachedKey, "")
			return
		case KeyExpired:
			m.reject(ctx, http.StatusUnauthorized, CodeKeyExpired, "API key has expired",
				monitoring.EventKeyExpired, cachedKey, "")
			return
		case KeyStoreUnavailable:
			// Identity store outage fails closed
			m.reject(ctx, http.StatusServiceUnavailable, CodeBackendUnavailable,
				"authorization backend unavailable",
				monitoring.EventBackendDegraded, nil, "key store unreachable")
			return
		}

		if !ipAllowed(cachedKey.IPWhitelist, ctx.ClientIP()) {
			m.reject(ctx, http.StatusForbidden, CodeIPNotAllowed, "request IP is not allowed for this API key",
				monitoring.EventIPNotAllowed, cachedKey, ctx.ClientIP())
			return
		}

		if requiredScope != "" && !CheckScope(cachedKey.Scopes, requiredScope) {
			m.reject(ctx, http.StatusForbidden, CodeInsufficientScope, "API key lacks the required scope",
				monitoring.EventInsufficientScope, cachedKey, "required scope: "+requiredScope)
			return
		}

		decision := m.apiKeyService.CheckRateLimit(cachedKey)
		setRateLimitHeaders(ctx, decision)

		if decision.Degraded {
			// Rate limit store outage fails open: the request proceeds
			m.recordEvent(monitoring.EventBackendDegraded, ctx, cachedKey, "rate limit store unreachable")
		}

		if !decision.Allowed {
			ctx.Header("Retry-After", strconv.Itoa(decision.RetryAfterSec))
			m.reject(ctx, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded",
				monitoring.EventRateLimited, cachedKey, "")
			return
		}

		ctx.Set(authContextKey, cachedKey)

		m.recordEvent(monitoring.EventRequestAllowed, ctx, cachedKey, "")
		m.apiKeyService.RecordUsage(cachedKey.ID)

		ctx.Next()
	}
}

func (m *ApiKeyMiddleware) authenticateSession(ctx *gin.Context) {
	token := ctx.GetHeader("Authorization")
	if token == "" {
		m.reject(ctx, http.StatusUnauthorized, CodeUnauthenticated, "API key or session token required",
			monitoring.EventUnauthenticated, nil, "")
		return
	}

	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}

	user, err := m.userService.GetUserFromToken(token)
	if err != nil {
		m.reject(ctx, http.StatusUnauthorized, CodeUnauthenticated, "API key or session token required",
			monitoring.EventUnauthenticated, nil, "invalid session token")
		return
	}

	ctx.Set("user", user)
	ctx.Next()
}

func (m *ApiKeyMiddleware) reject(
	ctx *gin.Context,
	httpStatus int,
	code string,
	message string,
	eventKind monitoring.SecurityEventKind,
	cachedKey *CachedApiKey,
	detail string,
) {
	m.recordEvent(eventKind, ctx, cachedKey, detail)

	ctx.JSON(httpStatus, gin.H{"code": code, "error": message})
	ctx.Abort()
}

func (m *ApiKeyMiddleware) recordEvent(
	kind monitoring.SecurityEventKind,
	ctx *gin.Context,
	cachedKey *CachedApiKey,
	detail string,
) {
	event := &monitoring.SecurityEvent{
		Kind:     kind,
		ClientIP: ctx.ClientIP(),
		Method:   ctx.Request.Method,
		Path:     ctx.Request.URL.Path,
		Detail:   detail,
	}

	if cachedKey != nil {
		keyID := cachedKey.ID
		event.KeyID = &keyID
		event.KeyPrefix = cachedKey.KeyPrefix
	}

	m.monitoringService.RecordEvent(event)
}

// extractKey reads the raw key from X-API-Key or a bearer Authorization
// header. X-API-Key wins when both are present. Bearer values that do
// not look like API keys are left for session auth.
func extractKey(ctx *gin.Context) string {
	if headerKey := ctx.GetHeader("X-API-Key"); headerKey != "" {
		return headerKey
	}

	authorization := ctx.GetHeader("Authorization")
	if len(authorization) > 7 && authorization[:7] == "Bearer " {
		bearer := authorization[7:]
		if strings.HasPrefix(bearer, KeyPrefix) {
			return bearer
		}
	}

	return ""
}

func ipAllowed(whitelist []string, clientIP string) bool {
	if len(whitelist) == 0 {
		return true
	}

	for _, allowed := range whitelist {
		if allowed == clientIP {
			return true
		}
	}

	return false
}

// Quota headers emitted on both allowed and rate limited responses so
// clients can self-throttle.
func setRateLimitHeaders(ctx *gin.Context, decision *rate_limit.Decision) {
	ctx.Header("X-RateLimit-Limit", strconv.Itoa(decision.HourLimit))
	ctx.Header("X-RateLimit-Remaining", strconv.Itoa(decision.HourRemaining))
	ctx.Header("X-RateLimit-Reset", strconv.FormatInt(decision.HourReset.Unix(), 10))
	ctx.Header("X-RateLimit-Limit-Daily", strconv.Itoa(decision.DayLimit))
	ctx.Header("X-RateLimit-Remaining-Daily", strconv.Itoa(decision.DayRemaining))
	ctx.Header("X-RateLimit-Reset-Daily", strconv.FormatInt(decision.DayReset.Unix(), 10))
}

// GetApiKeyFromContext extracts the authorized key from gin context.
func GetApiKeyFromContext(ctx *gin.Context) (*CachedApiKey, bool) {
	keyInterface, exists := ctx.Get(authContextKey)
	if !exists {
		return nil, false
	}

	cachedKey, ok := keyInterface.(*CachedApiKey)

	return cachedKey, ok
}
