package api_keys

import (
	"net/http"

	"lunarcms/internal/features/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApiKeyController struct {
	apiKeyService *ApiKeyService
}

// RegisterAdminRoutes mounts key management. The group is expected to be
// guarded by admin auth (JWT session or admin:full key).
func (c *ApiKeyController) RegisterAdminRoutes(router *gin.RouterGroup) {
	keyRoutes := router.Group("/api-keys")

	keyRoutes.POST("", c.CreateApiKey)
	keyRoutes.GET("", c.ListApiKeys)
	keyRoutes.GET("/scopes/available", c.GetAvailableScopes)
	keyRoutes.GET("/tiers/available", c.GetAvailableTiers)
	keyRoutes.GET("/:keyId", c.GetApiKey)
	keyRoutes.PATCH("/:keyId", c.UpdateApiKey)
	keyRoutes.DELETE("/:keyId", c.RevokeApiKey)
	keyRoutes.GET("/:keyId/rate-limit-status", c.GetRateLimitStatus)
}

// RegisterSelfServiceRoutes mounts the endpoints a key can call about
// itself. The group is expected to be guarded by any valid API key.
func (c *ApiKeyController) RegisterSelfServiceRoutes(router *gin.RouterGroup) {
	meRoutes := router.Group("/api-keys/me")

	meRoutes.GET("/info", c.GetOwnInfo)
	meRoutes.GET("/rate-limit-status", c.GetOwnRateLimitStatus)
}

// CreateApiKey
// @Summary Create an API key (ADMIN only)
// @Description Create a new API key. The raw key is returned exactly once and cannot be retrieved again.
// @Tags api-keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateApiKeyRequestDTO true "API key data"
// @Success 200 {object} ApiKey
// @Failure 400
// @Failure 401
// @Router /api-keys [post]
func (c *ApiKeyController) CreateApiKey(ctx *gin.Context) {
	var request CreateApiKeyRequestDTO
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var createdBy *uuid.UUID
	if user, isOk := users.GetUserFromContext(ctx); isOk {
		createdBy = &user.ID
	}

	apiKey, err := c.apiKeyService.CreateApiKey(&request, createdBy)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, apiKey)
}

// ListApiKeys
// @Summary List API keys (ADMIN only)
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit number of results" default(100)
// @Param offset query int false "Offset for pagination" default(0)
// @Param isActive query bool false "Filter by active state"
// @Param tier query string false "Filter by rate limit tier"
// @Param createdBy query string false "Filter by creating user ID"
// @Success 200 {object} ListApiKeysResponseDTO
// @Failure 401
// @Router /api-keys [get]
func (c *ApiKeyController) ListApiKeys(ctx *gin.Context) {
	request := &ListApiKeysRequestDTO{}
	if err := ctx.ShouldBindQuery(request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	response, err := c.apiKeyService.GetApiKeys(request)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API keys"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// GetApiKey
// @Summary Get an API key by ID (ADMIN only)
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param keyId path string true "API key ID"
// @Success 200 {object} ApiKey
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /api-keys/{keyId} [get]
func (c *ApiKeyController) GetApiKey(ctx *gin.Context) {
	apiKeyID, err := uuid.Parse(ctx.Param("keyId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	apiKey, err := c.apiKeyService.GetApiKey(apiKeyID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, apiKey)
}

// UpdateApiKey
// @Summary Update an API key (ADMIN only)
// @Tags api-keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param keyId path string true "API key ID"
// @Param request body UpdateApiKeyRequestDTO true "Fields to update"
// @Success 200 {object} ApiKey
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /api-keys/{keyId} [patch]
func (c *ApiKeyController) UpdateApiKey(ctx *gin.Context) {
	apiKeyID, err := uuid.Parse(ctx.Param("keyId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	var request UpdateApiKeyRequestDTO
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	apiKey, err := c.apiKeyService.UpdateApiKey(apiKeyID, &request)
	if err != nil {
		if err.Error() == "API key not found" {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, apiKey)
}

// RevokeApiKey
// @Summary Revoke an API key (ADMIN only)
// @Description Soft-revokes the key. The record is kept so usage history survives.
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param keyId path string true "API key ID"
// @Success 200
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /api-keys/{keyId} [delete]
func (c *ApiKeyController) RevokeApiKey(ctx *gin.Context) {
	apiKeyID, err := uuid.Parse(ctx.Param("keyId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	if err := c.apiKeyService.RevokeApiKey(apiKeyID); err != nil {
		if err.Error() == "API key not found" {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "API key revoked successfully"})
}

// GetRateLimitStatus
// @Summary Get rate limit status for a key (ADMIN only)
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param keyId path string true "API key ID"
// @Success 200 {object} RateLimitStatusResponseDTO
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /api-keys/{keyId}/rate-limit-status [get]
func (c *ApiKeyController) GetRateLimitStatus(ctx *gin.Context) {
	apiKeyID, err := uuid.Parse(ctx.Param("keyId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	apiKey, err := c.apiKeyService.GetApiKey(apiKeyID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, c.apiKeyService.RateLimitStatus(apiKey.ID, apiKey.RateLimitTier))
}

// GetAvailableScopes
// @Summary List all assignable scopes (ADMIN only)
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AvailableScopesResponseDTO
// @Router /api-keys/scopes/available [get]
func (c *ApiKeyController) GetAvailableScopes(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, AvailableScopesResponseDTO{Scopes: AvailableScopes()})
}

// GetAvailableTiers
// @Summary List rate limit tiers and their quotas (ADMIN only)
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AvailableTiersResponseDTO
// @Router /api-keys/tiers/available [get]
func (c *ApiKeyController) GetAvailableTiers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, AvailableTiersResponseDTO{Tiers: AvailableTiers()})
}

// GetOwnInfo
// @Summary Get info about the calling API key
// @Tags api-keys
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} KeyInfoResponseDTO
// @Failure 401
// @Router /api-keys/me/info [get]
func (c *ApiKeyController) GetOwnInfo(ctx *gin.Context) {
	cachedKey, isOk := GetApiKeyFromContext(ctx)
	if !isOk {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
		return
	}

	apiKey, err := c.apiKeyService.GetApiKey(cachedKey.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API key"})
		return
	}

	ctx.JSON(http.StatusOK, KeyInfoResponseDTO{
		ID:            apiKey.ID,
		KeyPrefix:     apiKey.KeyPrefix,
		Name:          apiKey.Name,
		Environment:   apiKey.Environment,
		Scopes:        apiKey.Scopes,
		RateLimitTier: apiKey.RateLimitTier,
		ExpiresAt:     apiKey.ExpiresAt,
	})
}

// GetOwnRateLimitStatus
// @Summary Get rate limit status for the calling API key
// @Tags api-keys
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} RateLimitStatusResponseDTO
// @Failure 401
// @Router /api-keys/me/rate-limit-status [get]
func (c *ApiKeyController) GetOwnRateLimitStatus(ctx *gin.Context) {
	cachedKey, isOk := GetApiKeyFromContext(ctx)
	if !isOk {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
		return
	}

	ctx.JSON(http.StatusOK, c.apiKeyService.RateLimitStatus(cachedKey.ID, cachedKey.RateLimitTier))
}
