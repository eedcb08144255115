package content

import (
	"net/http"

	"lunarcms/internal/features/api_keys"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContentController serves CRUD for one content table. Reads require the
// table's read scope and writes its write scope, enforced by the API key
// middleware per route.
type ContentController[T any, PT Record[T]] struct {
	contentService *ContentService[T, PT]
	resource       string
	readScope      string
	writeScope     string
}

func (c *ContentController[T, PT]) RegisterRoutes(
	router *gin.RouterGroup,
	guard *api_keys.ApiKeyMiddleware,
) {
	routes := router.Group("/" + c.resource)

	routes.GET("", guard.RequireScope(c.readScope), c.List)
	routes.GET("/:itemId", guard.RequireScope(c.readScope), c.Get)
	routes.POST("", guard.RequireScope(c.writeScope), c.Create)
	routes.PUT("/:itemId", guard.RequireScope(c.writeScope), c.Update)
	routes.DELETE("/:itemId", guard.RequireScope(c.writeScope), c.Delete)
}

func (c *ContentController[T, PT]) List(ctx *gin.Context) {
	includeInactive := ctx.Query("includeInactive") == "true"

	items, err := c.contentService.List(includeInactive)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (c *ContentController[T, PT]) Get(ctx *gin.Context) {
	itemID, err := uuid.Parse(ctx.Param("itemId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := c.contentService.Get(itemID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, item)
}

func (c *ContentController[T, PT]) Create(ctx *gin.Context) {
	var item T
	if err := ctx.ShouldBindJSON(&item); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := c.contentService.Create(&item); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &item)
}

func (c *ContentController[T, PT]) Update(ctx *gin.Context) {
	itemID, err := uuid.Parse(ctx.Param("itemId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := c.contentService.Get(itemID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Partial update: absent fields keep their stored values
	if err := ctx.ShouldBindJSON(item); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	PT(item).SetID(itemID)

	if err := c.contentService.Update(item); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, item)
}

func (c *ContentController[T, PT]) Delete(ctx *gin.Context) {
	itemID, err := uuid.Parse(ctx.Param("itemId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := c.contentService.Delete(itemID); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Content item deleted successfully"})
}
