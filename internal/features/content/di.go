package content

import (
	"lunarcms/internal/features/api_keys"

	"github.com/gin-gonic/gin"
)

var pricingPlanController = newController[PricingPlan](
	"pricing-plans", api_keys.ScopeReadPricing, api_keys.ScopeWritePricing,
	"display_order ASC, created_at ASC", true,
)

var featureController = newController[Feature](
	"features", api_keys.ScopeReadFeatures, api_keys.ScopeWriteFeatures,
	"display_order ASC, created_at ASC", true,
)

var testimonialController = newController[Testimonial](
	"testimonials", api_keys.ScopeReadTestimonials, api_keys.ScopeWriteTestimonials,
	"display_order ASC, created_at ASC", true,
)

var faqController = newController[FAQ](
	"faqs", api_keys.ScopeReadFaqs, api_keys.ScopeWriteFaqs,
	"display_order ASC, created_at ASC", true,
)

var siteSettingController = newController[SiteSetting](
	"settings", api_keys.ScopeReadSettings, api_keys.ScopeWriteSettings,
	"setting_key ASC", false,
)

func newController[T any, PT Record[T]](
	resource, readScope, writeScope, orderBy string,
	activeFilter bool,
) *ContentController[T, PT] {
	repository := &ContentRepository[T, PT]{
		orderBy:      orderBy,
		activeFilter: activeFilter,
	}

	return &ContentController[T, PT]{
		contentService: &ContentService[T, PT]{repository: repository},
		resource:       resource,
		readScope:      readScope,
		writeScope:     writeScope,
	}
}

// RegisterRoutes mounts every content table under the given group.
func RegisterRoutes(router *gin.RouterGroup, guard *api_keys.ApiKeyMiddleware) {
	contentRoutes := router.Group("/content")

	pricingPlanController.RegisterRoutes(contentRoutes, guard)
	featureController.RegisterRoutes(contentRoutes, guard)
	testimonialController.RegisterRoutes(contentRoutes, guard)
	faqController.RegisterRoutes(contentRoutes, guard)
	siteSettingController.RegisterRoutes(contentRoutes, guard)
}
