package api_keys

import "strings"

type ApiKeyStatus string

const (
	ApiKeyStatusActive   ApiKeyStatus = "ACTIVE"
	ApiKeyStatusDisabled ApiKeyStatus = "DISABLED"
	ApiKeyStatusNotFound ApiKeyStatus = "NOT_FOUND"
)

type KeyEnvironment string

const (
	KeyEnvironmentLive KeyEnvironment = "live"
	KeyEnvironmentTest KeyEnvironment = "test"
)

func (e KeyEnvironment) IsValid() bool {
	switch e {
	case KeyEnvironmentLive, KeyEnvironmentTest:
		return true
	default:
		return false
	}
}

type RateLimitTier string

const (
	RateLimitTierBasic    RateLimitTier = "basic"
	RateLimitTierStandard RateLimitTier = "standard"
	RateLimitTierPremium  RateLimitTier = "premium"
)

type TierLimits struct {
	HourLimit int `json:"hourLimit"`
	DayLimit  int `json:"dayLimit"`
}

var tierLimits = map[RateLimitTier]TierLimits{
	RateLimitTierBasic:    {HourLimit: 100, DayLimit: 2400},
	RateLimitTierStandard: {HourLimit: 1000, DayLimit: 24000},
	RateLimitTierPremium:  {HourLimit: 10000, DayLimit: 240000},
}

func (t RateLimitTier) IsValid() bool {
	_, exists := tierLimits[t]
	return exists
}

// Limits returns the hourly and daily quotas for the tier. An unknown
// tier gets the basic quotas.
func (t RateLimitTier) Limits() TierLimits {
	limits, exists := tierLimits[t]
	if !exists {
		return tierLimits[RateLimitTierBasic]
	}

	return limits
}

func AvailableTiers() map[RateLimitTier]TierLimits {
	tiers := make(map[RateLimitTier]TierLimits, len(tierLimits))
	for tier, limits := range tierLimits {
		tiers[tier] = limits
	}

	return tiers
}

const (
	ScopeReadAll           = "read:all"
	ScopeReadPricing       = "read:pricing"
	ScopeReadFeatures      = "read:features"
	ScopeReadTestimonials  = "read:testimonials"
	ScopeReadFaqs          = "read:faqs"
	ScopeReadSettings      = "read:settings"
	ScopeWriteContent      = "write:content"
	ScopeWritePricing      = "write:pricing"
	ScopeWriteFeatures     = "write:features"
	ScopeWriteTestimonials = "write:testimonials"
	ScopeWriteFaqs         = "write:faqs"
	ScopeWriteSettings     = "write:settings"
	ScopeAdminFull         = "admin:full"
)

var availableScopes = []string{
	ScopeReadAll,
	ScopeReadPricing,
	ScopeReadFeatures,
	ScopeReadTestimonials,
	ScopeReadFaqs,
	ScopeReadSettings,
	ScopeWriteContent,
	ScopeWritePricing,
	ScopeWriteFeatures,
	ScopeWriteTestimonials,
	ScopeWriteFaqs,
	ScopeWriteSettings,
	ScopeAdminFull,
}

func AvailableScopes() []string {
	scopes := make([]string, len(availableScopes))
	copy(scopes, availableScopes)

	return scopes
}

func IsValidScope(scope string) bool {
	for _, available := range availableScopes {
		if scope == available {
			return true
		}
	}

	return false
}

// CheckScope reports whether the granted scopes satisfy the required one.
// admin:full grants everything, read:all grants every read scope and
// write:content grants every write scope.
func CheckScope(granted []string, required string) bool {
	for _, scope := range granted {
		if scope == required || scope == ScopeAdminFull {
			return true
		}

		if scope == ScopeReadAll && strings.HasPrefix(required, "read:") {
			return true
		}

		if scope == ScopeWriteContent && strings.HasPrefix(required, "write:") {
			return true
		}
	}

	return false
}
