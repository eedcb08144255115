package api_keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CheckScope_ExactMatch_Granted(t *testing.T) {
	assert.True(t, CheckScope([]string{ScopeReadPricing}, ScopeReadPricing))
	assert.False(t, CheckScope([]string{ScopeReadPricing}, ScopeReadFaqs))
}

func Test_CheckScope_AdminFull_GrantsEverything(t *testing.T) {
	granted := []string{ScopeAdminFull}

	for _, scope := range AvailableScopes() {
		assert.True(t, CheckScope(granted, scope), "admin:full should grant %s", scope)
	}
}

func Test_CheckScope_ReadAll_GrantsOnlyReads(t *testing.T) {
	granted := []string{ScopeReadAll}

	assert.True(t, CheckScope(granted, ScopeReadPricing))
	assert.True(t, CheckScope(granted, ScopeReadSettings))
	assert.False(t, CheckScope(granted, ScopeWritePricing))
	assert.False(t, CheckScope(granted, ScopeAdminFull))
}

func Test_CheckScope_WriteContent_GrantsOnlyWrites(t *testing.T) {
	granted := []string{ScopeWriteContent}

	assert.True(t, CheckScope(granted, ScopeWritePricing))
	assert.True(t, CheckScope(granted, ScopeWriteFaqs))
	assert.False(t, CheckScope(granted, ScopeReadPricing))
	assert.False(t, CheckScope(granted, ScopeAdminFull))
}

func Test_CheckScope_NoScopes_DeniesEverything(t *testing.T) {
	assert.False(t, CheckScope(nil, ScopeReadPricing))
	assert.False(t, CheckScope([]string{}, ScopeReadPricing))
}

func Test_TierLimits_KnownTiers_MatchQuotas(t *testing.T) {
	assert.Equal(t, TierLimits{HourLimit: 100, DayLimit: 2400}, RateLimitTierBasic.Limits())
	assert.Equal(t, TierLimits{HourLimit: 1000, DayLimit: 24000}, RateLimitTierStandard.Limits())
	assert.Equal(t, TierLimits{HourLimit: 10000, DayLimit: 240000}, RateLimitTierPremium.Limits())
}

func Test_TierLimits_UnknownTier_FallsBackToBasic(t *testing.T) {
	assert.Equal(t, RateLimitTierBasic.Limits(), RateLimitTier("platinum").Limits())
	assert.False(t, RateLimitTier("platinum").IsValid())
}
