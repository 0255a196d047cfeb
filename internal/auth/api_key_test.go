package auth

import (
	"testing"

	"github.com/branchschool/installments/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		HashAPIKey("sk_active"):  {TenantID: "tenant_1", UserID: "user_1", IsActive: true},
		HashAPIKey("sk_revoked"): {TenantID: "tenant_1", UserID: "user_2", IsActive: false},
	}

	tenantID, userID, ok := ValidateAPIKey(cfg, "sk_active")
	assert.True(t, ok)
	assert.Equal(t, "tenant_1", tenantID)
	assert.Equal(t, "user_1", userID)

	_, _, ok = ValidateAPIKey(cfg, "sk_revoked")
	assert.False(t, ok)

	_, _, ok = ValidateAPIKey(cfg, "sk_unknown")
	assert.False(t, ok)
}

func TestHashAPIKey(t *testing.T) {
	assert.Equal(t,
		"8326120c15afedbbec8d04e2dbf9127c309d15a000a55887551f09a6d2eea4b2",
		HashAPIKey("sk_local_installments"))
}
