package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/branchschool/installments/internal/config"
)

// HashAPIKey returns the sha256 hex digest under which a key is configured
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ValidateAPIKey looks the key up in the configuration and returns the
// tenant and user it acts as
func ValidateAPIKey(cfg *config.Configuration, key string) (tenantID string, userID string, valid bool) {
	details, exists := cfg.Auth.APIKey.Keys[HashAPIKey(key)]
	if !exists || !details.IsActive {
		return "", "", false
	}
	return details.TenantID, details.UserID, true
}
