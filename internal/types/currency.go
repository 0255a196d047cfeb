package types

import "strings"

// NormalizeCurrency stores currency codes lowercased, e.g. "IDR" -> "idr"
func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
