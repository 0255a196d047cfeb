package auth

import (
	"fmt"
	"time"

	"github.com/branchschool/installments/internal/config"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/golang-jwt/jwt/v4"
)

// Claims identifies who a bearer token acts as
type Claims struct {
	UserID   string
	TenantID string
}

// GenerateToken signs an HS256 token for the user and tenant that expires after ttl
func GenerateToken(cfg *config.Configuration, userID, tenantID string, ttl time.Duration) (string, error) {
	if cfg.Auth.Secret == "" {
		return "", ierr.NewError("auth secret is not configured").
			WithHint("Set auth.secret to issue tokens").
			Mark(ierr.ErrSystem)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Auth.Secret))
}

// ValidateToken verifies a token signed with the configured secret. Both the
// user and the tenant claims are required.
func ValidateToken(cfg *config.Configuration, token string) (*Claims, error) {
	if cfg.Auth.Secret == "" {
		return nil, ierr.NewError("bearer tokens are not accepted").
			WithHint("Token authentication is not configured").
			Mark(ierr.ErrPermissionDenied)
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(cfg.Auth.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, _ := claims["user_id"].(string)
	tenantID, _ := claims["tenant_id"].(string)
	if userID == "" || tenantID == "" {
		return nil, ierr.NewError("token missing user or tenant").
			WithHint("Token must carry user_id and tenant_id").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: userID, TenantID: tenantID}, nil
}
