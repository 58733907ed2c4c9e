package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
)

// JWTSecretKey for signing gateway tokens
// REQUIRED: startup refuses to serve without it, token operations guard again at use
var JWTSecretKey string

func init() {
	JWTSecretKey, _ = env.GetEnvString("JWT_SECRET_KEY")
}

// GatewayTokenClaims represents the claims in a gateway JWT
type GatewayTokenClaims struct {
	TokenID      int64  `json:"token_id"`
	Label        string `json:"label,omitempty"` // caller label, e.g. "crm-prod"
	TokenVersion int    `json:"version"`         // For token invalidation
	jwt.RegisteredClaims
}

// GenerateGatewayToken creates a long-lived JWT for a gateway caller
// The token does not expire, but can be invalidated by incrementing token_version
func GenerateGatewayToken(tokenID int64, label string, tokenVersion int) (string, error) {
	if JWTSecretKey == "" {
		return "", errors.New("JWT_SECRET_KEY not configured")
	}

	claims := GatewayTokenClaims{
		TokenID:      tokenID,
		Label:        label,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(tokenID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			// No ExpiresAt - token never expires
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecretKey))
}

// ValidateGatewayToken validates a gateway JWT and returns the claims
func ValidateGatewayToken(tokenString string) (*GatewayTokenClaims, error) {
	if JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &GatewayTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(JWTSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*GatewayTokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
