package auth

import (
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "unit-test-signing-secret-with-32-plus-chars"

func withTestSecret(t *testing.T) {
	t.Helper()
	previous := JWTSecretKey
	JWTSecretKey = testJWTSecret
	t.Cleanup(func() { JWTSecretKey = previous })
}

func TestGenerateGatewayTokenRequiresSecret(t *testing.T) {
	previous := JWTSecretKey
	JWTSecretKey = ""
	t.Cleanup(func() { JWTSecretKey = previous })

	_, err := GenerateGatewayToken(1, "crm-prod", 1)
	assert.EqualError(t, err, "JWT_SECRET_KEY not configured")

	_, err = ValidateGatewayToken("anything")
	assert.EqualError(t, err, "JWT_SECRET_KEY not configured")
}

func TestGatewayTokenRoundTrip(t *testing.T) {
	withTestSecret(t)

	tokenString, err := GenerateGatewayToken(42, "crm-prod", 3)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ValidateGatewayToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.TokenID)
	assert.Equal(t, "crm-prod", claims.Label)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, strconv.FormatInt(42, 10), claims.Subject)
	assert.Nil(t, claims.ExpiresAt, "gateway tokens do not expire")
}

func TestValidateGatewayTokenRejectsTampering(t *testing.T) {
	withTestSecret(t)

	tokenString, err := GenerateGatewayToken(42, "crm-prod", 1)
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-2] + "xx"
	_, err = ValidateGatewayToken(tampered)
	assert.Error(t, err)
}

func TestValidateGatewayTokenRejectsWrongKey(t *testing.T) {
	withTestSecret(t)

	claims := GatewayTokenClaims{TokenID: 42, TokenVersion: 1}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("a-different-signing-secret-entirely"))
	require.NoError(t, err)

	_, err = ValidateGatewayToken(signed)
	assert.Error(t, err)
}

func TestValidateGatewayTokenRejectsUnsignedToken(t *testing.T) {
	withTestSecret(t)

	claims := GatewayTokenClaims{TokenID: 42, TokenVersion: 1}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateGatewayToken(signed)
	assert.Error(t, err)
}
