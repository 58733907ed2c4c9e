package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGatewayTokenSecret(t *testing.T) {
	first, err := GenerateGatewayTokenSecret()
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := GenerateGatewayTokenSecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGatewayTokenLifecycle(t *testing.T) {
	ctx := context.Background()

	created, err := CreateGatewayToken(ctx, "crm-prod")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Positive(t, created.ID)
	assert.Len(t, created.TokenSecret, 64)
	assert.Equal(t, 1, created.JWTVersion)
	assert.True(t, created.IsActive)
	assert.False(t, created.CreatedAt.IsZero())

	// Reads never expose the secret
	got, err := GetGatewayTokenByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TokenSecret)
	assert.Equal(t, "crm-prod", got.Label)

	list, err := ListGatewayTokens(ctx)
	require.NoError(t, err)
	found := false
	for _, tok := range list {
		if tok.ID == created.ID {
			found = true
			assert.Empty(t, tok.TokenSecret)
		}
	}
	assert.True(t, found, "created token should appear in the list")

	validated, err := ValidateGatewayTokenCredentials(ctx, created.ID, created.TokenSecret)
	require.NoError(t, err)
	assert.Equal(t, created.ID, validated.ID)

	_, err = ValidateGatewayTokenCredentials(ctx, created.ID, "not-the-secret")
	assert.EqualError(t, err, "invalid token credentials")

	// Disabled tokens fail credential validation
	require.NoError(t, UpdateGatewayToken(ctx, created.ID, "crm-staging", false))
	got, err = GetGatewayTokenByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "crm-staging", got.Label)
	assert.False(t, got.IsActive)

	_, err = ValidateGatewayTokenCredentials(ctx, created.ID, created.TokenSecret)
	assert.EqualError(t, err, "gateway token is disabled")

	require.NoError(t, UpdateGatewayToken(ctx, created.ID, "crm-staging", true))

	// Regeneration rotates the secret and bumps the JWT version
	regenerated, err := RegenerateGatewayTokenSecret(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.TokenSecret, regenerated.TokenSecret)
	assert.Equal(t, 2, regenerated.JWTVersion)

	_, err = ValidateGatewayTokenCredentials(ctx, created.ID, created.TokenSecret)
	assert.EqualError(t, err, "invalid token credentials")

	version, err := GetGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	newVersion, err := IncrementGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, newVersion)

	require.NoError(t, DeleteGatewayToken(ctx, created.ID))
	_, err = GetGatewayTokenByID(ctx, created.ID)
	assert.EqualError(t, err, "gateway token not found")
	assert.EqualError(t, DeleteGatewayToken(ctx, created.ID), "gateway token not found")
}

func TestGetGatewayTokenVersionUsesCache(t *testing.T) {
	ctx := context.Background()

	created, err := CreateGatewayToken(ctx, "cache-check")
	require.NoError(t, err)
	defer func() { _ = DeleteGatewayToken(ctx, created.ID) }()

	version, err := GetGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	// Bump the version behind the cache's back
	db, err := openGatewayDB()
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `UPDATE wa_gateway_tokens SET jwt_version = 99 WHERE id = $1`, created.ID)
	require.NoError(t, err)

	version, err = GetGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, version, "cached version is served until invalidation")

	InvalidateTokenVersionCache(created.ID)

	version, err = GetGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 99, version)
}

func TestGetGatewayTokenVersionUnknownToken(t *testing.T) {
	_, err := GetGatewayTokenVersion(context.Background(), 9999999)
	assert.EqualError(t, err, "gateway token not found")
}

func TestValidateCredentialsUnknownToken(t *testing.T) {
	_, err := ValidateGatewayTokenCredentials(context.Background(), 9999999, "whatever")
	assert.EqualError(t, err, "invalid token credentials")
}

func TestSessionStateRoundTrip(t *testing.T) {
	ctx := context.Background()

	state, err := GetSessionState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state, "no state before the first pairing")

	require.NoError(t, UpsertSessionState(ctx, "6281234567890:12@s.whatsapp.net", "paired"))

	state, err = GetSessionState(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "6281234567890:12@s.whatsapp.net", state.JID)
	assert.Equal(t, "paired", state.Status)
	assert.False(t, state.UpdatedAt.IsZero())

	// The singleton row absorbs subsequent writes
	require.NoError(t, UpsertSessionState(ctx, "6281234567890:12@s.whatsapp.net", "connected"))
	state, err = GetSessionState(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "connected", state.Status)

	// Touch without a client is a no-op
	require.NoError(t, TouchSessionState(ctx))

	require.NoError(t, ClearSessionState(ctx))
	state, err = GetSessionState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestGatewayStoreHealth(t *testing.T) {
	assert.NoError(t, GatewayStoreHealth(context.Background()))
}
