package jwttoken

import (
	"testing"
	"time"

	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var operatorIdentity = domain.Identity("treasury")
var expiresIn = time.Hour

func Test_IssueToken(t *testing.T) {
	token, err := jwtService.IssueToken(operatorIdentity, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, operatorIdentity.String(), claims.Identity)
	assert.Equal(t, operatorIdentity.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	expiresIn := -time.Hour // Expired token

	token, err := jwtService.IssueToken(operatorIdentity, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer", "test-audience")
	token, err := other.IssueToken(operatorIdentity, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ExtractIdentityFromToken(t *testing.T) {
	token, err := jwtService.IssueToken(operatorIdentity, expiresIn)
	require.NoError(t, err)

	identity, err := jwtService.ExtractIdentityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorIdentity, identity)
}

func Test_Adapter_MapsClaims(t *testing.T) {
	token, err := jwtService.IssueToken(operatorIdentity, expiresIn)
	require.NoError(t, err)

	adapter := NewJWTServiceAdapter(jwtService)
	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorIdentity.String(), claims.Identity)
	assert.NotEmpty(t, claims.TokenID)
}
