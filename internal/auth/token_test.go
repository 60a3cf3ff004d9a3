package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/users"
)

func testDTO() users.DTO {
	return users.DTO{
		ID: primitive.NewObjectID(),
		System: users.SystemInfo{
			Role:        users.RoleEmployee,
			Permissions: []users.Permission{users.PermAuthUse},
		},
	}
}

func TestTokenServiceRoundtrip(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"))
	dto := testDTO()

	pair, err := svc.Generate(dto)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	decoded, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, decoded.ID)
	assert.Equal(t, dto.System.Role, decoded.System.Role)
	assert.Equal(t, dto.System.Permissions, decoded.System.Permissions)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	svc := NewTokenService([]byte("key-one"))
	pair, err := svc.Generate(testDTO())
	require.NoError(t, err)

	other := NewTokenService([]byte("key-two"))
	_, err = other.Validate(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"))
	for _, input := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		_, err := svc.Validate(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"))
	svc.now = func() time.Time { return time.Now().Add(-AccessTTL - time.Hour) }

	pair, err := svc.Generate(testDTO())
	require.NoError(t, err)

	_, err = svc.Validate(pair.AccessToken)
	assert.Error(t, err)

	// The refresh token outlives the access token.
	_, err = svc.Validate(pair.RefreshToken)
	assert.NoError(t, err)
}
