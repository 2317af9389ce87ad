package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndVerify(t *testing.T) {
	manager := NewJWTManager("test-secret", 1)

	tokenStr, err := manager.GenerateToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := manager.VerifyToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	tokenStr, err := NewJWTManager("secret-a", 1).GenerateToken("ops")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", 1).VerifyToken(tokenStr)
	assert.Error(t, err)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	_, err := NewJWTManager("secret", 1).VerifyToken("not.a.token")
	assert.Error(t, err)
}
