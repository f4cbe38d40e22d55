package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riannbarbosa/BlockHealth/internal/gateway"
)

func TestTokenRoundTrip(t *testing.T) {
	tv := gateway.NewTokenValidator("token-test-secret", "blockhealth")
	subject := sid(0x42)

	token, err := tv.IssueToken(subject)
	require.NoError(t, err)

	got, err := tv.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := gateway.NewTokenValidator("secret-a", "blockhealth")
	validator := gateway.NewTokenValidator("secret-b", "blockhealth")

	token, err := issuer.IssueToken(sid(0x42))
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenWrongIssuerRejected(t *testing.T) {
	issuer := gateway.NewTokenValidator("shared-secret", "someone-else")
	validator := gateway.NewTokenValidator("shared-secret", "blockhealth")

	token, err := issuer.IssueToken(sid(0x42))
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}
