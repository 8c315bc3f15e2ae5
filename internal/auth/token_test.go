package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "mosaic/pkg/domain-errors"
)

var tokens = NewTokenService("test-signing-key", "test-issuer", "product-composite")

func TestIssueAndValidate(t *testing.T) {
	token, err := tokens.Issue("writer", []string{ScopeRead, ScopeWrite, ScopeRead}, time.Hour)
	require.NoError(t, err)

	p, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.True(t, p.Authenticated)
	assert.Equal(t, "writer", p.Subject)
	assert.Equal(t, []string{ScopeRead, ScopeWrite}, p.Scopes)
	assert.True(t, p.HasScope(ScopeWrite))
	assert.Equal(t, "test-issuer", p.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), p.ExpiresAt, time.Minute)
}

func TestValidateRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Validate("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := tokens.Issue("reader", []string{ScopeRead}, -time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(token)
		require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		de, _ := dErrors.As(err)
		assert.Equal(t, "token has expired", de.Message)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewTokenService("test-signing-key", "test-issuer", "someone-else")
		token, err := other.Issue("reader", []string{ScopeRead}, time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewTokenService("another-key", "test-issuer", "product-composite")
		token, err := other.Issue("reader", []string{ScopeRead}, time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestPrincipalFromContext(t *testing.T) {
	assert.Equal(t, Anonymous(), PrincipalFrom(context.Background()))

	p := Principal{Subject: "s", Authenticated: true}
	ctx := WithPrincipal(context.Background(), p)
	assert.Equal(t, p, PrincipalFrom(ctx))
	assert.Contains(t, p.LogAttrs(), "subject")
}
