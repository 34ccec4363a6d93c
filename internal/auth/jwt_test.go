package auth

import (
	"testing"
	"time"

	"fulfillment/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("devsecret")

	token, err := v.Issue("alice@example.com", RoleAdmin, time.Minute)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.True(t, id.IsAdmin())
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("devsecret")

	other, err := NewVerifier("othersecret").Issue("alice@example.com", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))

	expired, err := v.Issue("alice@example.com", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:             "refresh",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"},
	})
	signed, err := refresh.SignedString([]byte("devsecret"))
	require.NoError(t, err)
	_, err = v.Verify(signed)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))

	_, err = v.Verify("garbage")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))
}
