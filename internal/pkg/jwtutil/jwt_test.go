package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubject(t *testing.T) {
	valid, err := GenerateOperatorToken("secret", "courier", "ops@example.com", time.Minute)
	require.NoError(t, err)
	expired, err := GenerateOperatorToken("secret", "courier", "ops@example.com", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := GenerateOperatorToken("secret", "someone-else", "ops@example.com", time.Minute)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "ops", Issuer: "courier"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	noSubject, err := GenerateOperatorToken("secret", "courier", "", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		secret      string
		errExpected bool
	}{
		{name: "valid token", token: valid, secret: "secret"},
		{name: "wrong secret", token: valid, secret: "other", errExpected: true},
		{name: "expired token", token: expired, secret: "secret", errExpected: true},
		{name: "wrong issuer", token: otherIssuer, secret: "secret", errExpected: true},
		{name: "missing expiry", token: noExpiry, secret: "secret", errExpected: true},
		{name: "missing subject", token: noSubject, secret: "secret", errExpected: true},
		{name: "garbage", token: "not-a-jwt", secret: "secret", errExpected: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub, err := ParseSubject(tc.token, tc.secret, "courier")
			if tc.errExpected {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ops@example.com", sub)
		})
	}
}
