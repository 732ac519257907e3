package wordpress

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsOf(strategies []Strategy) []CredentialKind {
	out := make([]CredentialKind, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, s.Kind())
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		creds       []Credential
		expected    []CredentialKind
		errExpected bool
	}{
		{
			name:        "no credentials",
			errExpected: true,
		},
		{
			name:        "only unusable credentials",
			creds:       []Credential{{Kind: CredentialBearerToken, Token: "  "}, {Kind: CredentialLegacyBasic, Username: "admin"}},
			errExpected: true,
		},
		{
			name: "fixed ordering regardless of configuration order",
			creds: []Credential{
				{Kind: CredentialCookieSession, Username: "c", Password: "c"},
				{Kind: CredentialLegacyBasic, Username: "l", Password: "l"},
				{Kind: CredentialBearerToken, Token: "t"},
				{Kind: CredentialApplicationPassword, Username: "a", Password: "a"},
			},
			expected: []CredentialKind{
				CredentialApplicationPassword,
				CredentialBearerToken,
				CredentialLegacyBasic,
				CredentialCookieSession,
				CredentialCookieSession,
			},
		},
		{
			name:     "legacy basic derives a cookie session",
			creds:    []Credential{{Kind: CredentialLegacyBasic, Username: "l", Password: "l"}},
			expected: []CredentialKind{CredentialLegacyBasic, CredentialCookieSession},
		},
		{
			name: "explicit cookie session for the same account is not duplicated",
			creds: []Credential{
				{Kind: CredentialCookieSession, Username: "l", Password: "l"},
				{Kind: CredentialLegacyBasic, Username: "l", Password: "l"},
			},
			expected: []CredentialKind{CredentialLegacyBasic, CredentialCookieSession},
		},
		{
			name: "duplicates collapse",
			creds: []Credential{
				{Kind: CredentialBearerToken, Token: "t"},
				{Kind: CredentialBearerToken, Token: "t"},
			},
			expected: []CredentialKind{CredentialBearerToken},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			strategies, err := Resolve(SiteTarget{BaseURL: "https://example.com", Credentials: tc.creds})
			if tc.errExpected {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoCredentialsConfigured))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, kindsOf(strategies)); diff != "" {
				t.Errorf("unexpected strategy order (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStrategiesApply(t *testing.T) {
	strategies, err := Resolve(SiteTarget{Credentials: []Credential{
		{Kind: CredentialApplicationPassword, Username: "editor", Password: "abcd efgh"},
		{Kind: CredentialBearerToken, Token: " tok "},
	}})
	require.NoError(t, err)
	require.Len(t, strategies, 2)

	req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
	strategies[0].Apply(req)
	assert.Equal(t, basicHeader("editor", "abcdefgh"), req.Header.Get("Authorization"))

	req, _ = http.NewRequest(http.MethodPost, "https://example.com", nil)
	strategies[1].Apply(req)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	req.Header.Set("Authorization", "Bearer stale")
	anonymousStrategy{}.Apply(req)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestCookieStrategyApply(t *testing.T) {
	s := &cookieStrategy{username: "u", password: "p", nonce: "n1"}
	req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
	req.Header.Set("Authorization", "Basic xyz")
	s.Apply(req)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, "n1", req.Header.Get("X-WP-Nonce"))
}
