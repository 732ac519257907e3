package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Strategy authorises an outgoing request with one credential scheme.
type Strategy interface {
	Kind() CredentialKind
	Apply(req *http.Request)
}

// Preparer is implemented by strategies that need a round trip before they
// can authorise requests.
type Preparer interface {
	Prepare(ctx context.Context, c *Client, ep endpoints) error
}

func credentialRank(k CredentialKind) int {
	switch k {
	case CredentialApplicationPassword:
		return 0
	case CredentialBearerToken:
		return 1
	case CredentialLegacyBasic:
		return 2
	case CredentialCookieSession:
		return 3
	default:
		return 4
	}
}

// usable reports whether a credential carries the material its kind needs.
func (c Credential) usable() bool {
	switch c.Kind {
	case CredentialBearerToken:
		return strings.TrimSpace(c.Token) != ""
	case CredentialApplicationPassword, CredentialLegacyBasic, CredentialCookieSession:
		return c.Username != "" && c.Password != ""
	default:
		return false
	}
}

// Resolve orders the site's usable credentials into the fallback chain:
// application password, bearer token, legacy basic, cookie session. Every
// legacy basic credential also yields a cookie-session strategy for the same
// account unless one is already configured. Resolve performs no I/O.
func Resolve(target SiteTarget) ([]Strategy, error) {
	creds := make([]Credential, 0, len(target.Credentials)+1)
	seen := make(map[Credential]bool)
	add := func(c Credential) {
		if !c.usable() || seen[c] {
			return
		}
		seen[c] = true
		creds = append(creds, c)
	}
	for _, c := range target.Credentials {
		if c.Kind == CredentialApplicationPassword {
			// application passwords are shown grouped in blocks of four; WordPress accepts both forms
			c.Password = strings.ReplaceAll(c.Password, " ", "")
		}
		add(c)
	}
	for _, c := range target.Credentials {
		if c.Kind == CredentialLegacyBasic {
			add(Credential{Kind: CredentialCookieSession, Username: c.Username, Password: c.Password})
		}
	}
	if len(creds) == 0 {
		return nil, ErrNoCredentialsConfigured
	}

	sort.SliceStable(creds, func(i, j int) bool {
		return credentialRank(creds[i].Kind) < credentialRank(creds[j].Kind)
	})

	strategies := make([]Strategy, 0, len(creds))
	for _, c := range creds {
		strategies = append(strategies, newStrategy(c))
	}
	return strategies, nil
}

func newStrategy(c Credential) Strategy {
	switch c.Kind {
	case CredentialBearerToken:
		return bearerStrategy{token: strings.TrimSpace(c.Token)}
	case CredentialCookieSession:
		return &cookieStrategy{username: c.Username, password: c.Password}
	default:
		return basicStrategy{kind: c.Kind, username: c.Username, password: c.Password}
	}
}

// basicStrategy covers application passwords and legacy basic auth; both are
// sent as HTTP Basic credentials.
type basicStrategy struct {
	kind     CredentialKind
	username string
	password string
}

func (s basicStrategy) Kind() CredentialKind { return s.kind }

func (s basicStrategy) Apply(req *http.Request) {
	req.SetBasicAuth(s.username, s.password)
}

type bearerStrategy struct {
	token string
}

func (s bearerStrategy) Kind() CredentialKind { return CredentialBearerToken }

func (s bearerStrategy) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
}

// cookieStrategy relies on the run's cookie jar after a wp-login.php form
// login. The REST API additionally wants the nonce issued to that session.
type cookieStrategy struct {
	username string
	password string
	nonce    string
}

func (s *cookieStrategy) Kind() CredentialKind { return CredentialCookieSession }

func (s *cookieStrategy) Apply(req *http.Request) {
	req.Header.Del("Authorization")
	if s.nonce != "" {
		req.Header.Set("X-WP-Nonce", s.nonce)
	}
}

func (s *cookieStrategy) Prepare(ctx context.Context, c *Client, ep endpoints) error {
	nonce, err := c.login(ctx, ep, s.username, s.password, 0)
	if err != nil {
		return fmt.Errorf("cookie login for %s failed: %w", s.username, err)
	}
	s.nonce = nonce
	return nil
}

// anonymousStrategy sends no credentials; some sites permit anonymous REST writes.
type anonymousStrategy struct{}

func (anonymousStrategy) Kind() CredentialKind { return CredentialAnonymous }

func (anonymousStrategy) Apply(req *http.Request) {
	req.Header.Del("Authorization")
}
