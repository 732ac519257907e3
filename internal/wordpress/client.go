package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

const (
	restPrefix           = "/wp-json/wp/v2"
	customTaxonomy       = "dipi_cpt_category"
	customPostType       = "dipi_cpt"
	customPostTypeLegacy = "dipicpt"
	standardPostType     = "posts"

	// maxResponseBytes caps how much of a REST response body is buffered.
	maxResponseBytes = 4 << 20
)

// endpoints builds REST URLs for one normalised base URL.
type endpoints struct {
	base string
}

func (e endpoints) route(name string) string {
	return e.base + restPrefix + "/" + name
}

func (e endpoints) media() string {
	return e.route("media")
}

func (e endpoints) post(postType string, id int64) string {
	return e.route(postType) + "/" + strconv.FormatInt(id, 10)
}

func (e endpoints) login() string {
	return e.base + "/wp-login.php"
}

func (e endpoints) restNonce() string {
	return e.base + "/wp-admin/admin-ajax.php?action=rest-nonce"
}

func (e endpoints) admin() string {
	return e.base + "/wp-admin/"
}

// response is a fully buffered HTTP response.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *response) authRejected() bool {
	return r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden
}

// snippet returns a short prefix of the body for log fields and messages.
func (r *response) snippet() string {
	const n = 200
	s := strings.TrimSpace(string(r.Body))
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Client issues requests against one WordPress site. Each pipeline run owns its
// own Client so the cookie jar never leaks between runs.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a Client with a fresh cookie jar. A nil transport uses
// http.DefaultTransport.
func NewClient(transport http.RoundTripper, userAgent string) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
		},
		userAgent: userAgent,
	}, nil
}

// do sends req with an optional per-request timeout and buffers the body.
// A zero timeout leaves the request bounded only by ctx.
func (c *Client) do(ctx context.Context, req *http.Request, timeout time.Duration) (*response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := c.send(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Redacted(), err)
	}
	return &response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil
}

// send stamps the configured User-Agent and returns the unread response.
// Callers own the body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.http.Do(req)
}

// head issues an unauthenticated existence check and returns the status code.
func (c *Client) head(ctx context.Context, rawURL string, timeout time.Duration) (int, error) {
	req, err := http.NewRequest(http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.do(ctx, req, timeout)
	if err != nil {
		return 0, err
	}
	return res.StatusCode, nil
}

// jsonRequest builds a request whose body is payload encoded as JSON.
func jsonRequest(method, rawURL string, payload any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// login submits the wp-login.php form so the jar holds an auth cookie, then
// asks admin-ajax for a REST nonce. A missing nonce is not an error.
func (c *Client) login(ctx context.Context, ep endpoints, username, password string, timeout time.Duration) (string, error) {
	form := url.Values{}
	form.Set("log", username)
	form.Set("pwd", password)
	form.Set("rememberme", "forever")
	form.Set("redirect_to", ep.admin())
	form.Set("testcookie", "1")

	req, err := http.NewRequest(http.MethodPost, ep.login(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// wp-login.php refuses logins without its test cookie
	req.AddCookie(&http.Cookie{Name: "wordpress_test_cookie", Value: "WP Cookie check"})

	res, err := c.do(ctx, req, timeout)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("login rejected with status %d", res.StatusCode)
	}
	if !c.hasLoginCookie(ep) {
		return "", fmt.Errorf("login did not yield a session cookie")
	}

	nonceReq, err := http.NewRequest(http.MethodGet, ep.restNonce(), nil)
	if err != nil {
		return "", nil
	}
	nonceRes, err := c.do(ctx, nonceReq, timeout)
	if err != nil || !nonceRes.ok() {
		return "", nil
	}
	return strings.TrimSpace(string(nonceRes.Body)), nil
}

func (c *Client) hasLoginCookie(ep endpoints) bool {
	u, err := url.Parse(ep.admin())
	if err != nil {
		return false
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if strings.HasPrefix(ck.Name, "wordpress_logged_in") || strings.HasPrefix(ck.Name, "wordpress_sec") {
			return true
		}
	}
	return false
}
