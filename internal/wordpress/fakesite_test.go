package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Nonce  string
	Body   []byte
	Header http.Header
}

// fakeSite is a minimal WordPress REST API.
type fakeSite struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	posts    map[int64]map[string]any
	nextID   int64

	// routes that answer HEAD probes; everything else is 404
	routes map[string]bool
	// acceptAuth decides whether a write is authorised; nil accepts everything
	acceptAuth func(r *http.Request) bool

	createStatus     int
	patchStatus      int
	verifyStatus     int
	verifyPostStatus string
	mediaStatus      int
	imageStatus      int

	loginUser string
	loginPass string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	f := &fakeSite{
		t:      t,
		posts:  make(map[int64]map[string]any),
		nextID: 100,
		routes: make(map[string]bool),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSite) URL() string { return f.srv.URL }

func (f *fakeSite) imageURL() string { return f.srv.URL + "/assets/spring-sale.png" }

func (f *fakeSite) withCustomPostType(postType string) *fakeSite {
	f.routes[customTaxonomy] = true
	f.routes[postType] = true
	return f
}

func (f *fakeSite) requireBasic(user, pass string) *fakeSite {
	f.acceptAuth = func(r *http.Request) bool {
		u, p, ok := r.BasicAuth()
		return ok && u == user && p == pass
	}
	return f
}

func (f *fakeSite) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Nonce:  r.Header.Get("X-WP-Nonce"),
		Body:   body,
		Header: r.Header.Clone(),
	})
	return body
}

// requestsTo returns recorded requests matching method and path.
func (f *fakeSite) requestsTo(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSite) writes() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == http.MethodPost && strings.HasPrefix(r.Path, restPrefix) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSite) authorised(r *http.Request) bool {
	if f.acceptAuth == nil {
		return true
	}
	return f.acceptAuth(r)
}

func (f *fakeSite) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	body := f.record(r)

	switch {
	case r.URL.Path == "/assets/spring-sale.png":
		if f.imageStatus != 0 {
			w.WriteHeader(f.imageStatus)
			return
		}
		_, _ = w.Write(pngBytes)
		return
	case r.URL.Path == "/wp-login.php":
		f.serveLogin(w, r)
		return
	case r.URL.Path == "/wp-admin/":
		w.WriteHeader(http.StatusOK)
		return
	case r.URL.Path == "/wp-admin/admin-ajax.php":
		if _, err := r.Cookie("wordpress_logged_in_test"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "nonce-abc")
		return
	case !strings.HasPrefix(r.URL.Path, restPrefix+"/"):
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, restPrefix+"/"), "/")
	route := parts[0]

	if r.Method == http.MethodHead {
		if f.routes[route] {
			// real routes often refuse unauthenticated HEAD
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if route == "media" {
		if !f.authorised(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.mediaStatus != 0 {
			w.WriteHeader(f.mediaStatus)
			return
		}
		f.writeJSON(w, http.StatusCreated, map[string]any{"id": 55})
		return
	}

	if route != standardPostType && !f.routes[route] {
		f.writeJSON(w, http.StatusNotFound, map[string]any{"code": "rest_no_route"})
		return
	}

	if len(parts) == 1 && r.Method == http.MethodPost {
		f.serveCreate(w, r, body)
		return
	}
	if len(parts) == 2 {
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		f.servePost(w, r, id, body)
		return
	}
	http.NotFound(w, r)
}

func (f *fakeSite) serveLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("log") != f.loginUser || r.PostForm.Get("pwd") != f.loginPass || f.loginUser == "" {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<div id=\"login_error\">incorrect password</div>")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "wordpress_logged_in_test", Value: "session", Path: "/"})
	http.Redirect(w, r, "/wp-admin/", http.StatusFound)
}

func (f *fakeSite) serveCreate(w http.ResponseWriter, r *http.Request, body []byte) {
	if !f.authorised(r) {
		f.writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "rest_cannot_create"})
		return
	}
	if f.createStatus != 0 && f.createStatus >= 300 {
		f.writeJSON(w, f.createStatus, map[string]any{"code": "internal_error", "message": "boom"})
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		f.t.Errorf("create body is not JSON: %v", err)
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	payload["id"] = id
	payload["link"] = fmt.Sprintf("%s/?p=%d", f.srv.URL, id)
	f.posts[id] = payload
	f.mu.Unlock()

	f.writeJSON(w, http.StatusCreated, payload)
}

func (f *fakeSite) servePost(w http.ResponseWriter, r *http.Request, id int64, body []byte) {
	f.mu.Lock()
	post, ok := f.posts[id]
	f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if f.verifyStatus != 0 {
			w.WriteHeader(f.verifyStatus)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		out := map[string]any{}
		for k, v := range post {
			out[k] = v
		}
		out["link"] = fmt.Sprintf("%s/announcements/%d/", f.srv.URL, id)
		if f.verifyPostStatus != "" {
			out["status"] = f.verifyPostStatus
		}
		f.writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		if !f.authorised(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !ok {
			f.writeJSON(w, http.StatusNotFound, map[string]any{"code": "rest_post_invalid_id"})
			return
		}
		if f.patchStatus >= 300 {
			w.WriteHeader(f.patchStatus)
			return
		}
		var patch map[string]any
		_ = json.Unmarshal(body, &patch)
		f.mu.Lock()
		for k, v := range patch {
			post[k] = v
		}
		f.mu.Unlock()
		f.writeJSON(w, http.StatusOK, post)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// memStore is an idempotent in-memory RecordStore.
type memStore struct {
	mu      sync.Mutex
	records map[string]storedLink
	calls   int
	err     error
}

type storedLink struct {
	RemotePostID     int64
	IsCustomPostType bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]storedLink)}
}

func (m *memStore) UpdateRemotePost(_ context.Context, sourceID string, remotePostID int64, isCustomPostType bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.records[sourceID] = storedLink{RemotePostID: remotePostID, IsCustomPostType: isCustomPostType}
	return nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ProbeTimeout = 2 * time.Second
	opts.RequestTimeout = 2 * time.Second
	opts.VerifyRetries = 1
	opts.VerifyBackoff = time.Millisecond
	opts.Now = func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }
	return opts
}
