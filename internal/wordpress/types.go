package wordpress

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CredentialKind names an authentication scheme a site owner may configure.
type CredentialKind string

const (
	CredentialApplicationPassword CredentialKind = "application_password"
	CredentialBearerToken         CredentialKind = "bearer_token"
	CredentialLegacyBasic         CredentialKind = "legacy_basic"
	CredentialCookieSession       CredentialKind = "cookie_session"
	CredentialAnonymous           CredentialKind = "anonymous"
)

// Credential is one configured authentication strategy for a site.
// Username/Password are used by every kind except bearer tokens.
type Credential struct {
	Kind     CredentialKind
	Username string
	Password string
	Token    string
}

// SiteTarget is a remote WordPress site plus its credential material.
type SiteTarget struct {
	BaseURL     string
	Credentials []Credential
}

// NormalizeBaseURL trims whitespace, trailing slashes and a trailing /wp-json so
// endpoint paths can be appended directly.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("base url is empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	s = strings.TrimRight(u.String(), "/")
	s = strings.TrimSuffix(s, "/wp-json")
	return strings.TrimRight(s, "/"), nil
}

// Status is the local publication status of an announcement.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
)

// remoteStatus maps a local status onto the WordPress post status.
func (s Status) remoteStatus() string {
	switch s {
	case StatusPublished:
		return "publish"
	case StatusScheduled:
		return "future"
	default:
		return "draft"
	}
}

// PublishRequest is the unit of work handed to the pipeline.
type PublishRequest struct {
	SourceID         string `validate:"required"`
	Title            string `validate:"required"`
	BodyHTML         string
	Status           Status `validate:"required,oneof=draft published scheduled"`
	ScheduledAt      *time.Time
	Images           []string
	SEOTitle         string
	SEODescription   string
	TargetCategoryID int64 `validate:"gt=0"`

	// RemotePostID is set when the announcement was already published once;
	// the pipeline then updates that post instead of creating a new one.
	RemotePostID int64 `validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the scheduling invariant against now.
func (r PublishRequest) Validate(now time.Time) error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Status == StatusScheduled {
		if r.ScheduledAt == nil {
			return fmt.Errorf("scheduled announcement has no scheduled time")
		}
		if !r.ScheduledAt.After(now) {
			return fmt.Errorf("scheduled time %s is not in the future", r.ScheduledAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// Capabilities is what probing discovered about a site. It lives for one run.
type Capabilities struct {
	HasCustomTaxonomy bool
	HasCustomPostType bool
	PostType          string
	PostEndpoint      string
}

// UsesCustomTaxonomy reports whether posts are routed to the custom post type
// and categorised through the custom taxonomy.
func (c Capabilities) UsesCustomTaxonomy() bool {
	return c.HasCustomTaxonomy && c.HasCustomPostType
}

// Warning records a non-fatal degradation during an otherwise successful run.
type Warning struct {
	Kind    Kind   `json:"kind"`
	Step    StepID `json:"step"`
	Message string `json:"message"`
}

// Outcome is the only value returned to callers of the pipeline.
type Outcome struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	RemotePostID *int64         `json:"remote_post_id"`
	PostURL      string         `json:"post_url,omitempty"`
	AuthMethod   CredentialKind `json:"auth_method,omitempty"`
	FallbackUsed bool           `json:"fallback_used"`
	Warnings     []Warning      `json:"warnings,omitempty"`
	// FailureKind is set only when Success is false.
	FailureKind  Kind           `json:"failure_kind,omitempty"`
}

// HasWarning reports whether a warning of the given kind was recorded.
func (o Outcome) HasWarning(kind Kind) bool {
	for _, w := range o.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
