package wordpress

import (
	"errors"
	"fmt"
)

// Kind classifies an orchestrator failure.
type Kind string

const (
	KindConfiguration            Kind = "configuration_error"
	KindDiscoveryDegraded        Kind = "discovery_degraded"
	KindMediaUploadFailed        Kind = "media_upload_failed"
	KindAuthenticationExhausted  Kind = "authentication_exhausted"
	KindRemoteRejected           Kind = "remote_rejected"
	KindVerificationInconclusive Kind = "verification_inconclusive"
	KindTaxonomyPatchFailed      Kind = "taxonomy_patch_failed"
	KindPersistenceFailed        Kind = "persistence_failed"
	KindCancelled                Kind = "cancelled"
)

// Fatal reports whether a failure of this kind flips the publish outcome to failure.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfiguration, KindAuthenticationExhausted, KindRemoteRejected, KindCancelled:
		return true
	default:
		return false
	}
}

// sentinels for errors.Is
var (
	ErrNoCredentialsConfigured  = errors.New("no credentials configured")
	ErrConfiguration            = &Error{Kind: KindConfiguration}
	ErrDiscoveryDegraded        = &Error{Kind: KindDiscoveryDegraded}
	ErrMediaUploadFailed        = &Error{Kind: KindMediaUploadFailed}
	ErrAuthenticationExhausted  = &Error{Kind: KindAuthenticationExhausted}
	ErrRemoteRejected           = &Error{Kind: KindRemoteRejected}
	ErrVerificationInconclusive = &Error{Kind: KindVerificationInconclusive}
	ErrTaxonomyPatchFailed      = &Error{Kind: KindTaxonomyPatchFailed}
	ErrPersistenceFailed        = &Error{Kind: KindPersistenceFailed}
)

// Error is the structured failure produced by pipeline steps.
type Error struct {
	Kind       Kind
	Step       StepID
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can test against the Err* sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, step StepID, message string, cause error) *Error {
	return &Error{Kind: kind, Step: step, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, or "" when err is not an orchestrator error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
