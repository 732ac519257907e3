package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/obi2na/courier/internal/logger"
	"go.uber.org/zap"
)

// progress checkpoints; only monotonicity matters
const (
	progressPrepared = 10
	progressProbed   = 25
	progressImage    = 40
	progressSending  = 60
	progressCreated  = 70
	progressPatched  = 85
	progressVerified = 90
	progressDone     = 100
)

// Options configures remote behaviour. Timeouts and retry counts are passed in
// explicitly rather than read from ambient state.
type Options struct {
	ProbeTimeout      time.Duration
	RequestTimeout    time.Duration
	UploadTimeout     time.Duration // zero leaves uploads bounded by the caller's context only
	VerifyRetries     int
	VerifyBackoff     time.Duration
	CookieLogin       bool
	AnonymousFallback bool
	UserAgent         string
	MaxImageBytes     int64
	Transport         http.RoundTripper
	Now               func() time.Time
}

func DefaultOptions() Options {
	return Options{
		ProbeTimeout:      20 * time.Second,
		RequestTimeout:    30 * time.Second,
		VerifyRetries:     2,
		VerifyBackoff:     500 * time.Millisecond,
		CookieLogin:       true,
		AnonymousFallback: true,
		UserAgent:         "courier/1.0",
		MaxImageBytes:     defaultMaxImageBytes,
	}
}

// RecordStore writes the remote link back to the local announcement record.
// Implementations must be idempotent.
type RecordStore interface {
	UpdateRemotePost(ctx context.Context, sourceID string, remotePostID int64, isCustomPostType bool) error
}

// Pipeline publishes announcements to WordPress sites. It holds no per-run
// state and is safe for concurrent use.
type Pipeline struct {
	opts    Options
	store   RecordStore
	metrics *Metrics
}

func NewPipeline(store RecordStore, metrics *Metrics, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts, store: store, metrics: metrics}
}

// remotePost is the subset of a WordPress post response the pipeline reads.
type remotePost struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// run carries everything scoped to one publish attempt.
type run struct {
	p        *Pipeline
	req      PublishRequest
	target   SiteTarget
	tracker  *Tracker
	log      *zap.Logger
	client   *Client
	ep       endpoints
	chain    *authChain
	caps     Capabilities
	mediaID  int64
	warnings []Warning
}

// Run executes prepare, image, remote and persist for one request. Every
// failure is reported through the returned Outcome.
func (p *Pipeline) Run(ctx context.Context, req PublishRequest, target SiteTarget, observer Observer) Outcome {
	r := &run{
		p:       p,
		req:     req,
		target:  target,
		tracker: NewTracker(observer),
		log: logger.With(ctx).With(
			zap.String("source_id", req.SourceID),
			zap.String("site", target.BaseURL),
		),
	}
	out := r.execute(ctx)
	switch {
	case !out.Success:
		p.metrics.publish("failed")
	case len(out.Warnings) > 0:
		p.metrics.publish("degraded")
	default:
		p.metrics.publish("succeeded")
	}
	return out
}

func (r *run) execute(ctx context.Context) Outcome {
	if err := r.prepare(ctx); err != nil {
		return r.failure(err)
	}

	r.image(ctx)

	post, err := r.remote(ctx)
	if err != nil {
		// no remote post exists, so there is nothing to persist
		return r.failure(err)
	}

	out := Outcome{
		Success:      true,
		RemotePostID: &post.ID,
		PostURL:      post.Link,
		AuthMethod:   r.chain.Active().Kind(),
		FallbackUsed: r.chain.FallbackUsed(),
	}
	persisted := r.persist(ctx, post.ID)
	out.Message = r.successMessage(post.ID, out, persisted)
	out.Warnings = r.warnings
	return out
}

func (r *run) warn(err *Error) {
	r.log.Warn("publish step degraded",
		zap.String("kind", string(err.Kind)),
		zap.String("step", string(err.Step)),
		zap.Error(err),
	)
	r.warnings = append(r.warnings, Warning{Kind: err.Kind, Step: err.Step, Message: err.Error()})
}

func (r *run) failure(err error) Outcome {
	var e *Error
	if !errors.As(err, &e) {
		e = newError(KindRemoteRejected, r.tracker.Snapshot().CurrentStep, "unexpected failure", err)
	}
	r.log.Error("publish failed",
		zap.String("kind", string(e.Kind)),
		zap.String("step", string(e.Step)),
		zap.Error(e),
	)
	return Outcome{
		Success:     false,
		Message:     e.Error(),
		Warnings:    r.warnings,
		FailureKind: e.Kind,
	}
}

func (r *run) prepare(ctx context.Context) error {
	started := time.Now()
	defer r.p.metrics.observeStep(StepPrepare, started)
	r.tracker.Start(StepPrepare)

	fail := func(message string, cause error) error {
		e := newError(KindConfiguration, StepPrepare, message, cause)
		r.tracker.Fail(StepPrepare, e.Error(), progressPrepared)
		return e
	}

	if err := r.req.Validate(r.p.opts.Now()); err != nil {
		return fail("invalid publish request", err)
	}
	base, err := NormalizeBaseURL(r.target.BaseURL)
	if err != nil {
		return fail("invalid site configuration", err)
	}
	r.target.BaseURL = base
	r.ep = endpoints{base: base}

	strategies, err := Resolve(r.target)
	if err == nil {
		strategies = r.filterStrategies(strategies)
		if len(strategies) == 0 {
			err = ErrNoCredentialsConfigured
		}
	}
	if err != nil {
		return fail("no usable credentials for site", err)
	}
	if r.p.opts.AnonymousFallback {
		strategies = append(strategies, anonymousStrategy{})
	}

	r.client, err = NewClient(r.p.opts.Transport, r.p.opts.UserAgent)
	if err != nil {
		return fail("could not create http client", err)
	}
	r.chain = newAuthChain(strategies, r.client, r.ep, r.p.opts.RequestTimeout, r.p.metrics)
	r.tracker.Advance(progressPrepared)

	caps, err := NewProber(r.client, r.p.opts.ProbeTimeout).Probe(ctx, base)
	var degraded *Error
	if errors.As(err, &degraded) {
		r.warn(degraded)
	}
	r.caps = caps
	r.log.Info("site capabilities probed",
		zap.Bool("custom_taxonomy", caps.HasCustomTaxonomy),
		zap.Bool("custom_post_type", caps.HasCustomPostType),
		zap.String("post_endpoint", caps.PostEndpoint),
	)
	r.tracker.Succeed(StepPrepare, fmt.Sprintf("posting to %s", caps.PostType), progressProbed)
	return nil
}

func (r *run) filterStrategies(in []Strategy) []Strategy {
	if r.p.opts.CookieLogin {
		return in
	}
	out := in[:0]
	for _, s := range in {
		if s.Kind() != CredentialCookieSession {
			out = append(out, s)
		}
	}
	return out
}

// image uploads the first image as featured media. Failure never aborts the run.
func (r *run) image(ctx context.Context) {
	started := time.Now()
	defer r.p.metrics.observeStep(StepImage, started)
	r.tracker.Start(StepImage)

	if len(r.req.Images) == 0 {
		r.tracker.Succeed(StepImage, "no image to attach", progressImage)
		return
	}

	uploader := NewMediaUploader(r.client, r.p.opts.RequestTimeout, r.p.opts.UploadTimeout, r.p.opts.MaxImageBytes)
	id, err := uploader.Upload(ctx, r.req.Images[0], r.target, r.chain.PrepareActive(ctx), r.req.Title)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = newError(KindMediaUploadFailed, StepImage, "media upload failed", err)
		}
		r.warn(e)
		r.tracker.Fail(StepImage, "publishing without a featured image: "+e.Error(), progressImage)
		return
	}
	r.mediaID = id
	r.log.Info("featured image uploaded", zap.Int64("media_id", id))
	r.tracker.Succeed(StepImage, fmt.Sprintf("uploaded media %d", id), progressImage)
}

func (r *run) remote(ctx context.Context) (remotePost, error) {
	started := time.Now()
	defer r.p.metrics.observeStep(StepRemote, started)
	r.tracker.Start(StepRemote)

	if err := ctx.Err(); err != nil {
		e := newError(KindCancelled, StepRemote, "publishing was cancelled before the post was sent", err)
		r.tracker.Fail(StepRemote, e.Error(), progressSending)
		return remotePost{}, e
	}
	r.tracker.Advance(progressSending)

	// creating a post is not idempotent; once sent the call runs to completion
	sendCtx := context.WithoutCancel(ctx)

	post, err := r.submit(sendCtx, Compose(r.req, r.caps, r.mediaID))
	if err != nil {
		r.tracker.Fail(StepRemote, err.Error(), progressCreated)
		return remotePost{}, err
	}
	r.log.Info("remote post written",
		zap.Int64("post_id", post.ID),
		zap.String("credential", string(r.chain.Active().Kind())),
		zap.Bool("fallback_used", r.chain.FallbackUsed()),
	)
	r.tracker.Advance(progressCreated)

	r.followUp(sendCtx, post.ID)
	r.tracker.Advance(progressPatched)

	post = r.verify(ctx, post)
	r.tracker.Succeed(StepRemote, fmt.Sprintf("post %d is %s", post.ID, post.Status), progressVerified)
	return post, nil
}

// submit updates the known remote post when there is one, creating a new post
// when there is none or the site no longer has it.
func (r *run) submit(ctx context.Context, payload PostPayload) (remotePost, error) {
	target := r.caps.PostEndpoint
	if r.req.RemotePostID > 0 {
		target = r.ep.post(r.caps.PostType, r.req.RemotePostID)
	}

	res, err := r.send(ctx, target, payload)
	if err == nil && r.req.RemotePostID > 0 && res.StatusCode == http.StatusNotFound {
		r.log.Warn("remote post no longer exists, creating a new one",
			zap.Int64("previous_post_id", r.req.RemotePostID),
		)
		res, err = r.send(ctx, r.caps.PostEndpoint, payload)
	}
	if err != nil {
		return remotePost{}, newError(KindRemoteRejected, StepRemote, "post request failed", err)
	}
	if res.authRejected() {
		e := newError(KindAuthenticationExhausted, StepRemote, "site rejected every configured credential", nil)
		e.StatusCode = res.StatusCode
		return remotePost{}, e
	}
	if !res.ok() {
		e := newError(KindRemoteRejected, StepRemote, "site rejected the post: "+res.snippet(), nil)
		e.StatusCode = res.StatusCode
		return remotePost{}, e
	}

	var post remotePost
	if err := json.Unmarshal(res.Body, &post); err != nil || post.ID <= 0 {
		e := newError(KindRemoteRejected, StepRemote, "post response carried no id", err)
		e.StatusCode = res.StatusCode
		return remotePost{}, e
	}
	return post, nil
}

func (r *run) send(ctx context.Context, target string, payload PostPayload) (*response, error) {
	return r.chain.Do(ctx, func() (*http.Request, error) {
		return jsonRequest(http.MethodPost, target, payload)
	}, r.p.opts.RequestTimeout)
}

// followUp re-applies taxonomy and featured media on custom post type sites,
// whose plugins may ignore those fields on create. Failure leaves a live post
// with missing fields and is reported as a warning.
func (r *run) followUp(ctx context.Context, postID int64) {
	patch, ok := ComposeFollowUp(r.req, r.caps, r.mediaID)
	if !ok {
		return
	}
	res, err := r.chain.DoActive(ctx, func() (*http.Request, error) {
		return jsonRequest(http.MethodPost, r.ep.post(r.caps.PostType, postID), patch)
	}, r.p.opts.RequestTimeout)
	if err != nil {
		r.warn(newError(KindTaxonomyPatchFailed, StepRemote, fmt.Sprintf("post %d is live but its category was not applied", postID), err))
		return
	}
	if !res.ok() {
		e := newError(KindTaxonomyPatchFailed, StepRemote, fmt.Sprintf("post %d is live but its category was not applied", postID), nil)
		e.StatusCode = res.StatusCode
		r.warn(e)
	}
}

// verify re-reads the post to confirm its status and pick up the canonical
// link. An inconclusive read falls back to the create response.
func (r *run) verify(ctx context.Context, created remotePost) remotePost {
	var verified remotePost
	op := func() error {
		res, err := r.chain.DoActive(ctx, func() (*http.Request, error) {
			return jsonRequest(http.MethodGet, r.ep.post(r.caps.PostType, created.ID), nil)
		}, r.p.opts.RequestTimeout)
		if err != nil {
			return err
		}
		if res.StatusCode >= 500 {
			return fmt.Errorf("verification answered %d", res.StatusCode)
		}
		if !res.ok() {
			return backoff.Permanent(fmt.Errorf("verification answered %d", res.StatusCode))
		}
		if err := json.Unmarshal(res.Body, &verified); err != nil {
			return backoff.Permanent(fmt.Errorf("verification response unreadable: %w", err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.p.opts.VerifyBackoff
	retries := r.p.opts.VerifyRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		r.warn(newError(KindVerificationInconclusive, StepRemote, "could not confirm post status; trusting the create response", err))
		return created
	}

	want := expectedStatuses(r.req.Status)
	if !slices.Contains(want, verified.Status) {
		r.warn(newError(KindVerificationInconclusive, StepRemote,
			fmt.Sprintf("post status is %q, expected %v", verified.Status, want), nil))
	}
	if verified.Link == "" {
		verified.Link = created.Link
	}
	if verified.ID <= 0 {
		verified.ID = created.ID
	}
	if verified.Status == "" {
		verified.Status = created.Status
	}
	return verified
}

// persist links the local record to the remote post. It runs even when the
// caller has gone away because losing that link is worse than a late write.
func (r *run) persist(ctx context.Context, postID int64) bool {
	started := time.Now()
	defer r.p.metrics.observeStep(StepPersist, started)
	r.tracker.Start(StepPersist)

	pctx := context.WithoutCancel(ctx)
	if r.p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(pctx, r.p.opts.RequestTimeout)
		defer cancel()
	}

	var err error
	if r.p.store == nil {
		err = errors.New("no record store configured")
	} else {
		err = r.p.store.UpdateRemotePost(pctx, r.req.SourceID, postID, r.caps.HasCustomPostType)
	}
	if err != nil {
		e := newError(KindPersistenceFailed, StepPersist, fmt.Sprintf("remote post %d was created but the local record was not updated", postID), err)
		r.warn(e)
		r.tracker.Fail(StepPersist, e.Error(), progressDone)
		return false
	}
	r.tracker.Succeed(StepPersist, "local record updated", progressDone)
	return true
}

func (r *run) successMessage(postID int64, out Outcome, persisted bool) string {
	var msg string
	switch r.req.Status {
	case StatusScheduled:
		msg = fmt.Sprintf("Announcement scheduled on WordPress for %s (post %d)", scheduledLabel(r.req.ScheduledAt), postID)
	case StatusDraft:
		msg = fmt.Sprintf("Announcement saved as a WordPress draft (post %d)", postID)
	default:
		msg = fmt.Sprintf("Announcement published to WordPress (post %d)", postID)
	}
	if out.FallbackUsed {
		msg += fmt.Sprintf(" using fallback credential %s", out.AuthMethod)
	}
	if r.mediaID == 0 && len(r.req.Images) > 0 {
		msg += ", without a featured image"
	}
	if !persisted {
		msg += "; the local record could not be updated, reconcile it manually"
	}
	return msg
}
