package wordpress

import (
	"context"
	"net/http"
	"time"

	"github.com/obi2na/courier/internal/logger"
	"go.uber.org/zap"
)

// AuthAttempt is one round trip made while walking the fallback chain.
type AuthAttempt struct {
	Kind       CredentialKind
	StatusCode int
	Err        error
}

// authChain walks an ordered strategy list. Each strategy is tried at most
// once; the first one that is not rejected with 401/403 stays active for the
// rest of the run.
type authChain struct {
	strategies []Strategy
	active     int
	prepared   map[int]error
	client     *Client
	ep         endpoints
	timeout    time.Duration
	metrics    *Metrics
	attempts   []AuthAttempt
}

func newAuthChain(strategies []Strategy, client *Client, ep endpoints, timeout time.Duration, metrics *Metrics) *authChain {
	return &authChain{
		strategies: strategies,
		prepared:   make(map[int]error),
		client:     client,
		ep:         ep,
		timeout:    timeout,
		metrics:    metrics,
	}
}

// Active returns the strategy currently in use.
func (a *authChain) Active() Strategy {
	if a.active >= len(a.strategies) {
		return anonymousStrategy{}
	}
	return a.strategies[a.active]
}

// FallbackUsed reports whether the chain moved past its first strategy.
func (a *authChain) FallbackUsed() bool {
	return a.active > 0
}

// ensurePrepared runs the strategy's Prepare step once.
func (a *authChain) ensurePrepared(ctx context.Context, idx int) error {
	if err, done := a.prepared[idx]; done {
		return err
	}
	var err error
	if p, ok := a.strategies[idx].(Preparer); ok {
		pctx := ctx
		if a.timeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		err = p.Prepare(pctx, a.client, a.ep)
	}
	a.prepared[idx] = err
	return err
}

// PrepareActive makes sure the active strategy is ready and returns it.
// A failed preparation is logged; the strategy is returned regardless.
func (a *authChain) PrepareActive(ctx context.Context) Strategy {
	if a.active < len(a.strategies) {
		if err := a.ensurePrepared(ctx, a.active); err != nil {
			logger.With(ctx).Warn("active credential could not be prepared",
				zap.String("credential", string(a.Active().Kind())),
				zap.Error(err),
			)
		}
	}
	return a.Active()
}

// DoActive sends one request with the active strategy and never advances the chain.
func (a *authChain) DoActive(ctx context.Context, build func() (*http.Request, error), timeout time.Duration) (*response, error) {
	s := a.PrepareActive(ctx)
	req, err := build()
	if err != nil {
		return nil, err
	}
	s.Apply(req)
	return a.client.do(ctx, req, timeout)
}

// Do sends the request with the active strategy and, on 401/403, retries with
// each remaining strategy in order. It returns the last response once the
// chain is exhausted; callers detect exhaustion with authRejected.
func (a *authChain) Do(ctx context.Context, build func() (*http.Request, error), timeout time.Duration) (*response, error) {
	log := logger.With(ctx)
	var last *response
	for ; a.active < len(a.strategies); a.active++ {
		s := a.strategies[a.active]
		if err := a.ensurePrepared(ctx, a.active); err != nil {
			log.Warn("skipping credential that could not be prepared",
				zap.String("credential", string(s.Kind())),
				zap.Error(err),
			)
			a.attempts = append(a.attempts, AuthAttempt{Kind: s.Kind(), Err: err})
			a.metrics.authAttempt(s.Kind(), "prepare_failed")
			continue
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		s.Apply(req)

		res, err := a.client.do(ctx, req, timeout)
		if err != nil {
			a.attempts = append(a.attempts, AuthAttempt{Kind: s.Kind(), Err: err})
			a.metrics.authAttempt(s.Kind(), "network_error")
			return nil, err
		}
		a.attempts = append(a.attempts, AuthAttempt{Kind: s.Kind(), StatusCode: res.StatusCode})
		if !res.authRejected() {
			a.metrics.authAttempt(s.Kind(), "accepted")
			return res, nil
		}

		a.metrics.authAttempt(s.Kind(), "rejected")
		log.Warn("credential rejected by site",
			zap.String("credential", string(s.Kind())),
			zap.Int("status", res.StatusCode),
		)
		last = res
	}
	if last == nil {
		last = &response{StatusCode: http.StatusUnauthorized}
	}
	return last, nil
}
