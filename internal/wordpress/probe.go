package wordpress

import (
	"context"
	"net/http"
	"time"

	"github.com/obi2na/courier/internal/logger"
	"go.uber.org/zap"
)

// Prober discovers which REST routes a site exposes.
type Prober struct {
	client  *Client
	timeout time.Duration
}

func NewProber(client *Client, timeout time.Duration) *Prober {
	return &Prober{client: client, timeout: timeout}
}

// exists treats every status except 404 as a real route. Sites commonly reject
// HEAD with 401/403 on routes that do exist.
func (p *Prober) exists(ctx context.Context, rawURL string) (found bool, reachable bool) {
	status, err := p.client.head(ctx, rawURL, p.timeout)
	if err != nil {
		logger.With(ctx).Debug("capability probe failed, treating as absent",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return false, false
	}
	return status != http.StatusNotFound, true
}

// Probe checks the custom taxonomy route and, only if it exists, the two
// custom post type spellings. It never fails: when no probe reaches the site
// the conservative capability set is returned along with a DiscoveryDegraded
// error for the caller to record.
func (p *Prober) Probe(ctx context.Context, baseURL string) (Capabilities, error) {
	ep := endpoints{base: baseURL}
	caps := Capabilities{
		PostType:     standardPostType,
		PostEndpoint: ep.route(standardPostType),
	}

	hasTaxonomy, reachable := p.exists(ctx, ep.route(customTaxonomy))
	if !reachable {
		return caps, newError(KindDiscoveryDegraded, StepPrepare, "site did not answer capability probes; using standard posts and categories", nil)
	}
	if !hasTaxonomy {
		return caps, nil
	}
	caps.HasCustomTaxonomy = true

	for _, postType := range []string{customPostType, customPostTypeLegacy} {
		found, _ := p.exists(ctx, ep.route(postType))
		if found {
			caps.HasCustomPostType = true
			caps.PostType = postType
			caps.PostEndpoint = ep.route(postType)
			break
		}
	}
	return caps, nil
}
