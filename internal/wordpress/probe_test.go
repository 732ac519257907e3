package wordpress

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	tests := []struct {
		name     string
		routes   []string
		expected Capabilities
	}{
		{
			name:     "standard site",
			expected: Capabilities{PostType: standardPostType},
		},
		{
			name:     "custom taxonomy and post type",
			routes:   []string{customTaxonomy, customPostType},
			expected: Capabilities{HasCustomTaxonomy: true, HasCustomPostType: true, PostType: customPostType},
		},
		{
			name:     "custom taxonomy with legacy post type spelling",
			routes:   []string{customTaxonomy, customPostTypeLegacy},
			expected: Capabilities{HasCustomTaxonomy: true, HasCustomPostType: true, PostType: customPostTypeLegacy},
		},
		{
			name:     "custom taxonomy without post type",
			routes:   []string{customTaxonomy},
			expected: Capabilities{HasCustomTaxonomy: true, PostType: standardPostType},
		},
		{
			name:     "post type without taxonomy is never probed",
			routes:   []string{customPostType},
			expected: Capabilities{PostType: standardPostType},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			site := newFakeSite(t)
			for _, r := range tc.routes {
				site.routes[r] = true
			}
			client, err := NewClient(nil, "test")
			require.NoError(t, err)

			caps, err := NewProber(client, time.Second).Probe(context.Background(), site.URL())
			require.NoError(t, err)

			tc.expected.PostEndpoint = site.URL() + restPrefix + "/" + tc.expected.PostType
			assert.Equal(t, tc.expected, caps)
			if !caps.HasCustomTaxonomy {
				assert.Len(t, site.requestsTo(http.MethodHead, restPrefix+"/"+customPostType), 0)
			}
		})
	}
}

func TestProbeUnreachableSiteIsConservative(t *testing.T) {
	site := newFakeSite(t)
	base := site.URL()
	site.srv.Close()

	client, err := NewClient(nil, "test")
	require.NoError(t, err)

	caps, err := NewProber(client, time.Second).Probe(context.Background(), base)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscoveryDegraded))
	assert.False(t, KindOf(err).Fatal())
	assert.False(t, caps.UsesCustomTaxonomy())
	assert.Equal(t, standardPostType, caps.PostType)
}
