package bootstrap

import (
	"testing"
	"time"

	"github.com/obi2na/courier/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineOptions(t *testing.T) {
	opts := PipelineOptions(config.WordPressConfig{
		ProbeTimeout:  5 * time.Second,
		VerifyRetries: 0,
		CookieLogin:   false,
	})

	assert.Equal(t, 5*time.Second, opts.ProbeTimeout)
	assert.Equal(t, 30*time.Second, opts.RequestTimeout)
	assert.Equal(t, 0, opts.VerifyRetries)
	assert.False(t, opts.CookieLogin)
	assert.False(t, opts.AnonymousFallback)
	assert.Equal(t, "courier/1.0", opts.UserAgent)
}

func TestNewServiceContainerRegistersMetrics(t *testing.T) {
	c := NewServiceContainer(nil, config.AppConfig{})
	require.NotNil(t, c.AnnouncementSvc)
	require.NotNil(t, c.Pipeline)

	families, err := c.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}
