package bootstrap

import (
	"github.com/obi2na/courier/config"
	"github.com/obi2na/courier/internal/db/models"
	"github.com/obi2na/courier/internal/service/announcement"
	"github.com/obi2na/courier/internal/wordpress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type ServiceContainer struct {
	AnnouncementSvc announcement.Service
	Pipeline        *wordpress.Pipeline
	Registry        *prometheus.Registry
}

// PipelineOptions converts config into pipeline options, keeping defaults for
// zero values the config leaves unset.
func PipelineOptions(c config.WordPressConfig) wordpress.Options {
	opts := wordpress.DefaultOptions()
	if c.ProbeTimeout > 0 {
		opts.ProbeTimeout = c.ProbeTimeout
	}
	if c.RequestTimeout > 0 {
		opts.RequestTimeout = c.RequestTimeout
	}
	opts.UploadTimeout = c.UploadTimeout
	if c.VerifyRetries >= 0 {
		opts.VerifyRetries = c.VerifyRetries
	}
	if c.VerifyBackoff > 0 {
		opts.VerifyBackoff = c.VerifyBackoff
	}
	opts.CookieLogin = c.CookieLogin
	opts.AnonymousFallback = c.AnonymousFallback
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	if c.MaxImageBytes > 0 {
		opts.MaxImageBytes = c.MaxImageBytes
	}
	return opts
}

func NewServiceContainer(db models.DBTX, cfg config.AppConfig) *ServiceContainer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// create service singletons
	queries := models.New(db)
	store := announcement.NewRecordStore(queries)
	pipeline := wordpress.NewPipeline(store, wordpress.NewMetrics(registry), PipelineOptions(cfg.WordPress))
	announcementSvc := announcement.NewAnnouncementService(queries, pipeline)

	return &ServiceContainer{
		AnnouncementSvc: announcementSvc,
		Pipeline:        pipeline,
		Registry:        registry,
	}
}
