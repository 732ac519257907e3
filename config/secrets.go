package config

import (
	"context"
	"fmt"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type accessFunc func(ctx context.Context, name string) (string, error)

// GCPSecretInjector reads the DB password and JWT secret from Google Secret Manager.
type GCPSecretInjector struct {
	access  accessFunc
	timeout time.Duration
	close   func() error
}

func NewGCPSecretInjector(ctx context.Context, opts ...option.ClientOption) (*GCPSecretInjector, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	access := func(ctx context.Context, name string) (string, error) {
		res, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return "", err
		}
		return string(res.GetPayload().GetData()), nil
	}
	return &GCPSecretInjector{access: access, timeout: 10 * time.Second, close: client.Close}, nil
}

func (g *GCPSecretInjector) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

func secretVersionName(project, secret string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret)
}

func (g *GCPSecretInjector) InjectSecrets(cfg *AppConfig) error {
	s := cfg.Secrets
	if s.ProjectID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	targets := []struct {
		secret string
		dst    *string
	}{
		{s.DBPasswordSecret, &cfg.DB.Password},
		{s.JWTSecretName, &cfg.Auth.JWTSecret},
	}
	for _, t := range targets {
		if t.secret == "" {
			continue
		}
		value, err := g.access(ctx, secretVersionName(s.ProjectID, t.secret))
		if err != nil {
			return fmt.Errorf("reading secret %s: %w", t.secret, err)
		}
		*t.dst = value
	}
	return nil
}
