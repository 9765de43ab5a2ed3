package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/go-drift/navstate/cmd/navstate/internal/config"
	"github.com/go-drift/navstate/pkg/persist"
)

// openStore opens the configured backend. closeFn releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (store persist.Store, closeFn func() error, err error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create snapshot directory: %w", err)
		}
		db, err := persist.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil

	case config.BackendS3:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return persist.NewS3Store(client, cfg.Bucket, cfg.Prefix), func() error { return nil }, nil

	default:
		return persist.NewMemoryStore(), func() error { return nil }, nil
	}
}

// newS3Client builds a client from the SDK's default credential and region
// chain. A custom endpoint (MinIO, LocalStack) switches to path-style
// addressing.
func newS3Client(ctx context.Context, cfg config.StoreConfig) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// keyLister is implemented by stores that can enumerate keys.
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}
