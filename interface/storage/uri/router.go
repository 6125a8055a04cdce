package uri

import (
	"context"
	"fmt"
	"sync"

	"github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/interface/storage/filesystem"
	"github.com/airbusgeo/georef/interface/storage/gcs"
	"github.com/airbusgeo/georef/interface/storage/s3"
	"github.com/airbusgeo/georef/internal/log"
	"go.uber.org/zap"
)

// Config enables the remote storages
type Config struct {
	WithGCS bool
	WithS3  bool
	S3      s3.Config
}

// Router is a storage.Strategy dispatching each call on the scheme of the uri.
// Remote strategies are created on first use.
type Router struct {
	config     Config
	mutex      sync.Mutex
	strategies map[string]storage.Strategy
}

var _ storage.Strategy = (*Router)(nil)

func NewRouter(config Config) *Router {
	return &Router{config: config, strategies: map[string]storage.Strategy{}}
}

// Strategy returns the storage strategy handling the uri
func (r *Router) Strategy(ctx context.Context, rawURI string) (storage.Strategy, error) {
	u, err := ParseUri(rawURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uri %s: %w", rawURI, err)
	}
	protocol := u.Protocol()
	if u.IsLocal() {
		protocol = "file"
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if s, ok := r.strategies[protocol]; ok {
		return s, nil
	}

	var s storage.Strategy
	switch protocol {
	case "file":
		s, err = filesystem.NewFileSystemStrategy(ctx)
	case "gs":
		if !r.config.WithGCS {
			return nil, fmt.Errorf("gs storage is not enabled (see -with-gcs): %s", rawURI)
		}
		s, err = gcs.NewGsStrategy(ctx)
	case "s3":
		if !r.config.WithS3 {
			return nil, fmt.Errorf("s3 storage is not enabled (see -with-s3): %s", rawURI)
		}
		s, err = s3.NewS3Strategy(ctx, r.config.S3)
	default:
		return nil, fmt.Errorf("failed to determine storage strategy for protocol '%s'", protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage strategy: %w", protocol, err)
	}
	log.Logger(ctx).Debug("storage strategy created", zap.String("protocol", protocol))
	r.strategies[protocol] = s
	return s, nil
}

func (r *Router) Download(ctx context.Context, uri string, options ...storage.Option) ([]byte, error) {
	s, err := r.Strategy(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage strategy: %w", err)
	}
	return s.Download(ctx, uri, options...)
}

func (r *Router) Upload(ctx context.Context, uri string, data []byte, options ...storage.Option) error {
	s, err := r.Strategy(ctx, uri)
	if err != nil {
		return fmt.Errorf("failed to get storage strategy: %w", err)
	}
	return s.Upload(ctx, uri, data, options...)
}

func (r *Router) Delete(ctx context.Context, uri string, options ...storage.Option) error {
	s, err := r.Strategy(ctx, uri)
	if err != nil {
		return fmt.Errorf("failed to get storage strategy: %w", err)
	}
	return s.Delete(ctx, uri, options...)
}

func (r *Router) Exist(ctx context.Context, uri string) (bool, error) {
	s, err := r.Strategy(ctx, uri)
	if err != nil {
		return false, fmt.Errorf("failed to get storage strategy: %w", err)
	}
	return s.Exist(ctx, uri)
}
