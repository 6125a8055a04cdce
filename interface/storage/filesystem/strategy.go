package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/internal/log"
	"go.uber.org/zap"
)

type fileSystemStrategy struct {
}

func NewFileSystemStrategy(ctx context.Context) (storage.Strategy, error) {
	return fileSystemStrategy{}, nil
}

func formatError(err error) error {
	var epath *os.PathError
	if errors.As(err, &epath) && os.IsNotExist(epath) {
		return storage.ErrFileNotFound
	}
	return err
}

func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func (s fileSystemStrategy) Download(ctx context.Context, uri string, options ...storage.Option) ([]byte, error) {
	opts := storage.Apply(options...)
	f, err := os.Open(localPath(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", formatError(err))
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Offset > 0 {
		if _, err := f.Seek(opts.Offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek file: %w", err)
		}
	}
	if opts.Length > 0 {
		r = io.LimitReader(f, opts.Length)
	}
	return io.ReadAll(r)
}

func (s fileSystemStrategy) Upload(ctx context.Context, uri string, data []byte, options ...storage.Option) error {
	path := localPath(uri)

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	log.Logger(ctx).Debug("file written", zap.String("uri", uri), zap.Int("size", len(data)))
	return nil
}

func (s fileSystemStrategy) Delete(ctx context.Context, uri string, options ...storage.Option) error {
	opts := storage.Apply(options...)

	if err := os.Remove(localPath(uri)); err != nil {
		if !opts.IgnoreNotFound || !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove file: %w", formatError(err))
		}
	}

	return nil
}

func (s fileSystemStrategy) Exist(ctx context.Context, uri string) (bool, error) {
	if _, err := os.Stat(localPath(uri)); err != nil {
		if os.IsNotExist(err) {
			return false, storage.ErrFileNotFound
		}
		return false, err
	}
	return true, nil
}
