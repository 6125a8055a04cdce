package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	geostorage "github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/georef/internal/utils"
	"go.uber.org/zap"
)

type gsStrategy struct {
	gsClient *storage.Client
}

var retriableOAuth2Errors = []string{
	"cannot assign requested address",
	"connection refused",
	"connection reset",
	"timeout",
	"broken pipe",
	"client connection force closed",
	"502 Bad Gateway",
}

var retriableSuffixErrors = []string{
	"http2: client connection lost",
	"http2: client connection force closed via ClientConn.Close",
	"EOF", // Unexpected EOF is a temporary error
}

func gsError(err error) error {
	if err == nil {
		return nil
	}
	if utils.Temporary(err) {
		return err
	}

	// oauth2 does not transfer the temporary status of error
	if strings.Contains(err.Error(), "oauth2: cannot fetch token:") {
		for _, e := range retriableOAuth2Errors {
			if strings.Contains(err.Error(), e) {
				return utils.MakeTemporary(err)
			}
		}
	}

	for _, e := range retriableSuffixErrors {
		if strings.HasSuffix(err.Error(), e) {
			return utils.MakeTemporary(err)
		}
	}
	return err
}

func NewGsStrategy(ctx context.Context) (geostorage.Strategy, error) {
	gsClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gs Client : %w", gsError(err))
	}

	return gsStrategy{gsClient: gsClient}, nil
}

func (s gsStrategy) Download(ctx context.Context, uri string, options ...geostorage.Option) ([]byte, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	buf := &bytes.Buffer{}
	if err := s.downloadObjectTo(ctx, bucket, object, buf, options...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s gsStrategy) Upload(ctx context.Context, uri string, data []byte, options ...geostorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	return s.uploadObjectFrom(ctx, bucket, object, bytes.NewReader(data), options...)
}

func (s gsStrategy) Delete(ctx context.Context, uri string, options ...geostorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	op := geostorage.Apply(options...)
	err = geostorage.Retry(ctx, op, utils.Temporary, func() error {
		return gsError(s.gsClient.Bucket(bucket).Object(object).Delete(ctx))
	})
	if errors.Is(err, storage.ErrObjectNotExist) {
		if op.IgnoreNotFound {
			return nil
		}
		return geostorage.ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s gsStrategy) Exist(ctx context.Context, uri string) (bool, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return false, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	if _, err = s.gsClient.Bucket(bucket).Object(object).Attrs(ctx); err != nil {
		switch err {
		case storage.ErrBucketNotExist:
			return false, fmt.Errorf("bucket not exist: %w", err)
		case storage.ErrObjectNotExist:
			return false, geostorage.ErrFileNotFound
		default:
			return false, fmt.Errorf("failed to check if file exist on storage: %w", gsError(err))
		}
	}

	return true, nil
}

func (s gsStrategy) downloadObjectTo(ctx context.Context, bucket, object string, w io.Writer, opts ...geostorage.Option) error {
	op := geostorage.Apply(opts...)
	curOffset := op.Offset
	bytesRemaining := op.Length
	err := geostorage.Retry(ctx, op, utils.Temporary, func() error {
		r, err := s.gsClient.Bucket(bucket).Object(object).NewRangeReader(ctx, curOffset, bytesRemaining)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return geostorage.ErrFileNotFound
			}
			return fmt.Errorf("newreader: %w", gsError(err))
		}
		n, err := io.Copy(w, r)
		r.Close()
		// Resume where the previous try stopped
		curOffset += n
		if bytesRemaining > 0 {
			bytesRemaining -= n
		}
		if err != nil {
			return fmt.Errorf("copy: %w", gsError(err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Logger(ctx).Debug("object downloaded", zap.String("bucket", bucket), zap.String("object", object))
	return nil
}

func (s gsStrategy) uploadObjectFrom(ctx context.Context, bucket, object string, r io.ReadSeeker, opts ...geostorage.Option) error {
	op := geostorage.Apply(opts...)
	off, _ := r.Seek(0, io.SeekCurrent)
	return geostorage.Retry(ctx, op, utils.Temporary, func() error {
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("r.reset: %w", gsError(err))
		}
		w := s.gsClient.Bucket(bucket).Object(object).NewWriter(ctx)
		if op.StorageClass != "" {
			w.StorageClass = op.StorageClass
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			return fmt.Errorf("copy: %w", gsError(err))
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("w.close: %w", gsError(err))
		}
		return nil
	})
}
