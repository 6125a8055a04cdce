package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	geostorage "github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Config of the s3 client. Empty fields fall back to the default aws configuration.
type Config struct {
	Region          string
	Endpoint        string
	CredentialsFile string
}

type s3Strategy struct {
	client *s3.Client
}

var retriableCodes = map[string]bool{
	"InternalError":      true,
	"RequestTimeout":     true,
	"ServiceUnavailable": true,
	"SlowDown":           true,
}

func s3Error(err error) error {
	if err == nil || utils.Temporary(err) {
		return err
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch {
		case ae.ErrorCode() == "NoSuchBucket" || ae.ErrorCode() == "NoSuchKey" || ae.ErrorCode() == "NotFound":
			return fmt.Errorf("%v: %w", err, geostorage.ErrFileNotFound)
		case retriableCodes[ae.ErrorCode()]:
			return utils.MakeTemporary(err)
		}
	}
	return err
}

func NewS3Strategy(ctx context.Context, cfg Config) (geostorage.Strategy, error) {
	var opts []func(*awsConfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsConfig.WithRegion(cfg.Region))
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, awsConfig.WithSharedCredentialsFiles([]string{cfg.CredentialsFile}))
	}
	config, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	client := s3.NewFromConfig(config, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3Strategy{client: client}, nil
}

// Parse splits s3://bucket/path/to/object into bucket and object
func Parse(uri string) (bucket, object string, err error) {
	uri = strings.TrimPrefix(strings.TrimPrefix(uri, "s3://"), "/")
	sep := strings.Index(uri, "/")
	if sep <= 0 || sep == len(uri)-1 {
		return "", "", fmt.Errorf("missing bucket or object")
	}
	return uri[:sep], uri[sep+1:], nil
}

func byteRange(offset, length int64) *string {
	switch {
	case length > 0:
		return aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	case offset > 0:
		return aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	return nil
}

func (s s3Strategy) Download(ctx context.Context, uri string, options ...geostorage.Option) ([]byte, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	op := geostorage.Apply(options...)
	var data []byte
	err = geostorage.Retry(ctx, op, utils.Temporary, func() error {
		r, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &object,
			Range:  byteRange(op.Offset, op.Length),
		})
		if err != nil {
			return fmt.Errorf("getobject: %w", s3Error(err))
		}
		defer r.Body.Close()
		if data, err = io.ReadAll(r.Body); err != nil {
			return fmt.Errorf("read: %w", utils.MakeTemporary(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Logger(ctx).Debug("object downloaded", zap.String("bucket", bucket), zap.String("object", object))
	return data, nil
}

func (s s3Strategy) Upload(ctx context.Context, uri string, data []byte, options ...geostorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	op := geostorage.Apply(options...)
	return geostorage.Retry(ctx, op, utils.Temporary, func() error {
		input := &s3.PutObjectInput{
			Bucket: &bucket,
			Key:    &object,
			Body:   bytes.NewReader(data),
		}
		if op.StorageClass != "" {
			input.StorageClass = types.StorageClass(op.StorageClass)
		}
		if _, err := s.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("putobject: %w", s3Error(err))
		}
		return nil
	})
}

func (s s3Strategy) Delete(ctx context.Context, uri string, options ...geostorage.Option) error {
	bucket, object, err := Parse(uri)
	if err != nil {
		return fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	op := geostorage.Apply(options...)
	if !op.IgnoreNotFound {
		// DeleteObject succeeds on missing keys
		if _, err := s.Exist(ctx, uri); err != nil {
			return err
		}
	}
	return geostorage.Retry(ctx, op, utils.Temporary, func() error {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &object}); err != nil {
			return fmt.Errorf("deleteobject: %w", s3Error(err))
		}
		return nil
	})
}

func (s s3Strategy) Exist(ctx context.Context, uri string) (bool, error) {
	bucket, object, err := Parse(uri)
	if err != nil {
		return false, fmt.Errorf("failed to decode URI %s : %w", uri, err)
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &object}); err != nil {
		err = s3Error(err)
		if errors.Is(err, geostorage.ErrFileNotFound) {
			return false, geostorage.ErrFileNotFound
		}
		return false, fmt.Errorf("failed to check if file exist on storage: %w", err)
	}
	return true, nil
}
