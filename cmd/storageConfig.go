package cmd

import (
	"github.com/airbusgeo/georef/interface/storage/s3"
	"github.com/airbusgeo/georef/interface/storage/uri"
	"github.com/spf13/pflag"
)

type StorageConfig struct {
	WithGCS        bool
	WithS3         bool
	AwsRegion      string
	AwsEndpoint    string
	AwsCredentials string
}

const (
	WithGCS        = "with-gcs"
	WithS3         = "with-s3"
	AWSRegion      = "aws-region"
	AWSEndPoint    = "aws-endpoint"
	AwsCredentials = "aws-shared-credentials-file"
)

// StorageConfigFlags registers the storage flags in flags
func StorageConfigFlags(flags *pflag.FlagSet) *StorageConfig {
	storageConfig := StorageConfig{}
	flags.BoolVar(&storageConfig.WithGCS, WithGCS, false, "enable gs:// uris (may need authentication)")
	flags.BoolVar(&storageConfig.WithS3, WithS3, false, "enable s3:// uris (may need authentication)")
	flags.StringVar(&storageConfig.AwsRegion, AWSRegion, "", "define aws_region to use s3 storage (--with-s3)")
	flags.StringVar(&storageConfig.AwsEndpoint, AWSEndPoint, "", "define aws_endpoint to use s3 storage (--with-s3)")
	flags.StringVar(&storageConfig.AwsCredentials, AwsCredentials, "", "define aws_shared_credentials_file to use s3 storage (--with-s3)")
	return &storageConfig
}

// NewRouter creates the storage router configured by the flags
func (c *StorageConfig) NewRouter() *uri.Router {
	return uri.NewRouter(uri.Config{
		WithGCS: c.WithGCS,
		WithS3:  c.WithS3,
		S3: s3.Config{
			Region:          c.AwsRegion,
			Endpoint:        c.AwsEndpoint,
			CredentialsFile: c.AwsCredentials,
		},
	})
}
