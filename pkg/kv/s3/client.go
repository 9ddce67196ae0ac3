package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig describes how to reach an S3 endpoint.
type ClientConfig struct {
	// Region is the AWS region (required)
	Region string `mapstructure:"region" validate:"required"`

	// Bucket is the bucket holding the records (required)
	Bucket string `mapstructure:"bucket" validate:"required"`

	// KeyPrefix is prepended to every object key
	KeyPrefix string `mapstructure:"key_prefix"`

	// Endpoint overrides the S3 endpoint (MinIO, Localstack, ...).
	// Setting it also enables path-style addressing.
	Endpoint string `mapstructure:"endpoint"`

	// AccessKeyID and SecretAccessKey select static credentials.
	// When empty the default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// SkipBucketCheck skips the HeadBucket call made when the store opens.
	SkipBucketCheck bool `mapstructure:"skip_bucket_check"`

	// MaxRetries is the number of attempts for retryable errors (default: 10)
	MaxRetries int `mapstructure:"max_retries" validate:"omitempty,gte=0"`
}

// NewClient builds an S3 client from cfg.
//
// Parameters:
//   - ctx: Context used while loading the AWS configuration
//   - cfg: Region, endpoint, credentials and retry settings
//
// Returns:
//   - *s3.Client: Client ready for use with NewS3Store
//   - error: Error if the AWS configuration cannot be loaded
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}
