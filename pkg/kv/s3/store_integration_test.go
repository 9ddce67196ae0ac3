//go:build integration
// +build integration

package s3

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/marmos91/dittometa/pkg/kv"
	kvtesting "github.com/marmos91/dittometa/pkg/kv/testing"
	"github.com/stretchr/testify/require"
)

// TestS3Store_Integration runs the kv conformance suite against Localstack.
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/kv/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Store_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	client, err := NewClient(ctx, ClientConfig{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		MaxRetries:      3,
	})
	require.NoError(t, err)

	bucketName := "dittometa-test-bucket"
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	require.NoError(t, err, "create test bucket")

	defer func() {
		paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				break
			}
			for _, obj := range page.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucketName),
					Key:    obj.Key,
				})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(bucketName),
		})
	}()

	suite := &kvtesting.StoreTestSuite{
		NewStore: func(t *testing.T) kv.Store {
			// Each test gets its own prefix so List results stay isolated.
			// The bucket was created above, so the access check is redundant.
			store, err := NewS3Store(ctx, S3StoreConfig{
				Client:          client,
				Bucket:          bucketName,
				KeyPrefix:       "test/" + uuid.NewString() + "/",
				SkipBucketCheck: true,
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}
