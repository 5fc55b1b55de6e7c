package testutil

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vulniq/vulniq-api/internal/storage"
)

// CreateBuckets provisions the production bucket from settings plus the
// named demo bucket on the same endpoint.
func CreateBuckets(ctx context.Context, settings storage.EnvSettings, demoBucket string) error {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKeyID, settings.SecretAccessKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket admin client: %w", err)
	}

	for _, bucket := range []string{settings.Bucket, demoBucket} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
		}
	}
	return nil
}
