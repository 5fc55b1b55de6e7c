// Package testutil provides the MinIO container harness for storage
// integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/vulniq/vulniq-api/internal/storage"
)

// TestEnvironment holds test infrastructure: one MinIO container backing
// both storage environments (prefix isolation is the boundary under test).
type TestEnvironment struct {
	Gateway        *storage.Gateway
	MinioContainer *tcminio.MinioContainer
	Ctx            context.Context
}

// SetupTestEnvironment starts a MinIO container, creates the prod and demo
// buckets, and returns a verified gateway. Call once per test or suite;
// cleanup is registered automatically.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	t.Log("Starting MinIO container...")
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	if err != nil {
		t.Fatalf("Failed to start minio container: %v", err)
	}
	t.Cleanup(func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate minio container: %v", err)
		}
	})

	endpoint, err := minioContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get minio endpoint: %v", err)
	}

	envSettings := storage.EnvSettings{
		Endpoint:        endpoint,
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Bucket:          "vulniq-test",
		UseSSL:          false,
	}
	demoSettings := envSettings
	demoSettings.Bucket = "vulniq-demo-test"

	gateway := storage.NewGateway(storage.Settings{
		Production: envSettings,
		Demo:       demoSettings,
	})

	// Buckets are created out-of-band in production; the harness does it
	// here. MinIO can need a moment after the port opens.
	var verifyErr error
	for i := 0; i < 10; i++ {
		verifyErr = CreateBuckets(ctx, envSettings, demoSettings.Bucket)
		if verifyErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if verifyErr != nil {
		t.Fatalf("Failed to create test buckets: %v", verifyErr)
	}

	if err := gateway.Verify(ctx); err != nil {
		t.Fatalf("Failed to verify gateway: %v", err)
	}

	t.Log("Test environment ready!")
	return &TestEnvironment{
		Gateway:        gateway,
		MinioContainer: minioContainer,
		Ctx:            ctx,
	}
}
