// Package storage is the environment-scoped object storage gateway. Every
// operation takes an explicit Environment and refuses keys outside that
// environment's mandatory prefix, so objects cannot be read or written
// across the production/demo boundary regardless of what the caller does.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("vulniq/storage")

// Sentinel errors for storage operations
var (
	// ErrObjectNotFound indicates the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates insufficient permissions for the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrNetworkError indicates a network connectivity issue
	ErrNetworkError = errors.New("network error")

	// ErrPrefixViolation indicates a key outside its environment's mandatory
	// prefix. This is a programming error in trusted calling code, never
	// adversarial input (untrusted keys are rejected by the key validator
	// before they reach this layer), so it surfaces as a hard error that
	// must not be caught-and-ignored.
	ErrPrefixViolation = errors.New("storage key outside environment prefix")
)

// DefaultPresignExpiry is used when a caller passes a non-positive expiry.
const DefaultPresignExpiry = time.Hour

// Gateway resolves the correct bucket, credentials, and mandatory key
// prefix per environment. Clients are built lazily, once per environment
// per process; the two-entry registry is the only shared state and is
// read-only after construction.
type Gateway struct {
	settings Settings

	once    [2]sync.Once
	clients [2]*minio.Client
	errs    [2]error
}

// NewGateway creates a gateway over the given settings. No connection is
// made until the first operation per environment.
func NewGateway(settings Settings) *Gateway {
	return &Gateway{settings: settings}
}

// envSettings returns the settings for one environment.
func (g *Gateway) envSettings(env Environment) EnvSettings {
	if env == Demo {
		return g.settings.Demo
	}
	return g.settings.Production
}

// client returns the lazily constructed MinIO client for env.
func (g *Gateway) client(env Environment) (*minio.Client, error) {
	g.once[env].Do(func() {
		s := g.envSettings(env)
		client, err := minio.New(s.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKeyID, s.SecretAccessKey, ""),
			Secure: s.UseSSL,
		})
		if err != nil {
			g.errs[env] = fmt.Errorf("failed to create S3 client for %s: %w", env, err)
			return
		}
		g.clients[env] = client
	})
	return g.clients[env], g.errs[env]
}

// Verify checks that both environments' buckets exist and are reachable.
// Called at startup; buckets must be created out-of-band.
func (g *Gateway) Verify(ctx context.Context) error {
	for _, env := range []Environment{Production, Demo} {
		client, err := g.client(env)
		if err != nil {
			return err
		}
		bucket := g.envSettings(env).Bucket
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check %s bucket existence: %w", env, err)
		}
		if !exists {
			return fmt.Errorf("%s bucket %q does not exist: create it before starting the server", env, bucket)
		}
	}
	return nil
}

// AssertKeyPrefix rejects any key that does not start with the mandatory
// prefix for env. Always called before I/O, never after.
func AssertKeyPrefix(env Environment, key string) error {
	prefix := env.KeyPrefix()
	if !strings.HasPrefix(key, prefix) {
		return fmt.Errorf("%w: key %q does not start with %q for %s environment",
			ErrPrefixViolation, key, prefix, env)
	}
	return nil
}

// PresignedUploadURL generates a presigned PUT URL for key in env's bucket.
func (g *Gateway) PresignedUploadURL(ctx context.Context, env Environment, key string, expiry time.Duration) (string, error) {
	ctx, span := g.startSpan(ctx, "storage.presign_upload", env, key)
	defer span.End()

	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	client, err := g.checked(span, env, key)
	if err != nil {
		return "", err
	}

	u, err := client.PresignedPutObject(ctx, g.envSettings(env).Bucket, key, expiry)
	if err != nil {
		return "", g.fail(span, err, "presign upload")
	}
	return u.String(), nil
}

// PresignedDownloadURL generates a presigned GET URL for key in env's bucket.
func (g *Gateway) PresignedDownloadURL(ctx context.Context, env Environment, key string, expiry time.Duration) (string, error) {
	ctx, span := g.startSpan(ctx, "storage.presign_download", env, key)
	defer span.End()

	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	client, err := g.checked(span, env, key)
	if err != nil {
		return "", err
	}

	u, err := client.PresignedGetObject(ctx, g.envSettings(env).Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", g.fail(span, err, "presign download")
	}
	return u.String(), nil
}

// Delete removes an object from env's bucket.
func (g *Gateway) Delete(ctx context.Context, env Environment, key string) error {
	ctx, span := g.startSpan(ctx, "storage.delete", env, key)
	defer span.End()

	client, err := g.checked(span, env, key)
	if err != nil {
		return err
	}

	if err := client.RemoveObject(ctx, g.envSettings(env).Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return g.fail(span, err, "delete")
	}
	return nil
}

// UploadText stores a text object at key in env's bucket.
func (g *Gateway) UploadText(ctx context.Context, env Environment, key, text string) error {
	ctx, span := g.startSpan(ctx, "storage.upload_text", env, key)
	defer span.End()
	span.SetAttributes(attribute.Int("file.size", len(text)))

	client, err := g.checked(span, env, key)
	if err != nil {
		return err
	}

	reader := strings.NewReader(text)
	_, err = client.PutObject(ctx, g.envSettings(env).Bucket, key, reader, int64(len(text)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return g.fail(span, err, "upload text")
	}
	return nil
}

// DownloadText retrieves a text object from env's bucket.
func (g *Gateway) DownloadText(ctx context.Context, env Environment, key string) (string, error) {
	ctx, span := g.startSpan(ctx, "storage.download_text", env, key)
	defer span.End()

	client, err := g.checked(span, env, key)
	if err != nil {
		return "", err
	}

	object, err := client.GetObject(ctx, g.envSettings(env).Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", g.fail(span, err, "download text")
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return "", g.fail(span, err, "download text")
	}

	span.SetAttributes(attribute.Int("file.size", len(data)))
	return string(data), nil
}

// LatestKey returns the greatest key under keyPrefix, or ErrObjectNotFound
// when nothing is stored there. Generated keys embed a fixed-width
// millisecond timestamp, so the greatest key is the most recent write.
func (g *Gateway) LatestKey(ctx context.Context, env Environment, keyPrefix string) (string, error) {
	ctx, span := g.startSpan(ctx, "storage.latest_key", env, keyPrefix)
	defer span.End()

	client, err := g.checked(span, env, keyPrefix)
	if err != nil {
		return "", err
	}

	var latest string
	for obj := range client.ListObjects(ctx, g.envSettings(env).Bucket, minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return "", g.fail(span, obj.Err, "list objects")
		}
		if obj.Key > latest {
			latest = obj.Key
		}
	}
	if latest == "" {
		return "", fmt.Errorf("latest key under %q: %w", keyPrefix, ErrObjectNotFound)
	}

	span.SetAttributes(attribute.String("storage.latest_key", latest))
	return latest, nil
}

// MaxDeleteObjects caps one DeletePrefix pass. A sanity limit so a
// misconfigured purge cannot walk an unbounded listing.
const MaxDeleteObjects = 10000

// DeletePrefix removes every object under keyPrefix in env's bucket and
// returns how many were deleted. keyPrefix itself must satisfy the
// environment prefix rule, so a purge can never cross the boundary.
func (g *Gateway) DeletePrefix(ctx context.Context, env Environment, keyPrefix string) (int, error) {
	ctx, span := g.startSpan(ctx, "storage.delete_prefix", env, keyPrefix)
	defer span.End()

	client, err := g.checked(span, env, keyPrefix)
	if err != nil {
		return 0, err
	}

	bucket := g.envSettings(env).Bucket
	var deleted int
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return deleted, g.fail(span, obj.Err, "list objects")
		}
		if deleted >= MaxDeleteObjects {
			err := fmt.Errorf("delete prefix %q: object count exceeds limit %d", keyPrefix, MaxDeleteObjects)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return deleted, err
		}
		if err := client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, g.fail(span, err, "delete object")
		}
		deleted++
	}

	span.SetAttributes(attribute.Int("objects.deleted", deleted))
	return deleted, nil
}

// checked runs the prefix assertion and client lookup shared by every
// operation, recording failures on the span.
func (g *Gateway) checked(span trace.Span, env Environment, key string) (*minio.Client, error) {
	if err := AssertKeyPrefix(env, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	client, err := g.client(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return client, nil
}

func (g *Gateway) startSpan(ctx context.Context, name string, env Environment, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("storage.env", env.String()),
			attribute.String("storage.key", key),
		))
}

// fail records the error on the span and returns the classified form.
func (g *Gateway) fail(span trace.Span, err error, operation string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return classifyStorageError(err, operation)
}

// classifyStorageError examines a storage error and returns an appropriate
// sentinel error
func classifyStorageError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, ErrObjectNotFound)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
	}

	errStr := err.Error()
	for _, marker := range []string{"connection", "timeout", "network", "dial", "refused"} {
		if strings.Contains(errStr, marker) {
			return fmt.Errorf("%s network issue: %w", operation, ErrNetworkError)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
