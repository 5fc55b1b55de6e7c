package storage_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vulniq/vulniq-api/internal/storage"
	"github.com/vulniq/vulniq-api/internal/testutil"
)

func TestGatewayIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	g := env.Gateway
	ctx := env.Ctx

	t.Run("text round trip", func(t *testing.T) {
		key := storage.GeneratePromptKey(storage.Production, "u1", "p1", "notes.md")

		if err := g.UploadText(ctx, storage.Production, key, "hello from prod"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}
		got, err := g.DownloadText(ctx, storage.Production, key)
		if err != nil {
			t.Fatalf("DownloadText: %v", err)
		}
		if got != "hello from prod" {
			t.Errorf("content = %q, want hello from prod", got)
		}
	})

	t.Run("environments are isolated", func(t *testing.T) {
		prodKey := storage.GeneratePromptKey(storage.Production, "u1", "p2", "secret.md")
		if err := g.UploadText(ctx, storage.Production, prodKey, "production only"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}

		// The production key cannot even be addressed through the demo
		// environment; the prefix assertion rejects it before any I/O.
		_, err := g.DownloadText(ctx, storage.Demo, prodKey)
		if !errors.Is(err, storage.ErrPrefixViolation) {
			t.Fatalf("cross-environment read error = %v, want ErrPrefixViolation", err)
		}

		// A same-suffix key in the demo environment reads demo data, never
		// production data, because the buckets differ.
		demoKey := storage.UserScope(storage.Demo, "u1") + "prompts/p2/mirror.md"
		if err := g.UploadText(ctx, storage.Demo, demoKey, "demo only"); err != nil {
			t.Fatalf("UploadText demo: %v", err)
		}
		got, err := g.DownloadText(ctx, storage.Demo, demoKey)
		if err != nil {
			t.Fatalf("DownloadText demo: %v", err)
		}
		if got != "demo only" {
			t.Errorf("demo content = %q", got)
		}
	})

	t.Run("latest key resolves the most recent write", func(t *testing.T) {
		prefix := storage.UserScope(storage.Production, "u1") + "prompts/p5/"
		if err := g.UploadText(ctx, storage.Production, prefix+"1700000000001_draft.md", "old"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}
		if err := g.UploadText(ctx, storage.Production, prefix+"1700000000002_draft.md", "new"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}

		key, err := g.LatestKey(ctx, storage.Production, prefix)
		if err != nil {
			t.Fatalf("LatestKey: %v", err)
		}
		if key != prefix+"1700000000002_draft.md" {
			t.Errorf("key = %q, want the newer object", key)
		}
		got, err := g.DownloadText(ctx, storage.Production, key)
		if err != nil {
			t.Fatalf("DownloadText: %v", err)
		}
		if got != "new" {
			t.Errorf("content = %q, want new", got)
		}
	})

	t.Run("latest key on an empty prefix is not found", func(t *testing.T) {
		prefix := storage.UserScope(storage.Production, "u1") + "prompts/nothing-here/"
		if _, err := g.LatestKey(ctx, storage.Production, prefix); !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("error = %v, want ErrObjectNotFound", err)
		}
	})

	t.Run("missing object classifies as not found", func(t *testing.T) {
		_, err := g.DownloadText(ctx, storage.Production, "users/u1/prompts/missing/x.md")
		if !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("error = %v, want ErrObjectNotFound", err)
		}
	})

	t.Run("delete removes the object", func(t *testing.T) {
		key := storage.UserScope(storage.Production, "u1") + "prompts/p3/todelete.md"
		if err := g.UploadText(ctx, storage.Production, key, "x"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}
		if err := g.Delete(ctx, storage.Production, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := g.DownloadText(ctx, storage.Production, key); !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("object survived delete: %v", err)
		}
	})

	t.Run("presigned urls carry the key", func(t *testing.T) {
		key := storage.GenerateKey(storage.Production, "u1", "case1", "report.pdf")

		uploadURL, err := g.PresignedUploadURL(ctx, storage.Production, key, time.Hour)
		if err != nil {
			t.Fatalf("PresignedUploadURL: %v", err)
		}
		if !strings.Contains(uploadURL, "report.pdf") {
			t.Errorf("upload URL %q missing key component", uploadURL)
		}

		downloadURL, err := g.PresignedDownloadURL(ctx, storage.Production, key, time.Hour)
		if err != nil {
			t.Fatalf("PresignedDownloadURL: %v", err)
		}
		if !strings.Contains(downloadURL, "X-Amz-Signature") {
			t.Errorf("download URL %q is not signed", downloadURL)
		}
	})

	t.Run("delete prefix purges a scope", func(t *testing.T) {
		scope := storage.UserScope(storage.Demo, "sandbox")
		for _, name := range []string{"a.md", "b.md", "c.md"} {
			if err := g.UploadText(ctx, storage.Demo, scope+"prompts/p1/"+name, "x"); err != nil {
				t.Fatalf("UploadText: %v", err)
			}
		}
		// An object outside the scope must survive the purge.
		other := storage.UserScope(storage.Demo, "other") + "prompts/p1/keep.md"
		if err := g.UploadText(ctx, storage.Demo, other, "keep"); err != nil {
			t.Fatalf("UploadText: %v", err)
		}

		deleted, err := g.DeletePrefix(ctx, storage.Demo, scope)
		if err != nil {
			t.Fatalf("DeletePrefix: %v", err)
		}
		if deleted != 3 {
			t.Errorf("deleted = %d, want 3", deleted)
		}

		if _, err := g.DownloadText(ctx, storage.Demo, other); err != nil {
			t.Errorf("object outside purge scope was lost: %v", err)
		}
	})
}
