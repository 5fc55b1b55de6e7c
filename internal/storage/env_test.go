package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvironmentString(t *testing.T) {
	if got := Production.String(); got != "prod" {
		t.Errorf("Production.String() = %q, want prod", got)
	}
	if got := Demo.String(); got != "demo" {
		t.Errorf("Demo.String() = %q, want demo", got)
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := Production.KeyPrefix(); got != "users/" {
		t.Errorf("Production.KeyPrefix() = %q, want users/", got)
	}
	if got := Demo.KeyPrefix(); got != "demo/" {
		t.Errorf("Demo.KeyPrefix() = %q, want demo/", got)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    Environment
		wantErr bool
	}{
		{"prod", Production, false},
		{"demo", Demo, false},
		{"production", Production, true},
		{"", Production, true},
		{"DEMO", Production, true},
	}
	for _, tt := range tests {
		got, err := ParseEnvironment(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEnvironment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseEnvironment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func setRequiredStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_ENDPOINT", "minio.internal:9000")
	t.Setenv("AWS_ACCESS_KEY_ID", "prod-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "prod-secret")
	t.Setenv("BUCKET_NAME", "vulniq-prod")
	t.Setenv("DEMO_BUCKET_NAME", "")
	t.Setenv("DEMO_AWS_ACCESS_KEY_ID", "")
	t.Setenv("DEMO_AWS_SECRET_ACCESS_KEY", "")
}

func TestSettingsFromEnvMissingRequired(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("BUCKET_NAME", "")

	_, err := SettingsFromEnv()
	if err == nil {
		t.Fatal("expected error for missing BUCKET_NAME")
	}
	if !strings.Contains(err.Error(), "BUCKET_NAME") {
		t.Errorf("error = %v, want mention of BUCKET_NAME", err)
	}
}

func TestSettingsFromEnvDemoFallback(t *testing.T) {
	setRequiredStorageEnv(t)

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv: %v", err)
	}
	if s.Demo.Bucket != "vulniq-prod" {
		t.Errorf("demo bucket = %q, want production fallback", s.Demo.Bucket)
	}
	if s.Demo.AccessKeyID != "prod-key" || s.Demo.SecretAccessKey != "prod-secret" {
		t.Error("demo credentials did not fall back to production")
	}
}

func TestSettingsFromEnvDedicatedDemo(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("DEMO_BUCKET_NAME", "vulniq-demo")
	t.Setenv("DEMO_AWS_ACCESS_KEY_ID", "demo-key")
	t.Setenv("DEMO_AWS_SECRET_ACCESS_KEY", "demo-secret")

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv: %v", err)
	}
	if s.Demo.Bucket != "vulniq-demo" {
		t.Errorf("demo bucket = %q, want vulniq-demo", s.Demo.Bucket)
	}
	if s.Demo.AccessKeyID != "demo-key" {
		t.Errorf("demo access key = %q, want demo-key", s.Demo.AccessKeyID)
	}
	if s.Production.Bucket != "vulniq-prod" {
		t.Errorf("production bucket changed: %q", s.Production.Bucket)
	}
}

func TestSettingsFromEnvPartialDemoCredentials(t *testing.T) {
	// A lone demo key without its secret falls back to production credentials.
	setRequiredStorageEnv(t)
	t.Setenv("DEMO_AWS_ACCESS_KEY_ID", "demo-key")

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv: %v", err)
	}
	if s.Demo.AccessKeyID != "prod-key" {
		t.Errorf("demo access key = %q, want production fallback", s.Demo.AccessKeyID)
	}
}

func TestSettingsFromEnvSSLDefault(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("S3_USE_SSL", "")

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv: %v", err)
	}
	if !s.Production.UseSSL {
		t.Error("UseSSL default = false, want true")
	}

	t.Setenv("S3_USE_SSL", "false")
	s, err = SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv: %v", err)
	}
	if s.Production.UseSSL {
		t.Error("UseSSL = true with S3_USE_SSL=false")
	}
}

func TestAssertKeyPrefix(t *testing.T) {
	tests := []struct {
		name    string
		env     Environment
		key     string
		wantErr bool
	}{
		{"production key in production", Production, "users/42/use-cases/c/file.pdf", false},
		{"demo key in demo", Demo, "demo/users/sandbox/file.pdf", false},
		{"demo key in production", Production, "demo/users/sandbox/file.pdf", true},
		{"production key in demo", Demo, "users/42/file.pdf", true},
		{"unprefixed key in production", Production, "file.pdf", true},
		{"empty key", Production, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertKeyPrefix(tt.env, tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrPrefixViolation) {
					t.Errorf("AssertKeyPrefix(%v, %q) = %v, want ErrPrefixViolation", tt.env, tt.key, err)
				}
				return
			}
			if err != nil {
				t.Errorf("AssertKeyPrefix(%v, %q) = %v, want nil", tt.env, tt.key, err)
			}
		})
	}
}
