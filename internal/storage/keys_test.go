package storage

import (
	"strings"
	"testing"

	"github.com/vulniq/vulniq-api/internal/security"
)

func TestUserScope(t *testing.T) {
	tests := []struct {
		env    Environment
		userID string
		want   string
	}{
		{Production, "u1", "users/u1/"},
		{Demo, "u1", "demo/users/u1/"},
		{Demo, "sandbox", "demo/users/sandbox/"},
	}
	for _, tt := range tests {
		if got := UserScope(tt.env, tt.userID); got != tt.want {
			t.Errorf("UserScope(%v, %q) = %q, want %q", tt.env, tt.userID, got, tt.want)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey(Demo, "u1", "case1", "my file.pdf")

	if !strings.HasPrefix(key, "demo/users/u1/use-cases/case1/") {
		t.Errorf("key = %q, want demo/users/u1/use-cases/case1/ prefix", key)
	}
	if !strings.HasSuffix(key, "_my_file.pdf") {
		t.Errorf("key = %q, want sanitized filename suffix", key)
	}
	if strings.Contains(key, " ") {
		t.Errorf("key contains a space: %q", key)
	}
}

func TestGenerateKeyProduction(t *testing.T) {
	key := GenerateKey(Production, "42", "case9", "report.pdf")

	if !strings.HasPrefix(key, "users/42/use-cases/case9/") {
		t.Errorf("key = %q, want users/42/use-cases/case9/ prefix", key)
	}
	if strings.HasPrefix(key, DemoPrefix) {
		t.Errorf("production key carries demo prefix: %q", key)
	}
}

func TestGeneratePromptKey(t *testing.T) {
	key := GeneratePromptKey(Production, "42", "p7", "draft v2.md")

	if !strings.HasPrefix(key, "users/42/prompts/p7/") {
		t.Errorf("key = %q, want users/42/prompts/p7/ prefix", key)
	}
	if !strings.HasSuffix(key, "_draft_v2.md") {
		t.Errorf("key = %q, want sanitized filename suffix", key)
	}
}

func TestGenerateProfileImageKey(t *testing.T) {
	key := GenerateProfileImageKey(Demo, "sandbox", "avatar_final (1).png")

	if !strings.HasPrefix(key, "demo/users/sandbox/profile-images/") {
		t.Errorf("key = %q, want demo/users/sandbox/profile-images/ prefix", key)
	}
	// Underscores survive the profile-image sanitizer; space and parens do not.
	if !strings.HasSuffix(key, "_avatar_final__1_.png") {
		t.Errorf("key = %q, want sanitized filename suffix", key)
	}
}

func TestFileNamesCannotAddSegments(t *testing.T) {
	names := []string{"../../etc/passwd", "a/b/c.txt", `a\b.txt`}
	for _, name := range names {
		key := GenerateKey(Production, "42", "case1", name)
		rest := strings.TrimPrefix(key, "users/42/use-cases/case1/")
		if strings.Contains(rest, "/") || strings.Contains(rest, `\`) {
			t.Errorf("filename %q introduced a path segment: %q", name, key)
		}
	}
}

func TestGeneratedKeysPassValidation(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		key  string
	}{
		{"use-case production", Production, GenerateKey(Production, "42", "case1", "my file.pdf")},
		{"use-case demo", Demo, GenerateKey(Demo, "sandbox", "case1", "résumé.pdf")},
		{"prompt", Production, GeneratePromptKey(Production, "42", "p1", "notes.md")},
		{"profile image", Demo, GenerateProfileImageKey(Demo, "sandbox", "pic.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := security.ValidateS3Key(tt.key, security.KeyOptions{}); err != nil {
				t.Errorf("generated key %q failed validation: %v", tt.key, err)
			}
			if err := AssertKeyPrefix(tt.env, tt.key); err != nil {
				t.Errorf("generated key %q failed prefix assertion: %v", tt.key, err)
			}
		})
	}
}
