package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		wantStatus int
		wantUserID string
	}{
		{
			name:       "valid subject",
			subject:    "user_42",
			wantStatus: http.StatusOK,
			wantUserID: "user_42",
		},
		{
			name:       "uuid-shaped subject",
			subject:    "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			wantStatus: http.StatusOK,
			wantUserID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		},
		{
			name:       "missing header",
			subject:    "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "subject with path characters",
			subject:    "users/42",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "subject with traversal",
			subject:    "..",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "oversized subject",
			subject:    strings.Repeat("a", 65),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID string
			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = UserID(r.Context())
			}))

			r := httptest.NewRequest("POST", "/api/v1/files/upload-url", nil)
			if tt.subject != "" {
				r.Header.Set(UserHeader, tt.subject)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotUserID != tt.wantUserID {
					t.Errorf("UserID = %q, want %q", gotUserID, tt.wantUserID)
				}
				return
			}

			var env response.Envelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decoding envelope: %v", err)
			}
			if env.Code != response.CodeUnauthorized {
				t.Errorf("code = %q, want %q", env.Code, response.CodeUnauthorized)
			}
		})
	}
}

func TestMiddlewareEnrichesLogger(t *testing.T) {
	var buf strings.Builder
	restore := logger.SetOutputForTest(&buf)
	defer restore()

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Ctx(r.Context()).Info("storage key rejected")
	}))

	r := httptest.NewRequest("POST", "/api/v1/files/download-url", nil)
	r.Header.Set(UserHeader, "u42")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !strings.Contains(buf.String(), `"user_id":"u42"`) {
		t.Errorf("log line missing user_id: %s", buf.String())
	}
}

func TestUserIDWithoutMiddleware(t *testing.T) {
	if id, ok := UserID(context.Background()); ok || id != "" {
		t.Errorf("UserID on empty context = (%q, %v)", id, ok)
	}
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "u1")
	if id, ok := UserID(ctx); !ok || id != "u1" {
		t.Errorf("UserID = (%q, %v), want (u1, true)", id, ok)
	}
}
