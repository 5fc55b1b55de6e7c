package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/vulniq/vulniq-api/internal/auth"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
	"github.com/vulniq/vulniq-api/internal/security"
	"github.com/vulniq/vulniq-api/internal/storage"
)

// sandboxUserID is the fixed identity all demo-surface artifacts live
// under. The sandbox is wiped via the admin purge endpoint.
const sandboxUserID = "sandbox"

// presignExpiry is how long generated upload/download URLs stay valid.
const presignExpiry = time.Hour

// idPattern constrains client-supplied resource IDs (use case, prompt) to
// the same character set as storage key segments.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// maxFileNameLen caps client-supplied file names before sanitization.
const maxFileNameLen = 255

// subjectFor resolves the storage identity for a request: the authenticated
// subject on the production surface, the fixed sandbox on the demo surface.
func subjectFor(r *http.Request, env storage.Environment) (string, bool) {
	if env == storage.Demo {
		return sandboxUserID, true
	}
	return auth.UserID(r.Context())
}

// CreateUploadURLRequest is the request body for POST /files/upload-url.
type CreateUploadURLRequest struct {
	UseCaseID string `json:"useCaseId"`
	FileName  string `json:"fileName"`
}

// UploadURLResponse is the payload for generated upload URLs.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
	ExpiresIn int    `json:"expiresIn"`
}

// handleCreateUploadURL generates a storage key scoped to the caller and a
// presigned PUT URL for it.
func (s *Server) handleCreateUploadURL(env storage.Environment) response.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		requestID := response.RequestID(r.Context())

		userID, ok := subjectFor(r, env)
		if !ok {
			response.Unauthorized(w, "Authentication required", requestID)
			return nil
		}

		var req CreateUploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", requestID)
			return nil
		}
		if !idPattern.MatchString(req.UseCaseID) {
			response.ValidationError(w, "useCaseId is required and must be alphanumeric", requestID)
			return nil
		}
		if req.FileName == "" || len(req.FileName) > maxFileNameLen {
			response.ValidationError(w, "fileName is required", requestID)
			return nil
		}

		key := storage.GenerateKey(env, userID, req.UseCaseID, req.FileName)
		uploadURL, err := s.storage.PresignedUploadURL(r.Context(), env, key, presignExpiry)
		if err != nil {
			return err
		}

		response.Success(w, UploadURLResponse{
			UploadURL: uploadURL,
			S3Key:     key,
			ExpiresIn: int(presignExpiry.Seconds()),
		}, &response.Options{RequestID: requestID})
		return nil
	}
}

// KeyRequest is the request body for endpoints that act on an existing key.
type KeyRequest struct {
	S3Key string `json:"s3Key"`
}

// checkedKey validates an untrusted key against the caller's scope. The
// precise rejection reason goes to the log only; clients get a uniform
// message so validation cannot be used as an oracle for probing the key
// space.
func checkedKey(w http.ResponseWriter, r *http.Request, env storage.Environment, userID, key string) bool {
	err := security.ValidateS3Key(key, security.KeyOptions{
		RequiredPrefix: storage.UserScope(env, userID),
	})
	if err == nil {
		return true
	}

	logger.Ctx(r.Context()).Warn("storage key rejected",
		"reason", err.Error(),
		"user_id", userID,
		"env", env.String(),
	)
	response.Forbidden(w, "Access denied", response.RequestID(r.Context()))
	return false
}

// handleCreateDownloadURL validates the requested key and returns a
// presigned GET URL for it.
func (s *Server) handleCreateDownloadURL(env storage.Environment) response.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		requestID := response.RequestID(r.Context())

		userID, ok := subjectFor(r, env)
		if !ok {
			response.Unauthorized(w, "Authentication required", requestID)
			return nil
		}

		var req KeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", requestID)
			return nil
		}
		if !checkedKey(w, r, env, userID, req.S3Key) {
			return nil
		}

		downloadURL, err := s.storage.PresignedDownloadURL(r.Context(), env, req.S3Key, presignExpiry)
		if err != nil {
			return err
		}

		response.Success(w, map[string]any{
			"downloadUrl": downloadURL,
			"expiresIn":   int(presignExpiry.Seconds()),
		}, &response.Options{RequestID: requestID})
		return nil
	}
}

// handleDeleteFile validates the key and removes the object.
func (s *Server) handleDeleteFile(env storage.Environment) response.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		requestID := response.RequestID(r.Context())

		userID, ok := subjectFor(r, env)
		if !ok {
			response.Unauthorized(w, "Authentication required", requestID)
			return nil
		}

		var req KeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", requestID)
			return nil
		}
		if !checkedKey(w, r, env, userID, req.S3Key) {
			return nil
		}

		if err := s.storage.Delete(r.Context(), env, req.S3Key); err != nil {
			return err
		}

		response.Success(w, map[string]string{"status": "deleted"}, &response.Options{RequestID: requestID})
		return nil
	}
}

// handleProfileImageUploadURL generates a presigned upload URL for the
// caller's profile image. Production only.
func (s *Server) handleProfileImageUploadURL(w http.ResponseWriter, r *http.Request) error {
	requestID := response.RequestID(r.Context())

	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", requestID)
		return nil
	}

	var req struct {
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", requestID)
		return nil
	}
	if req.FileName == "" || len(req.FileName) > maxFileNameLen {
		response.ValidationError(w, "fileName is required", requestID)
		return nil
	}

	key := storage.GenerateProfileImageKey(storage.Production, userID, req.FileName)
	uploadURL, err := s.storage.PresignedUploadURL(r.Context(), storage.Production, key, presignExpiry)
	if err != nil {
		return err
	}

	response.Success(w, UploadURLResponse{
		UploadURL: uploadURL,
		S3Key:     key,
		ExpiresIn: int(presignExpiry.Seconds()),
	}, &response.Options{RequestID: requestID})
	return nil
}
