package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vulniq/vulniq-api/internal/auth"
	"github.com/vulniq/vulniq-api/internal/response"
	"github.com/vulniq/vulniq-api/internal/storage"
)

// maxPromptBytes bounds saved prompt text.
const maxPromptBytes = 64 * 1024

// SavePromptRequest is the request body for POST /prompts.
type SavePromptRequest struct {
	PromptID string `json:"promptId"`
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// handleSavePrompt stores prompt text under the caller's scope and returns
// the generated key.
func (s *Server) handleSavePrompt(w http.ResponseWriter, r *http.Request) error {
	requestID := response.RequestID(r.Context())

	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", requestID)
		return nil
	}

	var req SavePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", requestID)
		return nil
	}
	if !idPattern.MatchString(req.PromptID) {
		response.ValidationError(w, "promptId is required and must be alphanumeric", requestID)
		return nil
	}
	if req.FileName == "" || len(req.FileName) > maxFileNameLen {
		response.ValidationError(w, "fileName is required", requestID)
		return nil
	}
	if req.Content == "" || len(req.Content) > maxPromptBytes {
		response.ValidationError(w, "content is required and must be at most 64KiB", requestID)
		return nil
	}

	key := storage.GeneratePromptKey(storage.Production, userID, req.PromptID, req.FileName)
	if err := s.storage.UploadText(r.Context(), storage.Production, key, req.Content); err != nil {
		return err
	}

	response.Success(w, map[string]string{"s3Key": key}, &response.Options{
		Status:    http.StatusCreated,
		RequestID: requestID,
	})
	return nil
}

// handleGetPrompt retrieves the most recently saved text for a prompt ID.
// The key is resolved server-side under the caller's scope; clients never
// supply keys on this route.
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) error {
	requestID := response.RequestID(r.Context())

	userID, ok := auth.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", requestID)
		return nil
	}

	promptID := chi.URLParam(r, "promptID")
	if !idPattern.MatchString(promptID) {
		response.ValidationError(w, "promptId must be alphanumeric", requestID)
		return nil
	}

	prefix := storage.UserScope(storage.Production, userID) + "prompts/" + promptID + "/"
	key, err := s.storage.LatestKey(r.Context(), storage.Production, prefix)
	if errors.Is(err, storage.ErrObjectNotFound) {
		response.NotFound(w, "Prompt not found", requestID)
		return nil
	}
	if err != nil {
		return err
	}

	content, err := s.storage.DownloadText(r.Context(), storage.Production, key)
	if err != nil {
		return err
	}

	response.Success(w, map[string]string{
		"promptId": promptID,
		"s3Key":    key,
		"content":  content,
	}, &response.Options{RequestID: requestID})
	return nil
}
