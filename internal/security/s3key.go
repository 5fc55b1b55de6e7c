package security

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel errors for key validation. The messages are deliberately split:
// "Access denied" marks an authorization failure (wrong prefix) while the
// "Invalid s3Key" variants mark malformed input. Logs need the distinction;
// untrusted clients must never see it — callers respond with a uniform
// generic message regardless of which check failed.
var (
	// ErrInvalidKey indicates a key that is empty, too long, or contains
	// characters outside the allow-list
	ErrInvalidKey = errors.New("Invalid s3Key")

	// ErrInvalidKeyPath indicates a key containing path traversal tokens
	ErrInvalidKeyPath = errors.New("Invalid s3Key path")

	// ErrKeyAccessDenied indicates a key outside the caller's required prefix
	ErrKeyAccessDenied = errors.New("Access denied")
)

// DefaultMaxKeyLen is the maximum accepted key length when KeyOptions does
// not override it.
const DefaultMaxKeyLen = 500

// keyPattern is the conservative allow-list for storage keys: no spaces, no
// percent-encoding, no Unicode. Anything a client needs beyond this set gets
// sanitized at key-generation time, never accepted on the way in.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9/_\-.]+$`)

// KeyOptions configures ValidateS3Key.
type KeyOptions struct {
	// RequiredPrefix, when non-empty, is the prefix the key must start with
	// (normally the caller's own user scope, e.g. "users/42/").
	RequiredPrefix string

	// MaxLen caps the key length; zero means DefaultMaxKeyLen.
	MaxLen int
}

// ValidateS3Key checks an untrusted storage key against the allow-list
// rules. Checks run in order and short-circuit on the first failure.
//
// The validator is pure and does no normalization: percent-decoding input
// and re-validating is the caller's problem and must happen, if at all,
// before the key gets here. Validating a decoded key against an already
// validated encoded form is exactly the bug this ordering rule prevents.
func ValidateS3Key(key string, opts KeyOptions) error {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = DefaultMaxKeyLen
	}

	if key == "" || len(key) > maxLen {
		return ErrInvalidKey
	}

	if strings.Contains(key, "..") || strings.Contains(key, `\`) || strings.Contains(key, "//") {
		return ErrInvalidKeyPath
	}

	if opts.RequiredPrefix != "" && !strings.HasPrefix(key, opts.RequiredPrefix) {
		return ErrKeyAccessDenied
	}

	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}

	return nil
}
