package storage

import (
	"fmt"
	"regexp"
	"time"
)

// Filename sanitizers. Anything outside the allow-list becomes "_".
// Profile images get a slightly wider set (underscores are common in
// exported avatar filenames); neither set permits path separators, so a
// filename can never add key segments.
var (
	fileNameSanitizer     = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	profileImageSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// UserScope returns the per-user key root for an environment; it is the
// required prefix handlers pass to the key validator for untrusted keys.
// The demo layout mirrors production one level down (demo/users/<id>/...
// vs users/<id>/...), so downstream path parsing is uniform across
// environments while the leading isolation prefix stays unambiguous.
func UserScope(env Environment, userID string) string {
	if env == Demo {
		return DemoPrefix + "users/" + userID + "/"
	}
	return ProductionPrefix + userID + "/"
}

// stamp returns the millisecond timestamp component that makes generated
// keys unique-ish. Collision resistance is best-effort; keys are never
// reused.
func stamp() int64 {
	return time.Now().UnixMilli()
}

// GenerateKey builds the storage key for a use-case artifact upload.
func GenerateKey(env Environment, userID, useCaseID, fileName string) string {
	sanitized := fileNameSanitizer.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("%suse-cases/%s/%d_%s", UserScope(env, userID), useCaseID, stamp(), sanitized)
}

// GeneratePromptKey builds the storage key for a saved prompt.
func GeneratePromptKey(env Environment, userID, promptID, fileName string) string {
	sanitized := fileNameSanitizer.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("%sprompts/%s/%d_%s", UserScope(env, userID), promptID, stamp(), sanitized)
}

// GenerateProfileImageKey builds the storage key for a profile image upload.
func GenerateProfileImageKey(env Environment, userID, fileName string) string {
	sanitized := profileImageSanitizer.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("%sprofile-images/%d_%s", UserScope(env, userID), stamp(), sanitized)
}
