package storage

import (
	"fmt"
	"os"

	"github.com/vulniq/vulniq-api/internal/logger"
)

// Environment selects which of the two isolated storage environments an
// operation targets. It is a closed enum so a missing case is a compile-time
// bug, not a runtime string fallthrough. Every gateway operation takes an
// explicit Environment — there is no ambient process-wide mode to confuse.
type Environment int

const (
	// Production is the real user data environment.
	Production Environment = iota

	// Demo is the isolated throwaway environment backing the /demo surface.
	Demo
)

// Key prefixes per environment. Object-level isolation is enforced against
// these even when both environments share a bucket.
const (
	ProductionPrefix = "users/"
	DemoPrefix       = "demo/"
)

func (e Environment) String() string {
	switch e {
	case Production:
		return "prod"
	case Demo:
		return "demo"
	}
	return fmt.Sprintf("Environment(%d)", int(e))
}

// KeyPrefix returns the mandatory key prefix for the environment.
func (e Environment) KeyPrefix() string {
	if e == Demo {
		return DemoPrefix
	}
	return ProductionPrefix
}

// ParseEnvironment converts a configuration string ("prod" or "demo") into
// an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "prod":
		return Production, nil
	case "demo":
		return Demo, nil
	}
	return Production, fmt.Errorf("unknown storage environment %q", s)
}

// EnvSettings holds the S3/MinIO connection settings for one environment.
type EnvSettings struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// Settings holds the resolved per-environment settings.
type Settings struct {
	Production EnvSettings
	Demo       EnvSettings
}

// SettingsFromEnv reads storage configuration from the environment.
//
// Production settings are required. Demo settings fall back to the shared
// production bucket and credentials when the demo-specific variables are
// unset; each fallback is logged as a startup warning because it weakens
// isolation (prefix isolation becomes the only boundary) and operators need
// to know.
func SettingsFromEnv() (Settings, error) {
	var s Settings

	s.Production = EnvSettings{
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("BUCKET_NAME"),
		UseSSL:          os.Getenv("S3_USE_SSL") != "false", // Default true
	}
	for name, v := range map[string]string{
		"S3_ENDPOINT":           s.Production.Endpoint,
		"AWS_ACCESS_KEY_ID":     s.Production.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": s.Production.SecretAccessKey,
		"BUCKET_NAME":           s.Production.Bucket,
	} {
		if v == "" {
			return Settings{}, fmt.Errorf("missing required env var %s", name)
		}
	}

	s.Demo = s.Production
	if bucket := os.Getenv("DEMO_BUCKET_NAME"); bucket != "" {
		s.Demo.Bucket = bucket
	} else {
		logger.Warn("demo storage falling back to shared production bucket; prefix isolation is the only boundary",
			"bucket", s.Production.Bucket)
	}

	demoKey := os.Getenv("DEMO_AWS_ACCESS_KEY_ID")
	demoSecret := os.Getenv("DEMO_AWS_SECRET_ACCESS_KEY")
	if demoKey != "" && demoSecret != "" {
		s.Demo.AccessKeyID = demoKey
		s.Demo.SecretAccessKey = demoSecret
	} else {
		logger.Warn("demo storage falling back to shared production credentials; isolation is weakened")
	}

	return s, nil
}
