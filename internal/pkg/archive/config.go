package archive

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

// Config holds the export archive bucket settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads the archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetBool("EXPORT_ARCHIVE_ENABLED", false),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the export archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the export archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the export archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if exports are copied to the bucket
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey builds exports/<user>/<YYYY>/<MM>/<id>-<file>.
func (c *Config) ObjectKey(userID uint, id, fileName string, at time.Time) string {
	return fmt.Sprintf("exports/%d/%04d/%02d/%s-%s", userID, at.Year(), int(at.Month()), id, path.Base(fileName))
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
