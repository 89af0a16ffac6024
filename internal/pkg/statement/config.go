package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

// Config holds the object storage settings for archived statements
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads the statement archive configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Prefix:          env.GetEnv("STATEMENTS_PREFIX", "statements"),
		Enabled:         env.GetEnvBool("STATEMENTS_ENABLED", false),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when statements are enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when statements are enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when statements are enabled")
		}
	}
	return cfg, nil
}

// ObjectKey is the storage key of a plan statement: <prefix>/<userId>/<planId>.json
func (c *Config) ObjectKey(userID, planID string) string {
	prefix := strings.Trim(c.Prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.json", userID, planID)
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, userID, planID)
}
