package archive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Archiver stores a copy of a generated export.
type Archiver interface {
	Archive(ctx context.Context, userID uint, fileName string, data []byte) (*UploadResult, error)
}

// Client wraps the S3 client with export-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
	now      func() time.Time
}

// NewClient creates a new S3 archive client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("export archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
		now:      time.Now,
	}

	if err := client.testConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Archive] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection checks that the bucket exists, creating it outside prod
func (c *Client) testConnection(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err == nil {
		return nil
	}
	if GetAppEnv() == "prod" {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}

	log.Warnf("[Archive] Bucket %s not found, attempting to create it", c.config.BucketName)
	input := &s3.CreateBucketInput{Bucket: aws.String(c.config.BucketName)}
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.config.BucketName, err)
	}
	return nil
}

// Archive uploads data under a fresh per-user key
func (c *Client) Archive(ctx context.Context, userID uint, fileName string, data []byte) (*UploadResult, error) {
	key := c.config.ObjectKey(userID, uuid.NewString(), fileName, c.now().UTC())
	contentType := getContentType(filepath.Ext(fileName))

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"user-id":       strconv.FormatUint(uint64(userID), 10),
			"upload-source": "cashfox-export",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[Archive] Stored export s3://%s/%s (%d bytes)", c.config.BucketName, key, len(data))
	return &UploadResult{
		BucketName:  c.config.BucketName,
		ObjectKey:   key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	BucketName  string `json:"bucket"`
	ObjectKey   string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

func getContentType(ext string) string {
	switch ext {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

var defaultArchiver Archiver

// SetDefault installs the archiver used by export handlers. nil disables archiving.
func SetDefault(a Archiver) {
	defaultArchiver = a
}

// Default returns the installed archiver or nil.
func Default() Archiver {
	return defaultArchiver
}
