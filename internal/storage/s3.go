package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// S3Config carries the object-storage settings. BaseEndpoint is optional and
// supports S3-compatible servers such as MinIO.
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	UploadTimeout time.Duration
}

// S3AssetStore uploads authenticated images to an S3 bucket under
// date-partitioned keys.
type S3AssetStore struct {
	cfg S3Config
}

func NewS3AssetStore(cfg S3Config) *S3AssetStore {
	return &S3AssetStore{cfg: cfg}
}

func (s *S3AssetStore) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ObjectKey builds a date-partitioned, collision-free object key for an
// uploaded asset.
func ObjectKey(name string, now time.Time) string {
	return fmt.Sprintf("photos/%d/%02d/%02d/%s-%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), name)
}

func (s *S3AssetStore) Save(ctx context.Context, name string, data []byte) error {
	if s.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()
	}

	client, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("configuring s3 client: %w", err)
	}

	key := ObjectKey(name, time.Now())
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
