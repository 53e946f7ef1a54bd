// Package archive stores raw feed responses in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/cvewatch/internal/server/config"
)

// Archiver persists the raw body of one feed fetch.
type Archiver interface {
	Archive(ctx context.Context, runID string, body []byte) (string, error)
}

// Noop discards everything. Used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, string, []byte) (string, error) { return "", nil }

// PutObjectAPI is the part of *s3.Client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes bodies under feeds/YYYY/MM/DD/<run-id>.json.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3Archiver(client PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: time.Now}
}

// Key returns the object key for runID fetched at t.
func Key(t time.Time, runID string) string {
	t = t.UTC()
	return fmt.Sprintf("feeds/%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), runID)
}

func (a *S3Archiver) Archive(ctx context.Context, runID string, body []byte) (string, error) {
	key := Key(a.now(), runID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive put %s: %w", key, err)
	}
	return key, nil
}

// seams for tests
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// New returns an S3 archiver when cfg names a bucket and Noop otherwise.
func New(ctx context.Context, cfg *sc.Config) (Archiver, error) {
	if cfg.S3Bucket == "" {
		return Noop{}, nil
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Archiver(client, cfg.S3Bucket), nil
}
