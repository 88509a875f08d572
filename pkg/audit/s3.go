package audit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ArchiveStore archives evidence packs in S3.
type S3ArchiveStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3ArchiveConfig configures the archive store.
type S3ArchiveConfig struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	Prefix   string // Optional key prefix
}

// NewS3ArchiveStore creates an S3-backed archive store.
func NewS3ArchiveStore(ctx context.Context, cfg S3ArchiveConfig) (*S3ArchiveStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("audit: load AWS config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	}

	return &S3ArchiveStore{
		client: s3.NewFromConfig(awsCfg, clientOpts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Archive uploads a pack and returns its content hash reference.
func (s *S3ArchiveStore) Archive(ctx context.Context, name string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ref := "sha256:" + hex.EncodeToString(sum[:])
	key := s.prefix + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("audit: s3 put %s: %w", key, err)
	}
	return ref, nil
}

// Fetch retrieves an archived pack by name.
func (s *S3ArchiveStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := s.prefix + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("audit: s3 get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
