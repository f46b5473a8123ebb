package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/enclave-kms/interfaces"
)

// S3Store persists the keystore snapshot as a single object in Amazon S3
// or a compatible service. S3 object replacement is atomic, so readers
// never observe a partially written snapshot.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	objectKey   string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates an S3-backed snapshot store. If accessKey and
// secretKey are empty, credentials are resolved from the environment.
func NewS3Store(bucketName, objectKey, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("empty S3 bucket name")
	}
	if objectKey == "" {
		objectKey = "keystore.json"
	}

	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, objectKey, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, objectKey, region)
		if endpoint != "" {
			uri += fmt.Sprintf("&endpoint=%s", endpoint)
		}
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  bucketName,
		objectKey:   objectKey,
		log:         log,
		locationURI: uri,
	}, nil
}

// Load fetches the snapshot object. Returns ErrSnapshotNotFound if the
// object doesn't exist.
func (s *S3Store) Load(ctx context.Context) ([]byte, error) {
	start := time.Now()

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}

	s.log.Debug("Loaded keystore snapshot from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", s.objectKey),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store replaces the snapshot object. Objects hold sealed key material
// and are written private.
func (s *S3Store) Store(ctx context.Context, snapshot []byte) error {
	start := time.Now()

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey),
		Body:   bytes.NewReader(snapshot),
		ACL:    aws.String("private"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to S3: %w", err)
	}

	s.log.Debug("Stored keystore snapshot in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", s.objectKey),
		slog.Int("size", len(snapshot)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks if the bucket is accessible.
func (s *S3Store) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Warn("S3 store unavailable",
			slog.String("bucket", s.bucketName),
			"err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this store, with
// credentials redacted.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}
