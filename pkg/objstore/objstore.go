// Package objstore wraps aws-sdk-go-v2's S3 client with the pipeline's
// object-store key layout (spec.md §6): signals/, shaped-data/,
// tests/generated/, validation/videos|traces/, export/.
package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store wraps an S3 client bound to one bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// Open loads the default AWS config chain (env vars, shared config,
// instance role) and binds to bucket.
func Open(ctx context.Context, bucket string, optFns ...func(*s3.Options)) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("objstore: load aws config: %w", err)
	}
	return &Store{client: s3.NewFromConfig(cfg, optFns...), bucket: bucket}, nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("objstore: put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key. Caller must close the returned reader.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: get %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("objstore: delete %s: %w", key, err)
	}
	return nil
}

// SignalKey returns the key for a raw signal artifact attached to report.
func SignalKey(reportID, signalID, filename string) string {
	return fmt.Sprintf("signals/%s/%s/%s", reportID, signalID, filename)
}

// ShapedDataKey returns the key for a DataShape worker fixture bundle.
func ShapedDataKey(reproID, filename string) string {
	return fmt.Sprintf("shaped-data/%s/%s", reproID, filename)
}

// GeneratedTestKey returns the key for a CLI-build generated test project
// artifact.
func GeneratedTestKey(reproID, ecosystem, filename string) string {
	return fmt.Sprintf("tests/generated/%s/%s/%s", reproID, ecosystem, filename)
}

// ValidationVideoKey returns the key for a Validate worker run's video capture.
func ValidationVideoKey(reproID string, iteration int) string {
	return fmt.Sprintf("validation/videos/%s/run-%d.webm", reproID, iteration)
}

// ValidationTraceKey returns the key for a Validate worker run's trace capture.
func ValidationTraceKey(reproID string, iteration int) string {
	return fmt.Sprintf("validation/traces/%s/run-%d.zip", reproID, iteration)
}

// ExportKey returns the key for an Export worker delivery artifact.
func ExportKey(exportID, filename string) string {
	return fmt.Sprintf("export/%s/%s", exportID, filename)
}
