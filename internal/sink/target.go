package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Target abstracts the destination a finished columnar file is written
// to, the same seam as the teacher's pkg/archive/parquet.ParquetTarget
// (SPEC_FULL.md §DOMAIN-3): the CLI constructs an S3Target when an S3
// bucket is configured and a FileTarget otherwise.
type Target interface {
	WriteFile(name string, data []byte) error
}

// FileTarget writes files under a local output directory, created on
// first use.
type FileTarget struct {
	dir string
}

func NewFileTarget(dir string) (*FileTarget, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("sink: create output directory %q: %w", dir, err)
	}
	return &FileTarget{dir: dir}, nil
}

func (t *FileTarget) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(t.dir, name), data, 0o640); err != nil {
		return fmt.Errorf("sink: write file %q: %w", name, err)
	}
	return nil
}

// S3TargetConfig configures an optional S3-backed Target.
type S3TargetConfig struct {
	Endpoint     string
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Target writes finished files directly to an S3-compatible bucket.
// The CLI selects it through the s3_* options; its credentials are
// always the static s3_access_key/s3_secret_key pair.
type S3Target struct {
	client *s3.Client
	bucket string
}

func NewS3Target(ctx context.Context, cfg S3TargetConfig) (*S3Target, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("sink: S3 target requires a bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("sink: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Target{client: client, bucket: cfg.Bucket}, nil
}

func (t *S3Target) WriteFile(name string, data []byte) error {
	_, err := t.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("sink: S3 put object %q: %w", name, err)
	}
	return nil
}
