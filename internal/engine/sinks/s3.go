package sinks

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pkgtool/pkgtool/internal/engine"
)

// S3Uploader is the part of manager.Uploader the sink needs.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Config struct {
	Bucket string
	Region string
	// Endpoint points the client at an S3-compatible service such as MinIO or R2.
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Sink uploads archives as objects under an optional key prefix.
type S3Sink struct {
	bucket   string
	prefix   string
	uploader S3Uploader
	location string
}

// NewS3Sink builds an uploader from the default AWS configuration chain,
// overridden by whatever cfg sets.
func NewS3Sink(ctx context.Context, cfg S3Config) (engine.Sink, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration for bucket %s: %w", cfg.Bucket, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewS3SinkWithUploader(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

func loadOptions(cfg S3Config) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	// Partial static credentials fall back to the default chain.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	return opts
}

func NewS3SinkWithUploader(bucket, prefix string, uploader S3Uploader) engine.Sink {
	return &S3Sink{
		bucket:   bucket,
		prefix:   prefix,
		uploader: uploader,
	}
}

func (s *S3Sink) Name() string {
	return "s3(" + path.Join(s.bucket, s.prefix) + ")"
}

func (s *S3Sink) Kind() string {
	return "s3"
}

// Location is the URL of the most recent upload, empty until the uploader reports one.
func (s *S3Sink) Location() string {
	return s.location
}

func (s *S3Sink) Write(ctx context.Context, name string, archive io.Reader) error {
	key := path.Join(s.prefix, name)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        archive,
		ContentType: aws.String(archiveContentType(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to s3://%s/%s: %w", s.bucket, key, err)
	}

	if out != nil && out.Location != "" {
		s.location = out.Location
	}
	return nil
}

// archiveContentType maps an archive name to its media type. For compressed
// tarballs the outer compression wins.
func archiveContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip", ".jar":
		return "application/zip"
	case ".apk":
		return "application/vnd.android.package-archive"
	case ".tar":
		return "application/x-tar"
	case ".gz", ".tgz":
		return "application/gzip"
	case ".zst":
		return "application/zstd"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

func (s *S3Sink) Close(ctx context.Context) error {
	return nil
}
