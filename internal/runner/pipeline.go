package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
	"github.com/pkgtool/pkgtool/internal/engine"
	"github.com/pkgtool/pkgtool/internal/engine/archivers"
	"github.com/pkgtool/pkgtool/internal/engine/filters"
	"github.com/pkgtool/pkgtool/internal/engine/sinks"
	"github.com/pkgtool/pkgtool/internal/sources"
)

// BuildRegistry creates a registry with every built-in source kind registered.
func BuildRegistry(logger *zap.Logger) *engine.Registry {
	registry := engine.NewRegistry(logger)
	sources.Register(registry)
	return registry
}

func createPipeline(ctx context.Context, logger *zap.Logger, registry *engine.Registry, job v1.BundleJob) (*engine.Pipeline, error) {
	logger.Info("creating pipeline", zap.String("job_name", job.Metadata.Name))
	pipeline := engine.NewPipeline(job.Metadata.Name)

	for _, sourceSpec := range job.Spec.Sources {
		resolved, err := ResolveSourceSpec(sourceSpec)
		if err != nil {
			return nil, err
		}

		source, err := registry.CreateSource(ctx, resolved.Kind, sourceSpec.ID, resolved.Spec)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s source '%s': %w", resolved.Kind, sourceSpec.ID, err)
		}

		if err := pipeline.AddSource(sourceSpec.ID, source); err != nil {
			return nil, fmt.Errorf("failed to add %s source: %w", resolved.Kind, err)
		}

		logger.Debug("created source", zap.String("source_id", sourceSpec.ID), zap.String("kind", resolved.Kind))
	}

	return pipeline, nil
}

// buildArchiver creates the archiver from the archive spec.
// Defaults to zip when no format is specified.
func buildArchiver(archive *v1.ArchiveSpec) (engine.Archiver, error) {
	if archive == nil || archive.Format == "" || archive.Format == archivers.KindZip {
		if archive != nil && archive.Compression != "" {
			return nil, fmt.Errorf("compression %q is only supported for tar archives", archive.Compression)
		}
		return archivers.NewZipArchiver(), nil
	}

	if archive.Format == archivers.KindTar {
		archiver, err := archivers.NewTarArchiver(archive.Compression)
		if err != nil {
			return nil, fmt.Errorf("failed to create tar archiver: %w", err)
		}
		return archiver, nil
	}

	return nil, fmt.Errorf("unknown archive format: %s", archive.Format)
}

// archiveName returns the archive file name without extension.
func archiveName(job v1.BundleJob) string {
	if job.Spec.Archive != nil && job.Spec.Archive.Name != "" {
		return job.Spec.Archive.Name
	}
	return job.Metadata.Name
}

func buildFilter(job v1.BundleJob) (*filters.CELFilter, error) {
	if job.Spec.Filter == nil || *job.Spec.Filter == "" {
		return nil, nil
	}
	return filters.NewCELFilter(*job.Spec.Filter)
}

// buildSink creates a sink from the job spec.
//
// Default behavior:
//   - No sink specified: filesystem sink in the working directory
//   - Explicit stdout sink: stream sink on stdout
//   - Explicit filesystem sink: filesystem sink rooted at path/prefix
//   - Explicit S3 sink: S3 sink
func buildSink(ctx context.Context, fs afero.Fs, stdout io.Writer, job v1.BundleJob) (engine.Sink, error) {
	spec := job.Spec.Sink
	if spec == nil {
		return buildFilesystemSink(fs, nil)
	}

	switch {
	case spec.Stdout != nil:
		return sinks.NewStreamSink(stdout), nil
	case spec.Filesystem != nil:
		return buildFilesystemSink(fs, spec.Filesystem)
	case spec.S3 != nil:
		return buildS3Sink(ctx, spec.S3)
	default:
		return nil, fmt.Errorf("invalid sink configuration: no sink type specified")
	}
}

func buildFilesystemSink(fs afero.Fs, spec *v1.FilesystemSinkSpec) (engine.Sink, error) {
	var path string
	var prefix string

	if spec != nil {
		if spec.Path != nil {
			path = *spec.Path
		}
		if spec.Prefix != nil {
			prefix = *spec.Prefix
		}
	}

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	return sinks.NewFilesystemSinkFromPath(fs, filepath.Join(path, prefix))
}

func buildS3Sink(ctx context.Context, s3Spec *v1.S3SinkSpec) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         s3Spec.Bucket,
		ForcePathStyle: s3Spec.ForcePathStyle,
	}

	if s3Spec.Region != nil {
		cfg.Region = *s3Spec.Region
	}

	if s3Spec.Endpoint != nil {
		cfg.Endpoint = *s3Spec.Endpoint
	}

	if s3Spec.Prefix != nil {
		cfg.Prefix = *s3Spec.Prefix
	}

	if s3Spec.Credentials != nil {
		cfg.AccessKeyID = s3Spec.Credentials.AccessKeyID
		cfg.SecretAccessKey = s3Spec.Credentials.SecretAccessKey
	}

	return sinks.NewS3Sink(ctx, cfg)
}

// BuildVariables creates the variables map for expansion.
// It includes built-in variables and reads allowed environment variables.
// If an allowed variable is not set, an error is returned.
func BuildVariables(job v1.BundleJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(engine.ISO8601Basic),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
