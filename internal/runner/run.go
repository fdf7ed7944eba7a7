package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
	"github.com/pkgtool/pkgtool/internal/engine"
	"github.com/pkgtool/pkgtool/internal/engine/filters"
	"github.com/pkgtool/pkgtool/internal/progress"
	"github.com/pkgtool/pkgtool/internal/tempdir"
)

const (
	stagingDirName = "files"
	outputDirName  = "out"
)

// Result describes a published archive.
type Result struct {
	// Archive is the file name the archive was published under.
	Archive string
	// Sink names the destination, e.g. filesystem(/srv/out) or s3(bucket).
	Sink string
	// Entries are the archive entry names, in archive order.
	Entries []string
}

type Runner struct {
	logger   *zap.Logger
	job      v1.BundleJob
	fs       afero.Fs
	stdout   io.Writer
	registry *engine.Registry
	temp     *tempdir.Manager
	ownTemp  bool
	tracker  *progress.Tracker

	pipeline *engine.Pipeline
	filter   *filters.CELFilter
	archiver engine.Archiver
	sink     engine.Sink
	name     string
}

type Option func(*Runner)

// WithFs sets the filesystem used for staging, archiving and the filesystem
// sink. It must match the filesystem of the temporary directory manager.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithTempDirs shares a temporary directory manager with the runner. The
// caller stays responsible for closing it.
func WithTempDirs(m *tempdir.Manager) Option {
	return func(r *Runner) {
		r.temp = m
	}
}

func WithTracker(tracker *progress.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// WithStdout sets the writer used by the stdout sink.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

func WithRegistry(registry *engine.Registry) Option {
	return func(r *Runner) {
		r.registry = registry
	}
}

func New(ctx context.Context, logger *zap.Logger, job v1.BundleJob, opts ...Option) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	r := &Runner{
		logger: logger,
		job:    job,
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		name:   archiveName(job),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registry == nil {
		r.registry = BuildRegistry(logger.Named("registry"))
	}
	if r.tracker == nil {
		r.tracker = progress.New()
	}

	var err error
	if r.pipeline, err = createPipeline(ctx, logger.Named("pipeline"), r.registry, job); err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	if r.filter, err = buildFilter(job); err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	if r.archiver, err = buildArchiver(job.Spec.Archive); err != nil {
		return nil, fmt.Errorf("failed to build archiver: %w", err)
	}

	if r.sink, err = buildSink(ctx, r.fs, r.stdout, job); err != nil {
		return nil, fmt.Errorf("failed to build sink: %w", err)
	}

	if r.temp == nil {
		r.temp = tempdir.New(tempdir.WithFs(r.fs), tempdir.WithLogger(logger.Named("tempdir")))
		r.ownTemp = true
	}

	return r, nil
}

// Run fetches every source into a scoped temporary directory, archives the
// files kept by the filter and publishes the archive to the sink. The
// temporary directory is removed once Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	return tempdir.Do(ctx, r.temp, func(ctx context.Context, dir string) (result Result, err error) {
		defer func() {
			if closeErr := r.sink.Close(context.WithoutCancel(ctx)); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to close sink: %w", closeErr))
			}
		}()

		sources := r.pipeline.Sources()
		// One tick per source, plus archiving and publishing.
		r.tracker.SetMaximum(float64(len(sources) + 2))
		r.tracker.SetProgress(0)
		r.tracker.SetMessage(fmt.Sprintf("Fetching %d sources", len(sources)))
		r.tracker.Show()
		defer r.tracker.Close()

		staging := filepath.Join(dir, stagingDirName)
		output := filepath.Join(dir, outputDirName)
		for _, d := range []string{staging, output} {
			if err := r.fs.MkdirAll(d, 0o755); err != nil {
				return Result{}, fmt.Errorf("failed to create %s: %w", d, err)
			}
		}

		artifacts, err := r.pipeline.Run(ctx, r.fs, staging, func(artifact engine.Artifact) {
			r.logger.Debug("fetched source", zap.String("source_id", artifact.ID), zap.String("path", artifact.Path))
			r.tracker.Update(func(s *progress.State) {
				s.Current++
				s.Message = fmt.Sprintf("Fetched %s", artifact.ID)
			})
		})
		if err != nil {
			return Result{}, fmt.Errorf("failed to run pipeline: %w", err)
		}

		if r.filter != nil {
			kept, err := r.filter.Apply(ctx, r.fs, artifacts)
			if err != nil {
				return Result{}, fmt.Errorf("failed to apply filter: %w", err)
			}
			r.logger.Info("applied filter",
				zap.Stringer("filter", r.filter),
				zap.Int("kept", len(kept)),
				zap.Int("dropped", len(artifacts)-len(kept)),
			)
			artifacts = kept
		}
		if len(artifacts) == 0 {
			r.logger.Warn("no files to archive, the archive will be empty")
		}

		archiveFile := r.name + r.archiver.Extension()
		target := filepath.Join(output, archiveFile)
		files := lo.Map(artifacts, func(a engine.Artifact, _ int) string { return a.Path })

		r.tracker.SetMessage(fmt.Sprintf("Archiving %d files", len(files)))
		if err := r.archiver.Archive(ctx, r.fs, files, target); err != nil {
			return Result{}, fmt.Errorf("failed to create %s archive: %w", r.archiver.Kind(), err)
		}
		r.tracker.Increment(1)

		r.tracker.SetMessage(fmt.Sprintf("Publishing %s", archiveFile))
		if err := r.publish(ctx, target, archiveFile); err != nil {
			return Result{}, err
		}
		r.tracker.Increment(1)

		r.logger.Info("published archive",
			zap.String("archive", archiveFile),
			zap.String("sink", r.sink.Name()),
			zap.Int("entries", len(files)),
		)

		return Result{
			Archive: archiveFile,
			Sink:    r.sink.Name(),
			Entries: lo.Map(files, func(f string, _ int) string { return filepath.Base(f) }),
		}, nil
	})
}

func (r *Runner) publish(ctx context.Context, target, name string) (err error) {
	f, err := r.fs.Open(target)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := r.sink.Write(ctx, name, f); err != nil {
		return fmt.Errorf("failed to write archive to %s: %w", r.sink.Name(), err)
	}
	return nil
}

// Close releases the temporary directory manager when the runner created it.
func (r *Runner) Close(ctx context.Context) error {
	if !r.ownTemp {
		return nil
	}
	return r.temp.Close(ctx)
}

// Job returns the job the runner was created for.
func (r *Runner) Job() v1.BundleJob {
	return r.job
}
