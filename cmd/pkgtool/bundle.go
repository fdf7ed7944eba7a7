package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/pkgtool/pkgtool/internal/runner"
)

var bundleCommand = &cli.Command{
	Name:  "bundle",
	Usage: "Fetch the sources of a job, archive them and publish the archive",
	Flags: []cli.Flag{
		allowedEnvFlag,
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Do not draw a progress bar, even on a terminal",
		},
	},
	Arguments: []cli.Argument{
		jobArgument,
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		job, err := loadJob(ctx, command)
		if err != nil {
			return err
		}

		tracker := newTracker(ctx, os.Stderr, !command.Bool("no-progress"))

		r, err := runner.New(ctx, logger.Named("runner"), job,
			runner.WithTempDirs(getTempDirs(ctx)),
			runner.WithTracker(tracker),
		)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		result, err := r.Run(ctx)
		if err != nil {
			return fmt.Errorf("failed to run job: %w", err)
		}

		logger.Info("bundle complete",
			zap.String("job_name", job.Metadata.Name),
			zap.String("archive", result.Archive),
			zap.String("sink", result.Sink),
			zap.Strings("entries", result.Entries),
		)

		return nil
	},
}
