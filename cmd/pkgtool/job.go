package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
	"github.com/pkgtool/pkgtool/internal/runner"
)

var allowedEnvFlag = &cli.StringSliceFlag{
	Name:  "allowed-env",
	Usage: "Environment variables allowed in job configuration (can be repeated)",
}

var jobArgument = &cli.StringArg{
	Name:      "job",
	UsageText: "The job file, or - to read it from stdin",
}

// readJobFile reads a job file, "-" meaning stdin.
func readJobFile(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// loadJob reads, validates and expands the job named by the job argument.
func loadJob(ctx context.Context, command *cli.Command) (v1.BundleJob, error) {
	logger := getLogger(ctx)

	jobFilename := command.StringArg("job")
	if jobFilename == "" {
		return v1.BundleJob{}, fmt.Errorf("no job file provided")
	}

	jobFile, err := readJobFile(jobFilename)
	if err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to read job file '%s': %w", jobFilename, err)
	}

	logger.Debug("parsing job file", zap.String("job_filename", jobFilename))

	job, err := runner.ParseBundleJob(jobFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatValidationError(err))
		return v1.BundleJob{}, fmt.Errorf("job file '%s' is invalid", jobFilename)
	}

	variables, err := runner.BuildVariables(job, command.StringSlice("allowed-env"))
	if err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := runner.ExpandTemplates(&job, variables); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	return job, nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("job file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
