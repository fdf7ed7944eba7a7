package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/pkgtool/pkgtool/internal/fsutil"
)

var zipCommand = &cli.Command{
	Name:      "zip",
	Usage:     "Write files into a zip archive, one entry per file named after its base name",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    "Archive to create, replaced if it exists",
			Required: true,
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		files := command.Args().Slice()
		if len(files) == 0 {
			return fmt.Errorf("no files provided")
		}

		target := command.String("output")
		if err := fsutil.ZipTo(afero.NewOsFs(), files, target); err != nil {
			return fmt.Errorf("failed to write archive '%s': %w", target, err)
		}

		logger.Info("archive written", zap.String("archive", target), zap.Int("entries", len(files)))
		return nil
	},
}

var rmCommand = &cli.Command{
	Name:  "rm",
	Usage: "Recursively delete a directory",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "dir",
			UsageText: "The directory to delete",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		dir := command.StringArg("dir")
		if dir == "" {
			return fmt.Errorf("no directory provided")
		}

		if err := fsutil.RemoveRecursive(afero.NewOsFs(), dir); err != nil {
			return fmt.Errorf("failed to delete '%s': %w", dir, err)
		}

		logger.Info("directory deleted", zap.String("dir", dir))
		return nil
	},
}
