package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a job file",
	Flags: []cli.Flag{
		allowedEnvFlag,
	},
	Arguments: []cli.Argument{
		jobArgument,
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		if _, err := loadJob(ctx, command); err != nil {
			return err
		}

		fmt.Printf("✓ Job file '%s' is valid\n", command.StringArg("job"))
		return nil
	},
}
