package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pkgtool/pkgtool/internal/tempdir"
)

const shutdownTimeout = 10 * time.Second

var (
	loggerDeferFunc  func() error
	tempDirDeferFunc func(ctx context.Context) error
)

func main() {
	app := &cli.Command{
		Name:  "pkgtool",
		Usage: "Bundle, archive and publish package files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log Level (debug, info, warn, error, fatal)",
				Action: func(ctx context.Context, command *cli.Command, s string) error {
					_, err := zapcore.ParseLevel(s)
					if err != nil {
						return fmt.Errorf("invalid log level %s: %w", s, err)
					}
					return nil
				},
			},
			&cli.DurationFlag{
				Name:  "cleanup-delay",
				Value: tempdir.DefaultCleanupDelay,
				Usage: "Grace delay before temporary directories are removed",
				Action: func(ctx context.Context, command *cli.Command, d time.Duration) error {
					if d < 0 {
						return fmt.Errorf("cleanup delay must not be negative: %s", d)
					}
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			bundleCommand,
			validateCommand,
			zipCommand,
			rmCommand,
			versionCommand,
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logger, _, err := createLogger(command.Bool("debug"), command.String("log-level"))
			if err != nil {
				return nil, err
			}

			logger.Debug("logger created", zap.String("log_level", command.String("log-level")))

			loggerDeferFunc = func() error {
				return logger.Sync()
			}

			tempDirs := tempdir.New(
				tempdir.WithLogger(logger.Named("tempdir")),
				tempdir.WithCleanupDelay(command.Duration("cleanup-delay")),
			)
			tempDirDeferFunc = tempDirs.Close

			ctx = withLogger(ctx, logger)
			ctx = withTempDirs(ctx, tempDirs)
			ctx = withInteractive(ctx, isInteractiveEnvironment())
			return ctx, nil
		},
		ExitErrHandler: func(ctx context.Context, command *cli.Command, err error) {
			if err == nil {
				return
			}

			shutdown(ctx)

			if logger := tryLogger(ctx); logger != nil {
				logger.Fatal("failed to run application", zap.Error(err))
			} else {
				log.Fatal(fmt.Errorf("failed to run application: %w", err))
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	defer shutdown(ctx)

	app.Run(ctx, os.Args)
}

// shutdown waits for pending temporary directory removals and flushes the
// logger. Later calls are no-ops.
func shutdown(ctx context.Context) {
	if tempDirDeferFunc != nil {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		if err := tempDirDeferFunc(closeCtx); err != nil {
			if logger := tryLogger(ctx); logger != nil {
				logger.Warn("failed to clean up temporary directories", zap.Error(err))
			}
		}
		cancel()
		tempDirDeferFunc = nil
	}

	if loggerDeferFunc != nil {
		loggerDeferFunc()
		loggerDeferFunc = nil
	}
}
