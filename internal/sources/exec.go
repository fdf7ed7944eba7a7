package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const (
	ExecSourceKind = "exec"

	defaultExecTimeout = 30 * time.Second
)

type ExecSourceConfig struct {
	Program []string
	Output  string
	Env     map[string]string
	Timeout *string
}

// NewExecSource runs a program with the run directory as its working
// directory and stores its stdout in a file named cfg.Output. The program
// runs on the host, so the run directory must live on the OS filesystem.
func NewExecSource(name string, logger *zap.Logger, cfg ExecSourceConfig) (engine.Source, error) {
	if len(cfg.Program) == 0 {
		return nil, fmt.Errorf("program is required")
	}
	if err := validateFileName(cfg.Output); err != nil {
		return nil, fmt.Errorf("invalid output: %w", err)
	}

	timeout := defaultExecTimeout
	if cfg.Timeout != nil {
		parsed, err := time.ParseDuration(*cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", *cfg.Timeout, err)
		}
		timeout = parsed
	}

	return engine.SourceFunction(name, ExecSourceKind, func(ctx context.Context, fs afero.Fs, dir string) (engine.Artifact, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, cfg.Program[0], cfg.Program[1:]...)
		cmd.Dir = dir

		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		logger.Debug("invoking exec source",
			zap.String("source", name),
			zap.Strings("program", cfg.Program),
			zap.Duration("timeout", timeout),
			zap.String("working_dir", dir),
		)
		start := time.Now()
		err := cmd.Run()
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		logger.Debug("exec source finished",
			zap.String("source", name),
			zap.Int("exit_code", exitCode),
			zap.Duration("duration", time.Since(start)),
		)

		if err != nil {
			stderrStr := strings.TrimSpace(stderr.String())
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return engine.Artifact{}, fmt.Errorf("command timed out after %s: %s", timeout, stderrStr)
			}
			if stderrStr != "" {
				return engine.Artifact{}, fmt.Errorf("command failed: %w: %s", err, stderrStr)
			}
			return engine.Artifact{}, fmt.Errorf("command failed: %w", err)
		}

		path := filepath.Join(dir, cfg.Output)
		if err := afero.WriteFile(fs, path, stdout.Bytes(), 0o644); err != nil {
			return engine.Artifact{}, fmt.Errorf("failed to write command output to %s: %w", path, err)
		}

		return engine.Artifact{Path: path}, nil
	}), nil
}
