package main

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/pkgtool/pkgtool/internal/progress"
)

type interactiveCtxKeyType struct{}

var interactiveCtxKey = interactiveCtxKeyType{}

func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func withInteractive(ctx context.Context, interactive bool) context.Context {
	return context.WithValue(ctx, interactiveCtxKey, interactive)
}

func isInteractive(ctx context.Context) bool {
	interactive, ok := ctx.Value(interactiveCtxKey).(bool)
	if !ok {
		return false
	}
	return interactive
}

// newTracker returns a progress tracker drawn on w when the session is
// interactive and a silent one otherwise.
func newTracker(ctx context.Context, w io.Writer, enabled bool) *progress.Tracker {
	tracker := progress.New()
	if enabled && isInteractive(ctx) {
		tracker.Subscribe(progress.NewTerminalRenderer(w).Observe)
	}
	return tracker
}
