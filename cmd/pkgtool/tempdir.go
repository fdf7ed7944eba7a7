package main

import (
	"context"

	"github.com/pkgtool/pkgtool/internal/tempdir"
)

type tempDirsCtxKeyType struct{}

var tempDirsCtxKey = tempDirsCtxKeyType{}

func withTempDirs(ctx context.Context, m *tempdir.Manager) context.Context {
	return context.WithValue(ctx, tempDirsCtxKey, m)
}

// getTempDirs returns the process-wide temporary directory manager. It is
// closed by main before exit.
func getTempDirs(ctx context.Context) *tempdir.Manager {
	m, ok := ctx.Value(tempDirsCtxKey).(*tempdir.Manager)
	if !ok {
		panic("temporary directory manager not found in context")
	}
	return m
}
