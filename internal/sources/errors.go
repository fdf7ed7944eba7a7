// Package sources implements the engine.Source kinds a bundle job can use:
// local files, inline content, command output and HTTP downloads.
package sources

import "errors"

var (
	ErrExpectedFile = errors.New("expected file, got directory")
	ErrInvalidName  = errors.New("name must be a single path element")
)
