package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hnrobert/lumprov/internal/hostfs"
)

var (
	ErrNotRoot       = errors.New("must be run as root")
	ErrMissingInput  = errors.New("missing input file argument")
	ErrInputNotFound = errors.New("input file not found")
)

const (
	SinkDirMode  os.FileMode = 0700
	SinkFileMode os.FileMode = 0600
)

// Preflight checks privilege, then the argument list, then the input file,
// in that order. It returns the input path.
func Preflight(euid int, args []string) (string, error) {
	if euid != 0 {
		return "", ErrNotRoot
	}
	if len(args) == 0 || args[0] == "" {
		return "", ErrMissingInput
	}
	input := args[0]
	st, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return "", fmt.Errorf("stat %s: %w", input, err)
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrInputNotFound, input)
	}
	return input, nil
}

// OpenSink prepares the directory and file at path without truncating an
// existing file, and opens it for appending.
func OpenSink(path string) (*hostfs.Appender, error) {
	if err := hostfs.EnsureDir(filepath.Dir(path), SinkDirMode); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", filepath.Dir(path), err)
	}
	if err := hostfs.EnsureFile(path, SinkFileMode); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", path, err)
	}
	a, err := hostfs.OpenAppender(path, SinkFileMode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return a, nil
}
