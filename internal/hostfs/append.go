package hostfs

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Appender appends lines to a file opened with O_APPEND. Each Append takes an
// exclusive flock so concurrent provisioner runs cannot interleave lines.
type Appender struct {
	path string
	f    *os.File
}

// OpenAppender opens path for appending, creating it with perm. An existing
// file keeps its content; its mode is narrowed to perm.
func OpenAppender(path string, perm os.FileMode) (*Appender, error) {
	if err := EnsureFile(path, perm); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, perm)
	if err != nil {
		return nil, err
	}
	return &Appender{path: path, f: f}, nil
}

func (a *Appender) Path() string {
	return a.path
}

// Append writes line (a trailing newline is added when missing) and fsyncs
// before returning.
func (a *Appender) Append(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	m := muFor(a.path)
	m.Lock()
	defer m.Unlock()

	fd := int(a.f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", a.path, err)
	}
	defer func() { _ = unix.Flock(fd, unix.LOCK_UN) }()

	if _, err := a.f.WriteString(line); err != nil {
		return fmt.Errorf("append %s: %w", a.path, err)
	}
	if err := a.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", a.path, err)
	}
	return nil
}

func (a *Appender) Close() error {
	return a.f.Close()
}
