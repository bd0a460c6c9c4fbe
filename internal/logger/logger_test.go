package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/lumprov/internal/hostfs"
)

type memSink struct {
	lines []string
	err   error
}

func (s *memSink) Append(line string) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC)
	return func() time.Time { return t }
}

func TestLogger_FormatsFileAndConsole(t *testing.T) {
	sink := &memSink{}
	var console bytes.Buffer
	l := New(sink, &console)
	l.SetClock(fixedClock())

	l.Info("user %s: created", "alice")
	l.Warn("line %d: skipped (%s)", 4, "invalid username")
	l.Error("group dev: %v", errors.New("boom"))
	l.Separator()

	assert.Equal(t, []string{
		"2024-03-09 08:07:06 [INFO] user alice: created",
		"2024-03-09 08:07:06 [WARN] line 4: skipped (invalid username)",
		"2024-03-09 08:07:06 [ERROR] group dev: boom",
	}, sink.lines)
	assert.Equal(t, "2024-03-09 08:07:06 [INFO] user alice: created\n"+
		"2024-03-09 08:07:06 [WARN] line 4: skipped (invalid username)\n"+
		"2024-03-09 08:07:06 [ERROR] group dev: boom\n"+
		separator+"\n", console.String())
	assert.NoError(t, l.Err())
}

func TestLogger_ColorsConsoleOnly(t *testing.T) {
	sink := &memSink{}
	var console bytes.Buffer
	l := New(sink, &console)
	l.SetClock(fixedClock())
	l.SetColor(true)

	l.Error("x")
	assert.Equal(t, "2024-03-09 08:07:06 [ERROR] x", sink.lines[0])
	assert.Contains(t, console.String(), "\x1b[")
}

func TestLogger_RecordsFirstSinkError(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	var console bytes.Buffer
	l := New(sink, &console)
	l.Info("a")
	l.Info("b")
	assert.EqualError(t, l.Err(), "disk full")
	assert.Contains(t, console.String(), "[INFO] b")
}

func TestLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.log")
	a, err := hostfs.OpenAppender(path, 0600)
	require.NoError(t, err)
	defer a.Close()

	l := New(a, nil)
	l.SetClock(fixedClock())
	l.Info("first")
	l.Warn("second")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09 08:07:06 [INFO] first\n2024-03-09 08:07:06 [WARN] second\n", string(b))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}
