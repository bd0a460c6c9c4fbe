// Package logger writes the provisioning audit trail.
//
// Every entry is one line, "2006-01-02 15:04:05 [LEVEL] message", appended
// to a Sink and mirrored to the console. The sink write completes before the
// call returns, so entries on disk are always in processing order.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const TimeLayout = "2006-01-02 15:04:05"

const separator = "----------------------------------------"

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Sink receives complete log lines. Append must not return before the line
// is durable.
type Sink interface {
	Append(line string) error
}

type Logger struct {
	mu      sync.Mutex
	sink    Sink
	console io.Writer
	now     func() time.Time
	labels  map[Level]*color.Color
	err     error
}

// New returns a Logger writing to sink (may be nil for console only) and
// console (may be nil). Colors are enabled when console is a terminal.
func New(sink Sink, console io.Writer) *Logger {
	l := &Logger{
		sink:    sink,
		console: console,
		now:     time.Now,
		labels: map[Level]*color.Color{
			LevelInfo:  color.New(color.FgGreen),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed, color.Bold),
		},
	}
	l.SetColor(isTerminal(console))
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor forces console colors on or off.
func (l *Logger) SetColor(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.labels {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// SetClock replaces the timestamp source.
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Logger) Info(format string, args ...any) {
	l.Log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.Log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.Log(LevelError, format, args...)
}

func (l *Logger) Log(lvl Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format(TimeLayout)
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	label := "[" + lvl.String() + "]"

	if l.sink != nil {
		if err := l.sink.Append(ts + " " + label + " " + msg); err != nil && l.err == nil {
			l.err = err
		}
	}
	if l.console != nil {
		c := l.labels[lvl]
		if c != nil {
			label = c.Sprint(label)
		}
		fmt.Fprintf(l.console, "%s %s %s\n", ts, label, msg)
	}
}

// Separator prints a record divider on the console only.
func (l *Logger) Separator() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		fmt.Fprintln(l.console, separator)
	}
}

// Err returns the first error the sink reported, if any.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
