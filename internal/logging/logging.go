package logging

// Leveled logging for solarmanv5.
//
// The protocol session takes a Logger as an injected capability so that
// library users can route frame-level chatter wherever they want. The
// default is Nop: the session never writes anywhere unless asked to.

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the logging level.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelInfo
	LevelDebug
)

// Logger is the capability the session and codecs log through.
type Logger interface {
	Errorf(format string, v ...any)
	Infof(format string, v ...any)
	Debugf(format string, v ...any)
}

// Nop is a Logger that discards everything.
type Nop struct{}

func (Nop) Errorf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Debugf(string, ...any) {}

// Std is a leveled logger writing to stdout/stderr.
type Std struct {
	mu     sync.Mutex
	level  Level
	stdout *log.Logger
	stderr *log.Logger
}

var _ Logger = (*Std)(nil)

// NewStd creates a leveled logger. Errors go to stderr, the rest to stdout.
func NewStd(level Level) *Std {
	return &Std{
		level:  level,
		stdout: log.New(os.Stdout, "", 0),
		stderr: log.New(os.Stderr, "", 0),
	}
}

// NewStdWriter creates a leveled logger writing all output to w.
func NewStdWriter(level Level, w io.Writer) *Std {
	l := log.New(w, "", 0)
	return &Std{level: level, stdout: l, stderr: l}
}

// Errorf logs an error message.
func (l *Std) Errorf(format string, v ...any) {
	if l.level >= LevelError {
		l.write(l.stderr, "ERROR: "+format, v...)
	}
}

// Infof logs an informational message.
func (l *Std) Infof(format string, v ...any) {
	if l.level >= LevelInfo {
		l.write(l.stdout, "INFO: "+format, v...)
	}
}

// Debugf logs a debug message.
func (l *Std) Debugf(format string, v ...any) {
	if l.level >= LevelDebug {
		l.write(l.stdout, "DEBUG: "+format, v...)
	}
}

func (l *Std) write(out *log.Logger, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out.Println(fmt.Sprintf(format, v...))
}

// SetLevel sets the logging level.
func (l *Std) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Hex formats bytes as space-separated hex pairs for log lines.
func Hex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// Or returns l if non-nil, otherwise a Nop logger.
func Or(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
