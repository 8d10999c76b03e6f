package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the program logger
type Options struct {
	Name      string // log file base name and "prog" attribute
	Directory string // empty logs to Stderr
	Level     string // debug, info, warn or error
}

// New creates the program logger. With a directory, JSON records go into a
// rotating log file, otherwise text records go to stderr. The returned closer
// releases the log file.
func New(opts Options) (*slog.Logger, io.Closer) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: replacer,
	}

	if opts.Directory == "" {
		handler := slog.NewTextHandler(os.Stderr, handlerOpts)
		return slog.New(handler), nopCloser{}
	}

	name := opts.Name
	if name == "" {
		name = "landscape-utils"
	}

	// rotated by size, old files are gzipped
	file := &lumberjack.Logger{
		Filename: filepath.Join(opts.Directory, name+".log"),
		MaxSize:  128, // megabytes
		MaxAge:   28,  // days
		Compress: true,
	}

	handler := slog.NewJSONHandler(file, handlerOpts).WithAttrs([]slog.Attr{slog.String("prog", name)})
	return slog.New(handler), file
}

// ParseLevel maps a level name to a slog level, unknown names mean info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replacer(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
	}
	if a.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
