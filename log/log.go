// Package log provides the process-wide structured logger. It wraps zerolog
// with the leveled helpers used across the pool: plain, printf-like (f) and
// key/value (w) flavours.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var (
	mu    sync.RWMutex
	log   zerolog.Logger
	level = LogLevelInfo

	// logTestWriter is used by tests and benchmarks to capture the output
	// without touching the file system.
	logTestWriter     io.Writer
	logTestWriterName = "log_test_writer"

	// panicOnInvalidChars makes the logger panic when a log line contains
	// invalid UTF-8. It is enabled in CI through LOG_PANIC_ON_INVALIDCHARS.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	Init(LogLevelInfo, "stderr", nil)
}

// invalidCharChecker is an extra zerolog output that only inspects the
// encoded events.
type invalidCharChecker struct{}

var replacementChars = [][]byte{[]byte(`\ufffd`), []byte("\ufffd")}

func (*invalidCharChecker) Write(p []byte) (int, error) {
	if panicOnInvalidChars {
		for _, r := range replacementChars {
			if bytes.Contains(p, r) {
				panic(fmt.Sprintf("log line with invalid chars: %q", p))
			}
		}
	}
	return len(p), nil
}

// errorLevelWriter forwards only warning and error events.
type errorLevelWriter struct {
	io.Writer
}

func (w *errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.WarnLevel {
		return len(p), nil
	}
	return w.Write(p)
}

// Init (re)configures the logger. Level is one of debug, info, warn or error.
// Output is stdout, stderr or a file path. If errorOutput is not nil, warnings
// and errors are also written there.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		out = f
	}
	outputs := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339Nano,
			NoColor:    output != "stdout" && output != "stderr",
		},
	}
	if errorOutput != nil {
		outputs = append(outputs, &errorLevelWriter{zerolog.ConsoleWriter{
			Out:        errorOutput,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}})
	}
	outputs = append(outputs, &invalidCharChecker{})

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return fmt.Sprintf("%s/%s:%d", path.Base(path.Dir(file)), path.Base(file), line)
	}
	l := zerolog.New(zerolog.MultiLevelWriter(outputs...)).
		With().Timestamp().CallerWithSkipFrameCount(3).Logger()

	lvl := LogLevelInfo
	switch strings.ToLower(logLevel) {
	case LogLevelDebug:
		l = l.Level(zerolog.DebugLevel)
		lvl = LogLevelDebug
	case LogLevelWarn:
		l = l.Level(zerolog.WarnLevel)
		lvl = LogLevelWarn
	case LogLevelError:
		l = l.Level(zerolog.ErrorLevel)
		lvl = LogLevelError
	default:
		l = l.Level(zerolog.InfoLevel)
	}

	mu.Lock()
	log = l
	level = lvl
	mu.Unlock()

	// gnark logs through zerolog as well; keep its output aligned with ours
	// but only when debugging, since the verifier is chatty.
	if lvl == LogLevelDebug {
		gnarklogger.Set(l.With().Str("module", "gnark").Logger())
	} else {
		gnarklogger.Disable()
	}
}

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Level returns the configured log level.
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Debug sends a debug level log message.
func Debug(args ...any) {
	current().Debug().Msg(fmt.Sprint(args...))
}

// Info sends an info level log message.
func Info(args ...any) {
	current().Info().Msg(fmt.Sprint(args...))
}

// Warn sends a warn level log message.
func Warn(args ...any) {
	current().Warn().Msg(fmt.Sprint(args...))
}

// Error sends an error level log message.
func Error(args ...any) {
	current().Error().Msg(fmt.Sprint(args...))
}

// Fatal sends a fatal level log message and exits.
func Fatal(args ...any) {
	current().Fatal().Msg(fmt.Sprint(args...))
}

// Debugf sends a formatted debug level log message.
func Debugf(template string, args ...any) {
	current().Debug().Msgf(template, args...)
}

// Infof sends a formatted info level log message.
func Infof(template string, args ...any) {
	current().Info().Msgf(template, args...)
}

// Warnf sends a formatted warn level log message.
func Warnf(template string, args ...any) {
	current().Warn().Msgf(template, args...)
}

// Errorf sends a formatted error level log message.
func Errorf(template string, args ...any) {
	current().Error().Msgf(template, args...)
}

// Fatalf sends a formatted fatal level log message and exits.
func Fatalf(template string, args ...any) {
	current().Fatal().Msgf(template, args...)
}

// Debugw sends a debug level log message with key-value pairs.
func Debugw(msg string, keyvalues ...any) {
	current().Debug().Fields(keyvalues).Msg(msg)
}

// Infow sends an info level log message with key-value pairs.
func Infow(msg string, keyvalues ...any) {
	current().Info().Fields(keyvalues).Msg(msg)
}

// Warnw sends a warning level log message with key-value pairs.
func Warnw(msg string, keyvalues ...any) {
	current().Warn().Fields(keyvalues).Msg(msg)
}

// Errorw sends an error level log message with a special format for errors.
func Errorw(err error, msg string) {
	current().Error().Err(err).Msg(msg)
}
