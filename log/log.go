// Package log provides the shared logger for the pool services, backed by
// zerolog. Call Init once at process start; the package-level helpers are
// safe for concurrent use after that.
package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger
	// panicOnInvalidChars turns any non-UTF8 byte in a log line into a
	// panic. Only meant for testing, as the check is expensive.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"

	logTestWriter     io.Writer // used if Init's output is logTestWriterName
	logTestWriterName = "_testWriter"
)

// Logging levels accepted by Init.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

func init() {
	// Allow the package to be used before Init, for tests and tools.
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func checkInvalidChars(template string, args []any) {
	if !panicOnInvalidChars {
		return
	}
	if s := fmt.Sprintf(template, args...); !utf8.ValidString(s) {
		panic(fmt.Sprintf("log line with invalid chars: %q", s))
	}
}

// Init initializes the logger. Output may be "stdout", "stderr" or a file
// path. If errOutput is non-nil, log lines at error level or above are also
// written to it.
func Init(level, output string, errOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	if output == "stdout" || output == "stderr" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "3:04:05PM"}
	}
	writers := []io.Writer{out}
	if errOutput != nil {
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: errOutput},
			Level:  zerolog.ErrorLevel,
		})
	}
	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	switch level {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level %q", level))
	}
	log.Debug().Msgf("logger construction succeeded at level %s with output %s", level, output)
}

// Level returns the current logging level name.
func Level() string {
	return log.GetLevel().String()
}

// Logger returns the underlying zerolog instance, for components that need
// structured sub-loggers.
func Logger() *zerolog.Logger { return &log }

func Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }
func Info(args ...any)  { log.Info().Msg(fmt.Sprint(args...)) }
func Warn(args ...any)  { log.Warn().Msg(fmt.Sprint(args...)) }

// Error logs an error value at error level.
func Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }

func Debugf(template string, args ...any) {
	checkInvalidChars(template, args)
	log.Debug().Msgf(template, args...)
}

func Infof(template string, args ...any) {
	checkInvalidChars(template, args)
	log.Info().Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	checkInvalidChars(template, args)
	log.Warn().Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	checkInvalidChars(template, args)
	log.Error().Msgf(template, args...)
}

// Fatalf logs at error level and exits the process.
func Fatalf(template string, args ...any) {
	log.Fatal().Msgf(template, args...)
}

// Fatal logs the arguments and exits the process.
func Fatal(args ...any) {
	log.Fatal().Msg(fmt.Sprint(args...))
}

func Debugw(msg string, keyvalues ...any) { logw(log.Debug(), msg, keyvalues) }
func Infow(msg string, keyvalues ...any)  { logw(log.Info(), msg, keyvalues) }
func Warnw(msg string, keyvalues ...any)  { logw(log.Warn(), msg, keyvalues) }
func Errorw(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}

func logw(ev *zerolog.Event, msg string, keyvalues []any) {
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = strconv.Itoa(i)
		}
		ev = withKeyValue(ev, key, keyvalues[i+1])
	}
	ev.Msg(msg)
}

func withKeyValue(ev *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return ev.Str(key, v)
	case []byte:
		return ev.Str(key, fmt.Sprintf("%x", v))
	case int:
		return ev.Int(key, v)
	case int64:
		return ev.Int64(key, v)
	case uint32:
		return ev.Uint32(key, v)
	case uint64:
		return ev.Uint64(key, v)
	case bool:
		return ev.Bool(key, v)
	case time.Duration:
		return ev.Dur(key, v)
	case time.Time:
		return ev.Time(key, v)
	case error:
		return ev.AnErr(key, v)
	case fmt.Stringer:
		return ev.Str(key, v.String())
	default:
		return ev.Interface(key, v)
	}
}
