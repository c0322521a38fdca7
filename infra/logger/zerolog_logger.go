package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options select where and how log lines are written.
type Options struct {
	// Out receives the log lines. Nil means stdout.
	Out io.Writer
	// Level is the minimum level written.
	Level zerolog.Level
	// Console renders human readable lines instead of JSON.
	Console bool
}

// OptionsFromEnv reads LOG_LEVEL (default info) and APP_ENV. APP_ENV=dev
// selects the console writer.
func OptionsFromEnv() Options {
	return Options{
		Level:   parseLevel(os.Getenv("LOG_LEVEL")),
		Console: strings.EqualFold(os.Getenv("APP_ENV"), "dev"),
	}
}

// ZerologLogger writes leveled lines tagged with a component field.
type ZerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger builds a logger for component.
func NewZerologLogger(component string, opts Options) *ZerologLogger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).Level(opts.Level).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &ZerologLogger{z: z}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZerologLogger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }
func (l *ZerologLogger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l *ZerologLogger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
func (l *ZerologLogger) Errorf(format string, args ...any) { l.z.Error().Msgf(format, args...) }

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.z.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.z.Info().Fields(fields).Msg(msg)
}

var _ Logger = (*ZerologLogger)(nil)
