// Package log is the structured logging facade used across medcost.
//
// Estimators and services depend on the small Logger interface below; the concrete
// implementation is backed by zerolog. Key/value pairs are passed as alternating
// arguments, using the key constants declared in keys.go where one fits:
//
//	logger := log.GetLoggerWithName("trainer").With(log.SegmentKey, "smokers")
//	logger.Info("Training completed", log.SamplesKey, 274, log.DurationMsKey, 3)
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a leveled key/value logger.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out named loggers sharing one output and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	mu       sync.RWMutex
	base     = newBase(os.Stderr, FormatText, zerolog.InfoLevel)
	provider LoggerProvider
)

func newBase(w io.Writer, format Format, level zerolog.Level) zerolog.Logger {
	if format != FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ToLogLevel parses a level name, falling back to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether ToLogLevel recognises level without falling back.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off":
		return true
	}
	return false
}

// SetupLogger configures the global logger for text output on stderr.
func SetupLogger(level string) {
	Configure(os.Stderr, FormatText, level)
}

// Configure replaces the global logger output, encoding and level.
func Configure(w io.Writer, format Format, level string) {
	mu.Lock()
	defer mu.Unlock()
	base = newBase(w, format, ToLogLevel(level))
	provider = &zerologProvider{root: base}
}

// GetLogger returns the raw zerolog logger for call sites that want the fluent API.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// GetLoggerWithName returns a Logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return getProvider().GetLoggerWithName(name)
}

// LogError logs err at error level.
func LogError(err error, msg string) {
	GetLogger().Error().Err(err).Msg(msg)
}

func getProvider() LoggerProvider {
	mu.RLock()
	p := provider
	mu.RUnlock()
	if p != nil {
		return p
	}
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		provider = &zerologProvider{root: base}
	}
	return provider
}

// NewZerologProvider builds an independent provider writing text to stderr.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return &zerologProvider{root: newBase(os.Stderr, FormatText, level)}
}

// NewProvider builds a provider over an arbitrary writer. Mostly useful in tests.
func NewProvider(w io.Writer, format Format, level zerolog.Level) LoggerProvider {
	return &zerologProvider{root: newBase(w, format, level)}
}

type zerologProvider struct {
	root zerolog.Logger
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.root}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.root.With().Str("logger", name).Logger()}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	z.l.Debug().Fields(toFields(fields)).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	z.l.Info().Fields(toFields(fields)).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	z.l.Warn().Fields(toFields(fields)).Msg(msg)
}

// Error logs at error level. A leading error argument is attached with Err.
func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := z.l.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(toFields(fields)).Msg(msg)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(toFields(fields)).Logger()}
}

// toFields pairs up alternating key/value arguments. A dangling key gets a nil value.
func toFields(kv []interface{}) map[string]interface{} {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]interface{}, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			out[key] = kv[i+1]
		} else {
			out[key] = nil
		}
	}
	return out
}
