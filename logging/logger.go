package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crytic/tenet/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger is the root Logger of the process. It is disabled until a command configures it, and every package
// derives its own sub-logger from it so that log lines can be filtered by module.
var GlobalLogger = NewLogger(zerolog.Disabled, false)

// Logger fans log events out to an optional colorized console stream and to any number of additional writers, which
// may be structured (JSON) or unstructured (plain text).
type Logger struct {
	// level is the minimum level of events that are emitted.
	level zerolog.Level

	// context holds key-value pairs attached by NewSubLogger. It is re-applied whenever the writer set changes.
	context []contextField

	// consoleEnabled indicates whether console output is enabled.
	consoleEnabled bool

	// multiLogger sends events to every writer in writers.
	multiLogger zerolog.Logger

	// consoleLogger sends colorized, unstructured events to stdout.
	consoleLogger zerolog.Logger

	// writers are the additional output channels of this logger, wrapped according to their LogFormat.
	writers []io.Writer

	// sources holds the writers as they were provided, index-aligned with writers.
	sources []io.Writer
}

// contextField is a single key-value pair carried by a sub-logger.
type contextField struct {
	key   string
	value string
}

// LogFormat describes the format a writer receives log events in.
type LogFormat string

const (
	// STRUCTURED emits JSON log events.
	STRUCTURED LogFormat = "structured"
	// UNSTRUCTURED emits human-readable log events without ANSI coloring.
	UNSTRUCTURED LogFormat = "unstructured"
)

// StructuredLogInfo is a key-value mapping attached to a log event under the "info" key.
type StructuredLogInfo map[string]any

// NewLogger creates a Logger with the given level. Console output is emitted if consoleEnabled is set, and events are
// additionally written to every provided writer in structured format.
func NewLogger(level zerolog.Level, consoleEnabled bool, writers ...io.Writer) *Logger {
	l := &Logger{
		level:          level,
		consoleEnabled: consoleEnabled,
		writers:        append([]io.Writer(nil), writers...),
		sources:        append([]io.Writer(nil), writers...),
	}
	l.rebuild()
	return l
}

// rebuild recreates the underlying zerolog loggers from the current level, context and writer set.
func (l *Logger) rebuild() {
	// Disabled loggers are still instantiated so that callers never hit a nil logger
	multiLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	consoleLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)

	if len(l.writers) > 0 {
		multiLogger = zerolog.New(zerolog.MultiLevelWriter(l.writers...)).Level(l.level).With().Timestamp().Logger()
	}
	if l.consoleEnabled {
		consoleWriter := setupDefaultFormatting(zerolog.ConsoleWriter{Out: os.Stdout}, l.level)
		consoleLogger = zerolog.New(consoleWriter).Level(l.level)
	}

	for _, field := range l.context {
		multiLogger = multiLogger.With().Str(field.key, field.value).Logger()
		consoleLogger = consoleLogger.With().Str(field.key, field.value).Logger()
	}

	l.multiLogger = multiLogger
	l.consoleLogger = consoleLogger
}

// NewSubLogger creates a new Logger which carries an additional key-value pair on every event. Each package should
// create its own sub-logger (keyed by "module") so that output can be grepped per component.
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	context := make([]contextField, len(l.context), len(l.context)+1)
	copy(context, l.context)
	context = append(context, contextField{key: key, value: value})

	sub := &Logger{
		level:          l.level,
		context:        context,
		consoleEnabled: l.consoleEnabled,
		writers:        append([]io.Writer(nil), l.writers...),
		sources:        append([]io.Writer(nil), l.sources...),
	}
	sub.rebuild()
	return sub
}

// AddWriter adds a writer to the set of channels log output is sent to. Adding a writer twice is a no-op.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat) {
	for _, w := range l.sources {
		if w == writer {
			return
		}
	}

	// Unstructured output is a console writer without colors on top of the provided writer
	wrapped := writer
	if format == UNSTRUCTURED {
		wrapped = zerolog.ConsoleWriter{Out: writer, NoColor: true}
	}

	l.sources = append(l.sources, writer)
	l.writers = append(l.writers, wrapped)
	l.rebuild()
}

// RemoveWriter removes a writer from the set of channels managed by the logger. Removing an unknown writer is a no-op.
func (l *Logger) RemoveWriter(writer io.Writer) {
	for i, w := range l.sources {
		if w == writer {
			l.sources = append(l.sources[:i], l.sources[i+1:]...)
			l.writers = append(l.writers[:i], l.writers[i+1:]...)
			l.rebuild()
			return
		}
	}
}

// Writers returns the number of writers currently attached to the logger.
func (l *Logger) Writers() int {
	return len(l.writers)
}

// Level returns the log level of the Logger.
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel updates the log level of the Logger.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
	l.multiLogger = l.multiLogger.Level(level)
	l.consoleLogger = l.consoleLogger.Level(level)
}

// Trace logs a trace event.
func (l *Logger) Trace(args ...any) {
	l.emit(l.consoleLogger.Trace(), l.multiLogger.Trace(), l.level <= zerolog.DebugLevel, args...)
}

// Debug logs a debug event.
func (l *Logger) Debug(args ...any) {
	l.emit(l.consoleLogger.Debug(), l.multiLogger.Debug(), l.level <= zerolog.DebugLevel, args...)
}

// Info logs an info event.
func (l *Logger) Info(args ...any) {
	l.emit(l.consoleLogger.Info(), l.multiLogger.Info(), l.level <= zerolog.DebugLevel, args...)
}

// Warn logs a warning event.
func (l *Logger) Warn(args ...any) {
	l.emit(l.consoleLogger.Warn(), l.multiLogger.Warn(), l.level <= zerolog.DebugLevel, args...)
}

// Error logs an error event.
func (l *Logger) Error(args ...any) {
	l.emit(l.consoleLogger.Error(), l.multiLogger.Error(), l.level <= zerolog.DebugLevel, args...)
}

// Panic logs a panic event and then panics.
func (l *Logger) Panic(args ...any) {
	l.emit(l.consoleLogger.Panic(), l.multiLogger.Panic(), true, args...)
}

// emit builds the console and multi-writer messages from args, chains any error and structured info onto both events
// and sends them.
func (l *Logger) emit(consoleLog *zerolog.Event, multiLog *zerolog.Event, withStack bool, args ...any) {
	consoleMsg, multiMsg, err, info := buildMsgs(args...)

	// Err is safe to call with a nil error
	consoleLog.Err(err)
	multiLog.Err(err)
	if withStack && err != nil {
		consoleLog.Stack()
		multiLog.Stack()
	}

	if info != nil {
		consoleLog.Any("info", info)
		multiLog.Any("info", info)
	}

	// The multi logger is sent last so that a panic event still reaches every writer
	defer multiLog.Msg(multiMsg)
	consoleLog.Msg(consoleMsg)
}

// buildMsgs takes a variadic list of arguments and returns a colorized message for the console, a plain message for
// other writers, and optionally an error and a StructuredLogInfo found among the arguments. A colors.ColorFunc
// argument changes the color applied to every following argument.
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	if len(args) == 0 {
		return "", "", nil, nil
	}

	colorCtx := colors.Reset
	consoleOutput := make([]string, 0, len(args))
	fileOutput := make([]string, 0, len(args))
	var info StructuredLogInfo
	var err error

	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			colorCtx = t
		case StructuredLogInfo:
			// Only one structured log info is kept per message
			info = t
		case error:
			// Only one error is kept per message
			err = t
		case *LogBuffer:
			console, file, _, _ := buildMsgs(t.Args()...)
			consoleOutput = append(consoleOutput, console)
			fileOutput = append(fileOutput, file)
		default:
			consoleOutput = append(consoleOutput, colorCtx(t))
			fileOutput = append(fileOutput, fmt.Sprintf("%v", t))
		}
	}

	return strings.Join(consoleOutput, ""), strings.Join(fileOutput, ""), err, info
}

// setupDefaultFormatting applies the console layout: no timestamps, glyph-based colored levels, and the module field
// hidden unless debugging.
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	writer.FormatTimestamp = func(i any) string {
		return ""
	}

	writer.FormatLevel = func(i any) string {
		levelStr, _ := i.(string)
		parsed, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return levelStr
		}

		switch parsed {
		case zerolog.TraceLevel:
			return colors.CyanBold(zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return colors.BlueBold(zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return colors.GreenBold(colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return colors.YellowBold(zerolog.LevelWarnValue)
		case zerolog.ErrorLevel:
			return colors.RedBold(zerolog.LevelErrorValue)
		case zerolog.FatalLevel:
			return colors.RedBold(zerolog.LevelFatalValue)
		case zerolog.PanicLevel:
			return colors.RedBold(zerolog.LevelPanicValue)
		default:
			return levelStr
		}
	}

	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{"module", "campaign"}
	}

	return writer
}
