package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents logging severity.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// Fields holds structured key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger is a small leveled logger with text and json output.
type Logger struct {
	mu        sync.Mutex
	level     Level
	output    io.Writer
	component string
	format    string // "text" or "json"
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the package-level default logger.
func Init(level, format, component string) {
	once.Do(func() {
		defaultLogger = New(level, format, component)
	})
}

// New creates a logger writing to stdout.
func New(levelStr, format, component string) *Logger {
	return &Logger{
		level:     parseLevel(levelStr),
		output:    os.Stdout,
		component: component,
		format:    format,
	}
}

// WithComponent returns a copy of the logger scoped to a component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		level:     l.level,
		output:    l.output,
		component: component,
		format:    l.format,
	}
}

// SetOutput redirects log output, mainly for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.log(DEBUG, msg, merge(fields...)) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.log(INFO, msg, merge(fields...)) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.log(WARN, msg, merge(fields...)) }
func (l *Logger) Error(msg string, fields ...Fields) { l.log(ERROR, msg, merge(fields...)) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.log(FATAL, msg, merge(fields...))
	os.Exit(1)
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     levelNames[level],
			"message":   msg,
		}
		if l.component != "" {
			entry["component"] = l.component
		}
		for k, v := range fields {
			if err, ok := v.(error); ok {
				entry[k] = err.Error()
				continue
			}
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, `{"level":"ERROR","message":"log marshal failed: %v"}`+"\n", err)
			return
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %-5s", timestamp, levelNames[level]))
	if l.component != "" {
		b.WriteString(fmt.Sprintf(" [%s]", l.component))
	}
	b.WriteString(" " + msg)

	// Stable field order keeps text output diffable
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
	}
	b.WriteString("\n")
	fmt.Fprint(l.output, b.String())
}

func parseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func merge(fields ...Fields) Fields {
	if len(fields) == 0 {
		return Fields{}
	}
	out := Fields{}
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// Package-level convenience functions using the default logger.

func Debug(msg string, fields ...Fields) {
	if defaultLogger != nil {
		defaultLogger.Debug(msg, fields...)
		return
	}
	log.Printf("[DEBUG] %s", msg)
}

func Info(msg string, fields ...Fields) {
	if defaultLogger != nil {
		defaultLogger.Info(msg, fields...)
		return
	}
	log.Printf("[INFO] %s", msg)
}

func Warn(msg string, fields ...Fields) {
	if defaultLogger != nil {
		defaultLogger.Warn(msg, fields...)
		return
	}
	log.Printf("[WARN] %s", msg)
}

func Error(msg string, fields ...Fields) {
	if defaultLogger != nil {
		defaultLogger.Error(msg, fields...)
		return
	}
	log.Printf("[ERROR] %s", msg)
}

// GetDefault returns the default logger, nil before Init.
func GetDefault() *Logger {
	return defaultLogger
}
