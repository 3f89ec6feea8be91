package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss/table"
)

// Level represents the logging verbosity level
type Level int

const (
	// LevelQuiet shows only critical information (errors, warnings, final summary)
	LevelQuiet Level = iota
	// LevelNormal shows standard run progress (default)
	LevelNormal
	// LevelVerbose shows every browser step
	LevelVerbose
	// LevelDebug shows all internal details for debugging
	LevelDebug
)

// Logger provides leveled, coloured console logging for a harness run.
type Logger struct {
	mu     sync.Mutex
	level  Level
	writer io.Writer
	color  bool
}

const (
	colorReset     = "\033[0m"
	colorCyan      = "\033[36m"
	colorSalmon    = "\033[38;5;217m"
	colorYellow    = "\033[33m"
	colorRed       = "\033[31m"
	colorGray      = "\033[90m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
	colorBoldWhite = "\033[1;37m"
)

// NewLogger creates a logger writing coloured output to stdout.
func NewLogger(level Level) *Logger {
	return &Logger{
		level:  level,
		writer: os.Stdout,
		color:  true,
	}
}

// NewPlainLogger creates a logger without ANSI colours, used for log files and tests.
func NewPlainLogger(level Level, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		writer: w,
	}
}

func (l *Logger) paint(color, s string) string {
	if !l.color || color == "" {
		return s
	}
	return color + s + colorReset
}

func (l *Logger) println(at Level, color, s string) {
	if l.level < at {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.writer, l.paint(color, s))
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	bar := strings.Repeat("=", 70)
	l.println(LevelNormal, colorBoldWhite, "\n"+bar+"\n  "+message+"\n"+bar)
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	l.println(LevelNormal, colorCyan, "\n▶ "+title)
	l.println(LevelNormal, colorGray, strings.Repeat("─", 50))
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	l.println(LevelNormal, colorBoldGreen, "✓ "+fmt.Sprintf(format, args...))
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.println(LevelNormal, colorSalmon, fmt.Sprintf(format, args...))
}

// Printf prints an uncoloured message at normal verbosity.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.println(LevelNormal, "", fmt.Sprintf(format, args...))
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.println(LevelQuiet, colorYellow, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.println(LevelQuiet, colorBoldRed, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Failuref prints failure detail. Failure detail is never suppressed by verbosity.
func (l *Logger) Failuref(format string, args ...interface{}) {
	l.println(LevelQuiet, colorRed, fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.println(LevelVerbose, colorGray, "→ "+fmt.Sprintf(format, args...))
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.println(LevelDebug, colorGray, "[DEBUG] "+fmt.Sprintf(format, args...))
}

// Table renders rows under the given headers. Like Failuref it prints at every verbosity.
func (l *Logger) Table(headers []string, rows [][]string) {
	t := table.New().Headers(headers...).Rows(rows...)
	l.println(LevelQuiet, "", t.Render())
}

// ParseLevel converts a string verbosity to a Level.
func ParseLevel(level string) Level {
	switch level {
	case "quiet":
		return LevelQuiet
	case "normal":
		return LevelNormal
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}
