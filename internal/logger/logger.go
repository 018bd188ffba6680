package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Level represents the logging level.
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

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

// Logger writes leveled messages to a console writer and, optionally, to a
// log file. The file never receives color codes.
type Logger struct {
	mu          sync.Mutex
	level       Level
	output      io.Writer
	colorEnable bool
	file        *os.File
	filePath    string
}

// New creates a logger writing to w at the given level. Colors are enabled
// only when w is a terminal.
func New(w io.Writer, levelStr string) *Logger {
	return &Logger{
		level:       ParseLevel(levelStr),
		output:      w,
		colorEnable: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger with the specified level.
func Init(levelStr string) {
	once.Do(func() {
		defaultLogger = New(os.Stdout, levelStr)
	})
}

// InitWithFile initializes the default logger and additionally tees output to
// a timestamped file under logDir.
func InitWithFile(levelStr, logDir string) error {
	Init(levelStr)
	return defaultLogger.OpenFile(logDir)
}

func std() *Logger {
	if defaultLogger == nil {
		Init("info")
	}
	return defaultLogger
}

// Default returns the package-level logger.
func Default() *Logger { return std() }

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) { std().SetLevel(levelStr) }

// SetOutput sets the console destination for the default logger.
func SetOutput(w io.Writer) { std().SetOutput(w) }

// SetColorEnable enables or disables color output on the console.
func SetColorEnable(enable bool) { std().SetColorEnable(enable) }

// GetLogFilePath returns the default logger's file path, or "" if none.
func GetLogFilePath() string { return std().FilePath() }

// Close closes the default logger's log file, if any.
func Close() error { return std().Close() }

// ParseLevel converts a string to a Level, defaulting to INFO.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
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

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(levelStr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLevel(levelStr)
}

// SetOutput changes the console writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetColorEnable toggles ANSI colors on the console writer.
func (l *Logger) SetColorEnable(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorEnable = enable
}

// OpenFile starts teeing log lines to smoke_<timestamp>.log under dir.
func (l *Logger) OpenFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("smoke_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.filePath = path
	return nil
}

// FilePath returns the current log file path, or "" if none is open.
func (l *Logger) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// Close closes the log file. Console output is unaffected.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// log writes a log message if the level is sufficient.
func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	levelName := levelNames[level]
	plain := fmt.Sprintf("[%s] %s", levelName, message)

	console := plain
	if l.colorEnable {
		console = fmt.Sprintf("%s[%s]%s %s", levelColors[level], levelName, colorReset, message)
	}
	log.New(l.output, "", log.LstdFlags).Println(console)

	if l.file != nil {
		log.New(l.file, "", log.LstdFlags).Println(plain)
	}
}

// Block logs a multi-line text under a title, one line at a time, so
// captured process output stays readable in the log.
func (l *Logger) Block(level Level, title, text string) {
	l.log(level, "%s (%d bytes)", title, len(text))
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if line == "" && text == "" {
			break
		}
		l.log(level, "  | %s", line)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Debug logs a debug message.
func Debug(format string, args ...interface{}) { std().log(DEBUG, format, args...) }

// Info logs an info message.
func Info(format string, args ...interface{}) { std().log(INFO, format, args...) }

// Warn logs a warning message.
func Warn(format string, args ...interface{}) { std().log(WARN, format, args...) }

// Error logs an error message.
func Error(format string, args ...interface{}) { std().log(ERROR, format, args...) }
