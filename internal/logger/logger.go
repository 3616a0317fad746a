package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

// Logger writes colored lines to stdout and JSON lines to a daily log file.
type Logger struct {
	logFile *os.File
}

func NewLogger(dir string) *Logger {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("yard-ticketing-%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	l := &Logger{logFile: logFile}
	l.Info("LOGGER", fmt.Sprintf("Log file: %s", name))
	return l
}

func (l *Logger) log(level LogLevel, category, message string) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     levelToString(level),
		Category:  category,
		Message:   message,
	}

	fmt.Print(l.formatTerminal(entry))

	if l.logFile != nil {
		if jsonBytes, err := json.Marshal(entry); err == nil {
			l.logFile.WriteString(string(jsonBytes) + "\n")
		}
	}
}

func (l *Logger) formatTerminal(entry LogEntry) string {
	var levelColor *color.Color
	switch entry.Level {
	case "DEBUG":
		levelColor = color.New(color.FgCyan)
	case "INFO":
		levelColor = color.New(color.FgGreen)
	case "WARN":
		levelColor = color.New(color.FgYellow)
	case "ERROR", "FATAL":
		levelColor = color.New(color.FgRed)
	default:
		levelColor = color.New(color.FgWhite)
	}

	timeStr := color.New(color.FgBlue).Sprint(entry.Timestamp[11:19])
	levelStr := levelColor.Sprintf("%-5s", entry.Level)
	categoryStr := levelColor.Add(color.Bold).Sprintf("[%-10s]", entry.Category)
	return fmt.Sprintf("%s %s %s %s\n", timeStr, levelStr, categoryStr, entry.Message)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "INFO"
	}
}

func (l *Logger) Debug(category, message string) { l.log(DEBUG, category, message) }
func (l *Logger) Info(category, message string)  { l.log(INFO, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(WARN, category, message) }
func (l *Logger) Error(category, message string) { l.log(ERROR, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
}
