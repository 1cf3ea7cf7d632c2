package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	Logger *logrus.Logger // Main application logger
	once   sync.Once
)

// ParseLevel maps LOG_LEVEL values onto logrus levels, defaulting to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Initialize sets up the application logger. Application logs go to file
// when one is given, stdout otherwise.
func Initialize(level, file string) {
	l := logrus.New()
	l.SetLevel(ParseLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   file != "",
	})

	var out io.Writer = os.Stdout
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			fmt.Printf("Failed to create log directory: %v\n", err)
		} else if f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
		} else {
			out = f
			l.SetReportCaller(true)
		}
	}
	l.SetOutput(out)

	Logger = l
	Logger.WithFields(logrus.Fields{
		"log_level": l.GetLevel().String(),
		"log_file":  file,
	}).Info("Logging system initialized")
}

// GetLogger returns the configured logger, initializing a stdout logger on
// first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		if Logger == nil {
			Initialize(os.Getenv("LOG_LEVEL"), "")
		}
	})
	return Logger
}

// WithContext creates a logger with additional context fields
func WithContext(fields map[string]interface{}) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithUser creates a logger with user context
func WithUser(userID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"user_id":   userID,
		"component": "controller",
	})
}

// WithComplaint creates a logger with complaint context
func WithComplaint(complaintID uint, actorID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"complaint_id": complaintID,
		"actor_id":     actorID,
		"component":    "complaint_service",
	})
}

// WithNotification creates a logger for the notification workers
func WithNotification(kind, to string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"kind":      kind,
		"to":        to,
		"component": "notifier",
	})
}

// WithError creates a logger with error context
func WithError(err error, component string) *logrus.Entry {
	fields := logrus.Fields{
		"error":     err.Error(),
		"component": component,
	}

	if GetLogger().GetLevel() >= logrus.DebugLevel {
		fields["stack_trace"] = getStackTrace()
	}

	return GetLogger().WithFields(fields)
}

func getStackTrace() string {
	var stack []string
	for i := 2; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}
	return strings.Join(stack, "\n")
}

func Debug(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Fatal(msg)
}
