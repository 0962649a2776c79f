package logging

import (
	"io"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// L is the process-wide logger. Packages log through it with key/value pairs.
var L = New(os.Stderr, "info", false)

// New builds a logger writing to w. JSON output is used in deployments where
// logs are shipped rather than read on a terminal.
func New(w io.Writer, level string, json bool) *clog.Logger {
	logger := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "internconnect",
	})
	if json {
		logger.SetFormatter(clog.JSONFormatter)
	}
	logger.SetLevel(parseLevel(level))
	return logger
}

// Setup replaces L according to configuration.
func Setup(level string) {
	json := strings.EqualFold(os.Getenv("LOG_FORMAT"), "json")
	L = New(os.Stderr, level, json)
}

func parseLevel(level string) clog.Level {
	parsed, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return clog.InfoLevel
	}
	return parsed
}
