package testevents

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/vertexntuples/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file)), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test events tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Vertex Ntuples Event Test Tool
==============================

Generates synthetic decay-chain events, posts them to a running service
concurrently and checks the accumulated vertex and jet counts against the
values the generator built into each event.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -events int
        Number of events to generate and submit (default 10000)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Generator seed, 0 derives one from the run id (default 0)
  -missing-pv float
        Fraction of events without a primary vertex (default 0.02)
  -duplicates float
        Fraction of events resubmitted to check dedupe (default 0.05)
  -settle duration
        Maximum wait for the service to analyze every event (default 2m)
  -output string
        Output file for generated events (not written when empty)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-events/main.go

  # Reproducible run against another port
  go run cmd/test-events/main.go -events 50000 -seed 42 -url http://localhost:8080

  # Keep the generated events
  go run cmd/test-events/main.go -events 1000 -output events.json
`)
}
