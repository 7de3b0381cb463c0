package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/vertexntuples/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents     = 10000
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultSettle        = 2 * time.Minute
	defaultMissingPVRate = 0.02
	defaultDuplicateRate = 0.05
	defaultTestTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvents     = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed          = flag.Int64("seed", 0, "Generator seed, 0 derives one from the run id")
		missingPVRate = flag.Float64("missing-pv", defaultMissingPVRate, "Fraction of events without a primary vertex")
		duplicateRate = flag.Float64("duplicates", defaultDuplicateRate, "Fraction of events resubmitted to check dedupe")
		settle        = flag.Duration("settle", defaultSettle, "Maximum wait for the service to analyze every event")
		outputFile    = flag.String("output", "", "Output file for generated events")
		logFile       = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testevents.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		Workers:       *workers,
		Timeout:       *timeout,
		Seed:          *seed,
		MissingPVRate: *missingPVRate,
		DuplicateRate: *duplicateRate,
		Settle:        *settle,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := testevents.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already ran
	}
}
