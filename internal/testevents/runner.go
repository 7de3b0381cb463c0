package testevents

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete event test.
func Run(ctx context.Context, config *Config) error {
	runID := uuid.New()
	stats := &Stats{
		RunID:     runID.String(),
		StartTime: time.Now(),
	}
	if config.Settle <= 0 {
		config.Settle = defaultSettle
	}

	logger.Get().Info(ctx, "starting event test",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("missingPVRate", config.MissingPVRate),
		logger.Float64("duplicateRate", config.DuplicateRate),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	before, err := takeSnapshot(ctx, client)
	if err != nil {
		return fmt.Errorf("baseline snapshot: %w", err)
	}

	// Step 2: Generate events. The run number comes from the run id so
	// repeated runs against one service never collide in its deduper.
	run := uint64(binary.BigEndian.Uint32(runID[:4]))
	seed := config.Seed
	if seed == 0 {
		seed = int64(binary.BigEndian.Uint64(runID[8:])) //nolint:gosec // any bit pattern is a valid seed
	}
	gen := NewGenerator(seed, run, WithMissingPrimaryRate(config.MissingPVRate))
	events, expectations := gen.Events(ctx, config.NumEvents)
	stats.EventsGenerated = len(events)

	// Step 3: Submit events concurrently
	accepted, err := submitEvents(ctx, config, events, stats)
	if err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}
	for i, ok := range accepted {
		if ok {
			stats.Expected.Add(expectations[i])
		}
	}

	// Step 4: Wait for processing
	logger.Get().Info(ctx, "waiting for events to be processed")
	if err := waitForDrain(ctx, client, before.Stats, stats.Expected.Events, config.Settle); err != nil {
		return err
	}
	after, err := takeSnapshot(ctx, client)
	if err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}

	// Step 5: Verify results
	problems := verifyResults(ctx, before, after, stats.Expected)

	// Step 6: Save events to file
	if config.OutputFile != "" {
		if err := saveEventsToFile(ctx, config.OutputFile, events); err != nil {
			logger.Get().Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(problems) > 0 {
		return fmt.Errorf("result verification failed: %w", errors.Join(problems...))
	}
	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveEventsToFile saves the generated events to a JSON file.
func saveEventsToFile(ctx context.Context, filename string, events []model.Event) error {
	if len(events) == 0 {
		return errors.New("no events to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", " ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}

	logger.Get().Info(ctx, "events saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int64("eventsSubmitted", stats.EventsSubmitted),
		logger.Int64("eventsAccepted", stats.EventsAccepted),
		logger.Int64("eventsDuplicate", stats.EventsDuplicate),
		logger.Int64("eventsRetried", stats.EventsRetried),
		logger.Int64("eventsFailed", stats.EventsFailed),
		logger.Int64("expectedGenVertices", stats.Expected.GenVertices[0]),
		logger.Int64("expectedGoodJets", stats.Expected.GoodJets),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
