package testevents

import "time"

// Config holds configuration for the event test
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEvents     int           // Number of events to generate
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	Seed          int64         // Generator seed; 0 picks one from the run id
	MissingPVRate float64       // Fraction of events without a primary vertex
	DuplicateRate float64       // Fraction of events resubmitted to exercise dedupe
	Settle        time.Duration // Upper bound on waiting for the service to drain
	OutputFile    string        // Output file for events
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Retry and polling constants.
const (
	maxSubmitAttempts = 5
	backoffBase       = 50 * time.Millisecond
	pollInterval      = 200 * time.Millisecond
	defaultSettle     = 2 * time.Minute
)

// AckResponse represents the response from event submission
type AckResponse struct {
	Status string `json:"status"`
}

// Stats holds test statistics
type Stats struct {
	RunID           string
	EventsGenerated int
	EventsSubmitted int64
	EventsAccepted  int64
	EventsDuplicate int64
	EventsRetried   int64
	EventsFailed    int64
	Expected        Tally
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
