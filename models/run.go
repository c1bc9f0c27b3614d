package models

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestRun is the operational record of one pipeline invocation.
type IngestRun struct {
	ID            int64
	StartDate     string
	EndDate       string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        RunStatus
	AuctionsFound int
	LotsFound     int
	Imported      int
	Skipped       int
	Discarded     int
	Message       string
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// Summary is the driver-level result returned to the caller of a run.
// Partial failure stays visible through the counts instead of aborting the
// batch.
type Summary struct {
	Status         string `json:"status"`
	TotalImported  int    `json:"total_imported"`
	TotalSkipped   int    `json:"total_skipped"`
	TotalLotsFound int    `json:"total_lots_found"`
	Message        string `json:"message"`
}
