package api

import "time"

// StepRecord is an append-only history entry for one executed step.
// It is intentionally small and stable.
type StepRecord struct {
	RunnerID string
	Seq      int64
	At       time.Time

	UseCase string
	Flow    string
	Step    string
	Actor   string

	// MessageType is empty for autonomous steps.
	MessageType string
	Message     any

	// Err holds the reaction's error text, if it failed.
	Err string
}
