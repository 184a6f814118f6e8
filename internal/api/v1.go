// Package api holds the JSON envelopes of the HTTP API.
package api

import (
	"time"

	"github.com/scharissis/coh3-replay-analyser/internal/archive"
)

const SchemaVersion = "v1"

type HealthResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Status        string    `json:"status"`
	Archive       string    `json:"archive"`
	LookupSource  string    `json:"lookup_source"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Error         APIError  `json:"error"`
}

type ListSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type ListEnvelope[T any] struct {
	SchemaVersion string         `json:"schema_version"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Filters       map[string]any `json:"filters"`
	Summary       ListSummary    `json:"summary"`
	Items         []T            `json:"items"`
}

type CommandCountsEnvelope struct {
	SchemaVersion string                 `json:"schema_version"`
	GeneratedAt   time.Time              `json:"generated_at"`
	ReportID      string                 `json:"report_id"`
	Items         []archive.CommandCount `json:"items"`
}

// Summarize counts successes and failures among entries.
func Summarize(entries []archive.Entry) ListSummary {
	var s ListSummary
	for _, e := range entries {
		if e.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Error:         APIError{Code: code, Message: message},
	}
}
