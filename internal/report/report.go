// Package report is the call boundary of the pipeline: it reads replay input,
// runs the aggregator and turns every recoverable error into the failure
// envelope.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/scharissis/coh3-replay-analyser/internal/aggregate"
	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/vault"
	"github.com/scharissis/coh3-replay-analyser/internal/vault/dump"
)

// Parser reads replay input through Decoder. The zero value decodes dumps.
type Parser struct {
	Decoder    vault.Decoder
	Aggregator aggregate.Aggregator
	Logger     *slog.Logger
}

// Parse reads the file at path with the build-only policy.
func Parse(ctx context.Context, path string) model.ReplayReport {
	return ParseWithFilter(ctx, path, filter.BuildOnly())
}

// ParseWithFilter reads the file at path with policy.
func ParseWithFilter(ctx context.Context, path string, policy filter.Policy) model.ReplayReport {
	report, _ := Parser{}.ParseFile(ctx, path, policy)
	return report
}

// ParseBytes decodes in-memory replay data with policy.
func ParseBytes(ctx context.Context, data []byte, policy filter.Policy) model.ReplayReport {
	report, _ := Parser{}.ParseBytes(ctx, data, policy)
	return report
}

// ParseFile returns the report for path. On failure the returned report is the
// failure envelope and err carries the kind.
func (p Parser) ParseFile(ctx context.Context, path string, policy filter.Policy) (model.ReplayReport, error) {
	if err := ValidatePath(path); err != nil {
		return p.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return p.fail(ioError(err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p.fail(ioError(err))
	}
	return p.ParseBytes(ctx, data, policy)
}

func (p Parser) ParseBytes(ctx context.Context, data []byte, policy filter.Policy) (model.ReplayReport, error) {
	if err := ctx.Err(); err != nil {
		return p.fail(decodeError(err))
	}
	started := time.Now()
	replay, err := p.decoder().Decode(data)
	if err != nil {
		return p.fail(decodeError(err))
	}
	if replay == nil {
		return p.fail(decodeError(vault.ErrDecode))
	}

	agg := p.Aggregator
	if agg.Logger == nil {
		agg.Logger = p.Logger
	}
	report := agg.Aggregate(replay, policy)
	if !report.Success {
		return report, &Error{Kind: ErrDecode, Message: *report.ErrorMessage}
	}
	p.logger().Debug("replay parsed",
		"players", len(report.Players),
		"duration_seconds", report.DurationSeconds,
		"elapsed", time.Since(started),
	)
	return report, nil
}

// ValidatePath rejects paths that cannot name a file.
func ValidatePath(path string) error {
	if path == "" {
		return inputError(MessageEmptyPath)
	}
	if !utf8.ValidString(path) {
		return inputError(MessageInvalidEncoding)
	}
	return nil
}

// Failure converts err into the failure envelope.
func Failure(err error) model.ReplayReport {
	return model.FailureReport(FailureMessage(err))
}

// Marshal encodes report. A failure here has no envelope to fall back to.
func Marshal(report model.ReplayReport) ([]byte, error) {
	b, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b, nil
}

func MarshalIndent(report model.ReplayReport) ([]byte, error) {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b, nil
}

func (p Parser) fail(err error) (model.ReplayReport, error) {
	p.logger().Warn("replay parse failed", "error", err)
	return Failure(err), err
}

func (p Parser) decoder() vault.Decoder {
	if p.Decoder == nil {
		return dump.Decoder{}
	}
	return p.Decoder
}

func (p Parser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
