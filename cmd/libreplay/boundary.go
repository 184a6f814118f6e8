package main

import (
	"context"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/logging"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/report"
)

// The host process owns stderr; the library stays silent.
var logger = logging.Discard()

// parse returns the JSON report for path. A nil path stands for a NULL
// pointer. The result is nil only when the report cannot be encoded.
func parse(path *string, policy filter.Policy) []byte {
	var rep model.ReplayReport
	if path == nil {
		rep = model.FailureReport(report.MessageNullPath)
	} else {
		rep, _ = report.Parser{Logger: logger}.ParseFile(context.Background(), *path, policy)
	}
	b, err := report.Marshal(rep)
	if err != nil {
		return nil
	}
	return b
}
