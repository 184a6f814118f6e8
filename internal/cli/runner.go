// Package cli implements replayctl: parse one replay dump and print its report.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/scharissis/coh3-replay-analyser/internal/archive"
	"github.com/scharissis/coh3-replay-analyser/internal/config"
	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/logging"
	"github.com/scharissis/coh3-replay-analyser/internal/lookup"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/report"
	"github.com/scharissis/coh3-replay-analyser/internal/timeline"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const summaryFirstCommands = 5

type Runner struct {
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func NewRunner(out, errOut io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Runner{out: out, errOut: errOut}
}

type options struct {
	filter     string
	dataDir    string
	configPath string
	archive    string
	pretty     bool
	summary    bool
	timeline   bool
	verbose    bool
}

func (r *Runner) Run(ctx context.Context, args []string) int {
	var opts options
	fs := flag.NewFlagSet("replayctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.filter, "filter", "", "filter preset: "+strings.Join(filter.PresetNames(), ", "))
	fs.StringVar(&opts.dataDir, "data-dir", "", "directory holding units.json, buildings.json, abilities.json")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.archive, "archive", "", "SQLite path to archive the report in")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	fs.BoolVar(&opts.summary, "summary", false, "print a per-player summary instead of JSON")
	fs.BoolVar(&opts.timeline, "timeline", false, "print the build-order timeline instead of JSON")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging on stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			r.printUsage(fs)
			return ExitOK
		}
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		r.printUsage(fs)
		return ExitUsage
	}
	if fs.NArg() != 1 {
		r.printUsage(fs)
		return ExitUsage
	}
	if opts.summary && opts.timeline {
		_, _ = fmt.Fprintln(r.errOut, "error: -summary and -timeline are mutually exclusive")
		return ExitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return ExitUsage
	}
	if opts.filter != "" {
		cfg.Filter = opts.filter
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	r.logger, err = logging.New(r.errOut, level, cfg.Log.Format)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return ExitUsage
	}
	policy, err := filter.Named(cfg.Filter)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return ExitUsage
	}

	path := fs.Arg(0)
	parser := report.Parser{Logger: r.logger}
	rep, parseErr := parser.ParseFile(ctx, path, policy)
	if parseErr == nil {
		lookup.Annotate(&rep, r.lookupTable(cfg.DataDir))
	}
	if opts.archive != "" {
		if err := r.archive(ctx, opts.archive, path, policy, rep); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
			return ExitFailure
		}
	}

	switch {
	case opts.summary:
		r.printSummary(rep)
	case opts.timeline:
		r.printTimeline(timeline.Build(rep))
	default:
		if err := r.printJSON(rep, opts.pretty); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
			return ExitFailure
		}
	}
	if parseErr != nil {
		return ExitFailure
	}
	return ExitOK
}

func (r *Runner) lookupTable(dir string) *lookup.Table {
	if dir == "" {
		return lookup.Builtin()
	}
	table, err := lookup.Load(dir)
	if err != nil {
		r.logger.Warn("lookup data unavailable, using built-in names", "dir", dir, "error", err)
	}
	return table
}

func (r *Runner) archive(ctx context.Context, dbPath, path string, policy filter.Policy, rep model.ReplayReport) error {
	content, err := os.ReadFile(path)
	if err != nil {
		// unreadable input is keyed by its path
		content = []byte("unreadable:" + path)
	}
	store, err := archive.OpenAndMigrate(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	entry, err := store.Save(ctx, archive.SaveInput{
		SourceName: path,
		Content:    content,
		Policy:     policy,
		Report:     rep,
	})
	switch {
	case errors.Is(err, archive.ErrDuplicate):
		r.logger.Info("report already archived", "report_id", entry.ReportID)
	case err != nil:
		return fmt.Errorf("archive report: %w", err)
	default:
		r.logger.Info("report archived", "report_id", entry.ReportID)
	}
	return nil
}

func (r *Runner) printJSON(rep model.ReplayReport, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = report.MarshalIndent(rep)
	} else {
		b, err = report.Marshal(rep)
	}
	if err != nil {
		return err
	}
	_, _ = r.out.Write(b)
	_, _ = fmt.Fprintln(r.out)
	return nil
}

func (r *Runner) printUsage(fs *flag.FlagSet) {
	_, _ = fmt.Fprintln(r.errOut, "Usage: replayctl [flags] <replay-dump>")
	fs.SetOutput(r.errOut)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}
