package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/tick"
	"github.com/scharissis/coh3-replay-analyser/internal/timeline"
)

func (r *Runner) printSummary(rep model.ReplayReport) {
	if !rep.Success {
		_, _ = fmt.Fprintf(r.out, "parse failed: %s\n", deref(rep.ErrorMessage, "unknown error"))
		return
	}
	_, _ = fmt.Fprintf(r.out, "map: %s (%s)\n", rep.MapName, rep.MapFilename)
	_, _ = fmt.Fprintf(r.out, "duration: %s (%d ticks)\n", tick.FormatClock(rep.DurationSeconds*1000), rep.DurationTicks)
	if rep.GameVersion != nil {
		_, _ = fmt.Fprintf(r.out, "version: %d\n", *rep.GameVersion)
	}
	if rep.GameType != nil {
		_, _ = fmt.Fprintf(r.out, "type: %s\n", *rep.GameType)
	}
	_, _ = fmt.Fprintf(r.out, "teams: %d  messages: %d\n", len(rep.Teams), len(rep.Messages))

	for _, p := range rep.Players {
		_, _ = fmt.Fprintf(r.out, "\nplayer %d: %s [%s] team %d human=%t\n",
			p.PlayerID, p.PlayerName, deref(p.Faction, "Unknown"), p.TeamID, p.IsHuman)
		_, _ = fmt.Fprintf(r.out, "  commands: %d total, %d filtered, %d chat\n",
			len(p.Commands), len(p.BuildCommands), len(p.ChatMessages))

		counts := map[model.CommandCategory]int{}
		for _, c := range p.Commands {
			counts[c.CommandType]++
		}
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		for _, cat := range model.AllCategories() {
			if counts[cat] > 0 {
				_, _ = fmt.Fprintf(tw, "    %s\t%d\n", cat, counts[cat])
			}
		}
		_ = tw.Flush()

		n := min(len(p.BuildCommands), summaryFirstCommands)
		if n > 0 {
			_, _ = fmt.Fprintln(r.out, "  first commands:")
		}
		for _, c := range p.BuildCommands[:n] {
			_, _ = fmt.Fprintf(r.out, "    %s  %s\n", tick.FormatClock(c.Timestamp), timeline.Describe(c))
		}
	}
}

func (r *Runner) printTimeline(tl timeline.Timeline) {
	if !tl.Success {
		_, _ = fmt.Fprintf(r.out, "parse failed: %s\n", tl.Error)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s  %s\n", tl.MapName, tl.Duration)
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for _, e := range tl.Events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.TimestampStr, e.PlayerName, e.Description)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(r.out, strings.Repeat("-", 20))
	_, _ = fmt.Fprintf(r.out, "%d events\n", len(tl.Events))
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
