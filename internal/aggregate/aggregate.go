// Package aggregate folds a decoded replay into a ReplayReport.
package aggregate

import (
	"log/slog"
	"sort"

	"github.com/scharissis/coh3-replay-analyser/internal/classify"
	"github.com/scharissis/coh3-replay-analyser/internal/extract"
	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/team"
	"github.com/scharissis/coh3-replay-analyser/internal/tick"
	"github.com/scharissis/coh3-replay-analyser/internal/vault"
)

// ReasonNoMetadata is the failure reason for a replay that cannot be read.
const ReasonNoMetadata = "replay metadata unavailable"

// playerMessageOffsetMs spreads untimed messages of different players apart in
// the global message list.
const playerMessageOffsetMs = 1000

// Stats summarizes one aggregation for observers.
type Stats struct {
	Players           int
	Commands          map[model.CommandCategory]int
	FilteredCommands  int
	Messages          int
	SyntheticCommands int
	SyntheticMessages int
}

// Observer receives the stats of every successful aggregation.
type Observer interface {
	ObserveAggregation(Stats)
}

type Aggregator struct {
	Logger   *slog.Logger
	Observer Observer
}

// Aggregate runs the default Aggregator.
func Aggregate(replay vault.Replay, policy filter.Policy) model.ReplayReport {
	return Aggregator{}.Aggregate(replay, policy)
}

// Aggregate builds the report for replay. A nil replay yields the failure
// envelope; anything else yields a complete success report.
func (a Aggregator) Aggregate(replay vault.Replay, policy filter.Policy) model.ReplayReport {
	if replay == nil {
		return model.FailureReport(ReasonNoMetadata)
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stats := Stats{Commands: map[model.CommandCategory]int{}}
	report := metadata(replay)

	players := replay.Players()
	report.Players = make([]model.Player, 0, len(players))
	teams := map[uint32][]model.PlayerInfo{}
	for idx, p := range players {
		if p == nil {
			continue
		}
		rec := buildPlayer(p, idx, policy, logger, &stats)
		report.Players = append(report.Players, rec)
		teams[rec.TeamID] = append(teams[rec.TeamID], rec.Info())
	}

	report.Teams = groupTeams(teams)
	report.Messages = globalMessages(players, &stats)
	report.WinningTeam = nil

	stats.Players = len(report.Players)
	stats.Messages = len(report.Messages)
	if a.Observer != nil {
		a.Observer.ObserveAggregation(stats)
	}
	return report
}

func metadata(replay vault.Replay) model.ReplayReport {
	m := replay.Map()
	mapFilename := m.Filename
	if m.LocalizedNameID != "" {
		mapFilename = "id_" + m.LocalizedNameID
	}
	ticks := replay.Length()
	version := replay.Version()

	report := model.ReplayReport{
		Success:         true,
		MapName:         m.Filename,
		MapFilename:     mapFilename,
		DurationSeconds: tick.ToSeconds(ticks),
		DurationTicks:   ticks,
		GameVersion:     &version,
		Timestamp:       nonEmpty(replay.Timestamp()),
		GameType:        nonEmpty(replay.GameType()),
	}
	if id, ok := replay.MatchHistoryID(); ok {
		report.MatchHistoryID = &id
	}
	return report
}

func buildPlayer(p vault.Player, idx int, policy filter.Policy, logger *slog.Logger, stats *Stats) model.Player {
	rec := model.Player{
		PlayerID:   uint32(idx),
		PlayerName: p.Name(),
		TeamID:     team.Resolve(p.Team(), idx),
		Faction:    nonEmpty(p.Faction()),
		IsHuman:    p.Human(),
	}
	if id, ok := p.SteamID(); ok {
		rec.SteamID = &id
	}
	if id, ok := p.ProfileID(); ok {
		rec.ProfileID = &id
	}

	records := p.Commands()
	rec.Commands = Commands(records)
	for _, cmd := range rec.Commands {
		stats.Commands[cmd.CommandType]++
	}
	for i, r := range records {
		if r == nil {
			continue
		}
		if text := r.Describe(); !hasTick(text) {
			stats.SyntheticCommands++
			logger.Debug("command without tick",
				"player_id", idx,
				"sequence", i,
				"record_player", r.PlayerIndex(),
				"iteration", r.Iteration(),
				"category", classify.Command(text),
			)
		}
	}
	rec.BuildCommands = filter.Apply(rec.Commands, policy)
	stats.FilteredCommands += len(rec.BuildCommands)
	rec.ChatMessages = PlayerMessages(p.Messages(), uint32(idx))
	return rec
}

// Commands classifies every record. A record without a tick is stamped with
// its sequence index times one tick.
func Commands(records []vault.Record) []model.Command {
	out := make([]model.Command, 0, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		text := r.Describe()
		ts, ok := extract.Timestamp(text)
		if !ok {
			ts = tick.ToMillis(uint32(i))
		}
		cmd := model.Command{
			Timestamp:   ts,
			CommandType: classify.Command(text),
			Details:     text,
		}
		if id, ok := extract.PBGID(text); ok {
			cmd.PBGID = &id
		}
		if index, ok := extract.Index(text); ok {
			cmd.Index = &index
		}
		out = append(out, cmd)
	}
	return out
}

// PlayerMessages converts one player's chat records. Untimed messages are
// stamped with their sequence index times one tick.
func PlayerMessages(records []vault.Record, playerID uint32) []model.GameMessage {
	out := make([]model.GameMessage, 0, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		text := r.Describe()
		ts, ok := extract.Timestamp(text)
		if !ok {
			ts = tick.ToMillis(uint32(i))
		}
		out = append(out, chat(ts, playerID, text))
	}
	return out
}

// globalMessages merges every player's chat in encounter order and sorts it
// stably by timestamp. Untimed messages get an extra per-player offset.
func globalMessages(players []vault.Player, stats *Stats) []model.GameMessage {
	out := []model.GameMessage{}
	for pIdx, p := range players {
		if p == nil {
			continue
		}
		for mIdx, r := range p.Messages() {
			if r == nil {
				continue
			}
			text := r.Describe()
			ts, ok := extract.Timestamp(text)
			if !ok {
				ts = tick.ToMillis(uint32(mIdx)) + uint32(pIdx)*playerMessageOffsetMs
				stats.SyntheticMessages++
			}
			out = append(out, chat(ts, uint32(pIdx), text))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

func groupTeams(teams map[uint32][]model.PlayerInfo) []model.Team {
	ids := make([]uint32, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Team{TeamID: id, Players: teams[id]})
	}
	return out
}

func chat(ts, playerID uint32, text string) model.GameMessage {
	return model.GameMessage{
		Timestamp:   ts,
		PlayerID:    &playerID,
		Content:     extract.Content(text),
		MessageType: model.MessageTypeChat,
	}
}

func hasTick(text string) bool {
	_, ok := extract.Tick(text)
	return ok
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
