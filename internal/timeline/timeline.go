// Package timeline flattens the filtered commands of a report into one
// chronological build-order view.
package timeline

import (
	"sort"

	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/tick"
)

// Palette assigns colors to players by position.
var Palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#95a5a6",
}

type Event struct {
	PlayerID     uint32                `json:"player_id"`
	PlayerName   string                `json:"player_name"`
	Faction      string                `json:"faction"`
	Timestamp    uint32                `json:"timestamp"`
	TimestampStr string                `json:"timestamp_str"`
	CommandType  model.CommandCategory `json:"command_type"`
	Description  string                `json:"description"`
	Color        string                `json:"color"`
}

type PlayerSummary struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	Faction  string `json:"faction"`
	Color    string `json:"color"`
	Commands int    `json:"commands"`
}

type Timeline struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	MapName  string          `json:"map_name,omitempty"`
	Duration string          `json:"duration,omitempty"`
	Players  []PlayerSummary `json:"players"`
	Events   []Event         `json:"timeline"`
}

// Build converts r. Events are ordered by timestamp; ties keep player order
// and then command order.
func Build(r model.ReplayReport) Timeline {
	if !r.Success {
		msg := "unknown error"
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		return Timeline{Error: msg, Players: []PlayerSummary{}, Events: []Event{}}
	}

	out := Timeline{
		Success:  true,
		MapName:  r.MapName,
		Duration: tick.FormatClock(r.DurationSeconds * 1000),
		Players:  make([]PlayerSummary, 0, len(r.Players)),
		Events:   []Event{},
	}
	for i, p := range r.Players {
		color := Palette[i%len(Palette)]
		faction := "Unknown"
		if p.Faction != nil {
			faction = *p.Faction
		}
		out.Players = append(out.Players, PlayerSummary{
			ID:       p.PlayerID,
			Name:     p.PlayerName,
			Faction:  faction,
			Color:    color,
			Commands: len(p.BuildCommands),
		})
		for _, cmd := range p.BuildCommands {
			out.Events = append(out.Events, Event{
				PlayerID:     p.PlayerID,
				PlayerName:   p.PlayerName,
				Faction:      faction,
				Timestamp:    cmd.Timestamp,
				TimestampStr: tick.FormatClock(cmd.Timestamp),
				CommandType:  cmd.CommandType,
				Description:  Describe(cmd),
				Color:        color,
			})
		}
	}
	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Timestamp < out.Events[j].Timestamp
	})
	return out
}

// Describe renders one command for display.
func Describe(cmd model.Command) string {
	switch cmd.CommandType {
	case model.CategoryBuildSquad:
		if cmd.UnitName != nil {
			return "Built: " + *cmd.UnitName
		}
		return "Built unit"
	case model.CategoryConstructEntity:
		if cmd.BuildingName != nil {
			return "Constructed: " + *cmd.BuildingName
		}
		return "Constructed building"
	case model.CategoryBuildGlobalUpgrade:
		if cmd.UnitName != nil {
			return "Researched: " + *cmd.UnitName
		}
		return "Researched upgrade"
	case model.CategorySelectBattlegroup:
		if cmd.UnitName != nil {
			return "Selected: " + *cmd.UnitName
		}
		return "Selected battlegroup"
	default:
		return model.Definition(cmd.CommandType).Description
	}
}
