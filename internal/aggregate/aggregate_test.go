package aggregate

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/logging"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
	"github.com/scharissis/coh3-replay-analyser/internal/testutil"
	"github.com/scharissis/coh3-replay-analyser/internal/vault"
	"github.com/scharissis/coh3-replay-analyser/internal/vault/dump"
)

type fakeRecord string

func (r fakeRecord) Describe() string { return string(r) }
func (r fakeRecord) PlayerIndex() int { return 0 }
func (r fakeRecord) Iteration() uint32 { return 0 }

type fakePlayer struct {
	name     string
	team     string
	faction  string
	commands []string
	messages []string
}

func (p fakePlayer) Name() string { return p.name }
func (p fakePlayer) Human() bool { return true }
func (p fakePlayer) Faction() string { return p.faction }
func (p fakePlayer) Team() string { return p.team }
func (p fakePlayer) SteamID() (string, bool) { return "", false }
func (p fakePlayer) ProfileID() (string, bool) { return "", false }
func (p fakePlayer) Commands() []vault.Record { return records(p.commands) }
func (p fakePlayer) Messages() []vault.Record { return records(p.messages) }

func records(texts []string) []vault.Record {
	out := make([]vault.Record, 0, len(texts))
	for _, t := range texts {
		out = append(out, fakeRecord(t))
	}
	return out
}

type fakeReplay struct {
	players []vault.Player
	mapInfo vault.Map
	length  uint32
}

func (r fakeReplay) Map() vault.Map { return r.mapInfo }
func (r fakeReplay) Version() uint16 { return 1 }
func (r fakeReplay) Timestamp() string { return "" }
func (r fakeReplay) GameType() string { return "" }
func (r fakeReplay) MatchHistoryID() (string, bool) { return "", false }
func (r fakeReplay) Length() uint32 { return r.length }
func (r fakeReplay) Players() []vault.Player { return r.players }

type recordingObserver struct {
	stats []Stats
}

func (o *recordingObserver) ObserveAggregation(s Stats) { o.stats = append(o.stats, s) }

func TestAggregateScenarioTickAndFallback(t *testing.T) {
	replay := fakeReplay{players: []vault.Player{
		fakePlayer{name: "p0", team: "First", commands: []string{
			"BuildSquad { pbgid: 198355, tick: 40, BuildSquad }",
			"UseAbility { pbgid: 5 }",
		}},
		fakePlayer{name: "p1", team: "Second"},
	}}

	report := Aggregate(replay, filter.BuildOnly())
	if !report.Success || report.ErrorMessage != nil {
		t.Fatalf("expected success report, got %+v", report)
	}
	cmds := report.Players[0].Commands
	if len(cmds) != 2 {
		t.Fatalf("commands=%d want=2", len(cmds))
	}
	first := cmds[0]
	if first.Timestamp != 5000 || first.CommandType != model.CategoryBuildSquad || first.PBGID == nil || *first.PBGID != "198355" {
		t.Fatalf("unexpected first command: %+v", first)
	}
	if cmds[1].Timestamp != 125 {
		t.Fatalf("fallback timestamp=%d want=125", cmds[1].Timestamp)
	}
	if first.UnitName != nil || first.BuildingName != nil {
		t.Fatalf("core must not resolve names")
	}
}

func TestAggregateCombatOnlyKeepsFullList(t *testing.T) {
	replay := fakeReplay{players: []vault.Player{
		fakePlayer{name: "p0", commands: []string{
			"BuildSquad { pbgid: 1, tick: 8 }",
			"UseAbility { pbgid: 2, tick: 16 }",
		}},
	}}

	report := Aggregate(replay, filter.CombatOnly())
	p := report.Players[0]
	if len(p.Commands) != 2 {
		t.Fatalf("full list=%d want=2", len(p.Commands))
	}
	if len(p.BuildCommands) != 1 || p.BuildCommands[0].CommandType != model.CategoryUseAbility {
		t.Fatalf("filtered=%+v", p.BuildCommands)
	}
}

func TestAggregateTeamFallback(t *testing.T) {
	replay := fakeReplay{players: []vault.Player{
		fakePlayer{name: "a", team: "First"},
		fakePlayer{name: "b", team: "First"},
		fakePlayer{name: "c", team: "Second"},
	}}
	report := Aggregate(replay, filter.BuildOnly())
	if got := report.Players[2].TeamID; got != 2 {
		t.Fatalf("team for index 2=%d want=2", got)
	}
	if got := report.Players[1].TeamID; got != 1 {
		t.Fatalf("team for index 1=%d want=1", got)
	}
}

func TestAggregateTeamGrouping(t *testing.T) {
	replay := fakeReplay{players: []vault.Player{
		fakePlayer{name: "a", team: "Team(3)"},
		fakePlayer{name: "b", team: "Team(1)"},
		fakePlayer{name: "c", team: "Team(3)"},
		fakePlayer{name: "d", team: "none"},
	}}
	report := Aggregate(replay, filter.BuildOnly())

	var ids []uint32
	seen := map[uint32]int{}
	for _, tm := range report.Teams {
		ids = append(ids, tm.TeamID)
		for _, p := range tm.Players {
			seen[p.PlayerID]++
			if p.TeamID != tm.TeamID {
				t.Fatalf("player %d listed under team %d but has team %d", p.PlayerID, tm.TeamID, p.TeamID)
			}
		}
	}
	if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
		t.Fatalf("teams not sorted: %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate team id %d", ids[i])
		}
	}
	for _, p := range report.Players {
		if seen[p.PlayerID] != 1 {
			t.Fatalf("player %d appears %d times in teams", p.PlayerID, seen[p.PlayerID])
		}
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("team ids=%v want=[1 2 3]", ids)
	}
}

func TestAggregateGlobalMessageOrdering(t *testing.T) {
	replay := fakeReplay{players: []vault.Player{
		fakePlayer{name: "a", messages: []string{
			`Message { tick: 80, content: "first" }`,
			`Message { tick: 8, content: "early" }`,
		}},
		fakePlayer{name: "b", messages: []string{
			`Message { tick: 80, content: "second" }`,
			"untimed",
		}},
	}}
	report := Aggregate(replay, filter.BuildOnly())

	msgs := report.Messages
	if len(msgs) != 4 {
		t.Fatalf("messages=%d want=4", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Fatalf("messages not sorted at %d: %+v", i, msgs)
		}
	}
	if msgs[0].Content != "early" {
		t.Fatalf("first message=%q want=early", msgs[0].Content)
	}
	// untimed: 1*125 + 1*1000
	if msgs[1].Content != "Message: untimed" || msgs[1].Timestamp != 1125 {
		t.Fatalf("untimed message=%+v", msgs[1])
	}
	if msgs[2].Content != "first" || msgs[3].Content != "second" {
		t.Fatalf("ties must keep encounter order: %q then %q", msgs[2].Content, msgs[3].Content)
	}
	for _, m := range msgs {
		if m.MessageType != model.MessageTypeChat || m.PlayerID == nil {
			t.Fatalf("unexpected message shape: %+v", m)
		}
	}

	// Per-player view uses the plain sequence fallback.
	perPlayer := report.Players[1].ChatMessages
	if perPlayer[1].Timestamp != 125 {
		t.Fatalf("per-player fallback=%d want=125", perPlayer[1].Timestamp)
	}
}

func TestAggregateMetadata(t *testing.T) {
	replay := fakeReplay{
		mapInfo: vault.Map{Filename: "twin_beach", LocalizedNameID: "11240"},
		length:  9601,
	}
	report := Aggregate(replay, filter.BuildOnly())
	if report.MapName != "twin_beach" || report.MapFilename != "id_11240" {
		t.Fatalf("map=(%q,%q)", report.MapName, report.MapFilename)
	}
	if report.DurationTicks != 9601 || report.DurationSeconds != 1200 {
		t.Fatalf("duration=(%d ticks,%d s)", report.DurationTicks, report.DurationSeconds)
	}
	if report.Timestamp != nil || report.GameType != nil || report.MatchHistoryID != nil {
		t.Fatalf("absent optionals must stay nil: %+v", report)
	}
	if report.WinningTeam != nil {
		t.Fatalf("winning team must be unset")
	}
	if report.Players == nil || report.Teams == nil || report.Messages == nil {
		t.Fatalf("collections must be non-nil")
	}

	replay.mapInfo.LocalizedNameID = ""
	if got := Aggregate(replay, filter.BuildOnly()).MapFilename; got != "twin_beach" {
		t.Fatalf("map filename fallback=%q", got)
	}
}

func TestAggregateNilReplay(t *testing.T) {
	report := Aggregate(nil, filter.BuildOnly())
	if report.Success || report.ErrorMessage == nil || *report.ErrorMessage != ReasonNoMetadata {
		t.Fatalf("expected failure envelope, got %+v", report)
	}
}

func TestAggregateObserverAndSample(t *testing.T) {
	replay, err := dump.Decode([]byte(testutil.SampleDump))
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	obs := &recordingObserver{}
	report := Aggregator{Observer: obs}.Aggregate(replay, filter.BuildOnly())

	if len(obs.stats) != 1 {
		t.Fatalf("observer calls=%d want=1", len(obs.stats))
	}
	s := obs.stats[0]
	if s.Players != 2 || s.Messages != 3 {
		t.Fatalf("stats=%+v", s)
	}
	if s.Commands[model.CategoryBuildSquad] != 1 || s.Commands[model.CategoryConstructEntity] != 2 || s.Commands[model.CategoryUseAbility] != 1 {
		t.Fatalf("category counts=%v", s.Commands)
	}
	if s.SyntheticCommands != 1 || s.SyntheticMessages != 1 {
		t.Fatalf("synthetic=(%d,%d) want=(1,1)", s.SyntheticCommands, s.SyntheticMessages)
	}
	// build_squad, construct_entity, select_battlegroup, construct_entity
	if s.FilteredCommands != 4 {
		t.Fatalf("filtered=%d want=4", s.FilteredCommands)
	}

	alice := report.Players[0]
	if alice.Commands[2].Index == nil || *alice.Commands[2].Index != "3" {
		t.Fatalf("structure index not extracted: %+v", alice.Commands[2])
	}
	if alice.SteamID == nil || *alice.SteamID != "76561198000000001" {
		t.Fatalf("steam id=%v", alice.SteamID)
	}
	if report.MatchHistoryID == nil || *report.MatchHistoryID != "987654" {
		t.Fatalf("match history id=%v", report.MatchHistoryID)
	}
	if report.Players[1].TeamID != 2 || alice.TeamID != 1 {
		t.Fatalf("teams=(%d,%d)", alice.TeamID, report.Players[1].TeamID)
	}
}

func TestAggregateLogsUntimedCommandRecord(t *testing.T) {
	replay, err := dump.Decode([]byte(testutil.SampleDump))
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	Aggregator{Logger: logger}.Aggregate(replay, filter.BuildOnly())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("debug lines=%d want=1: %s", len(lines), buf.String())
	}
	for _, want := range []string{
		`"msg":"command without tick"`,
		`"sequence":1`,
		`"record_player":0`,
		`"iteration":1`,
		`"category":"use_ability"`,
	} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("log line %s missing %s", lines[0], want)
		}
	}
}
