package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scharissis/coh3-replay-analyser/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuiltin(t *testing.T) {
	table := Builtin()
	tests := []struct {
		id   uint32
		want string
	}{
		{198355, "Grenadier Squad"},
		{198340, "Pioneer Squad"},
		{203604, "Section"},
		{168613, "Rifleman Squad"},
		{2033664, "Panzergrenadier Squad"},
	}
	for _, tc := range tests {
		got, ok := table.FriendlyName(tc.id)
		if !ok || got != tc.want {
			t.Fatalf("FriendlyName(%d)=(%q,%v) want=%q", tc.id, got, ok, tc.want)
		}
	}
	if _, ok := table.FriendlyName(1); ok {
		t.Fatalf("unexpected name for unknown id")
	}
	if name, ok := table.Battlegroup(196934); !ok || name != "Armored (US)" {
		t.Fatalf("battlegroup=(%q,%v)", name, ok)
	}
	if name, ok := table.Upgrade(2072101); !ok || name != "T1 Unit Unlock (Afrika Korps)" {
		t.Fatalf("upgrade=(%q,%v)", name, ok)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, UnitsFile, `{"198355": {"name": "Grenadiers", "faction": "Wehrmacht"}, "bogus": {"name": "x"}}`)
	writeFile(t, dir, BuildingsFile, `{"198236": {"name": "Light Support Kompanie"}}`)
	writeFile(t, dir, AbilitiesFile, `{"198355": {"name": "shadowed"}, "5000": {"name": "Smoke Barrage"}}`)

	table, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Source() != dir || table.Len() != 4 {
		t.Fatalf("source=%q len=%d", table.Source(), table.Len())
	}
	if name, _ := table.FriendlyName(198355); name != "Grenadiers" {
		t.Fatalf("units must win over abilities, got %q", name)
	}
	if name, _ := table.FriendlyName(198236); name != "Light Support Kompanie" {
		t.Fatalf("building name=%q", name)
	}
	if name, _ := table.FriendlyName(5000); name != "Smoke Barrage" {
		t.Fatalf("ability name=%q", name)
	}
	if _, ok := table.FriendlyName(203604); ok {
		t.Fatalf("loaded table must not mix in builtin units")
	}
}

func TestLoadFallsBackToBuiltin(t *testing.T) {
	empty := t.TempDir()
	table, err := Load(empty)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if table.Source() != "builtin" {
		t.Fatalf("source=%q want builtin", table.Source())
	}

	broken := t.TempDir()
	writeFile(t, broken, UnitsFile, `{not json`)
	table, err = Load(broken)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if name, ok := table.FriendlyName(198355); !ok || name != "Grenadier Squad" {
		t.Fatalf("fallback table missing builtin unit: (%q,%v)", name, ok)
	}

	if _, err := Load(""); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty dir, got %v", err)
	}
}

func TestFactionDisplayName(t *testing.T) {
	tests := map[string]string{
		"afrika_korps":   "Afrika Korps",
		"AfrikaKorps":    "Afrika Korps",
		"Americans":      "US Forces",
		"british_africa": "British",
		"german":         "Wehrmacht",
		"soviet_union":   "Soviet Union",
		"":               "Unknown",
	}
	for in, want := range tests {
		if got := FactionDisplayName(in); got != want {
			t.Fatalf("FactionDisplayName(%q)=%q want=%q", in, got, want)
		}
	}
}

func str(s string) *string { return &s }

func TestAnnotateCommands(t *testing.T) {
	commands := []model.Command{
		{CommandType: model.CategoryBuildSquad, PBGID: str("198355")},
		{CommandType: model.CategoryUseAbility, PBGID: str("999")},
		{CommandType: model.CategorySelectBattlegroup, PBGID: str("196934")},
		{CommandType: model.CategoryBuildGlobalUpgrade, PBGID: str("2072101")},
		{CommandType: model.CategoryConstructEntity, PBGID: str("198340")},
		{CommandType: model.CategoryUnknown, PBGID: str("168613"), Index: str("7")},
		{CommandType: model.CategoryConstructEntity, Index: str("7")},
		{CommandType: model.CategoryConstructEntity, Index: str("3")},
		{CommandType: model.CategoryConstructEntity},
		{CommandType: model.CategoryUnknown, PBGID: str("198355")},
	}
	AnnotateCommands(commands, "US Forces", Builtin())

	check := func(i int, field *string, want string) {
		t.Helper()
		if want == "" {
			if field != nil {
				t.Fatalf("command %d: expected no name, got %q", i, *field)
			}
			return
		}
		if field == nil || *field != want {
			t.Fatalf("command %d: name=%v want=%q", i, field, want)
		}
	}
	check(0, commands[0].UnitName, "Grenadier Squad")
	check(1, commands[1].UnitName, "")
	check(2, commands[2].UnitName, "Armored (US)")
	check(3, commands[3].UnitName, "T1 Unit Unlock (Afrika Korps)")
	check(4, commands[4].BuildingName, "Pioneer Squad")
	check(6, commands[6].BuildingName, "Rifleman Squad")
	check(7, commands[7].BuildingName, "US Forces Building (Structure #3)")
	check(8, commands[8].BuildingName, "US Forces Building")
	check(9, commands[9].UnitName, "")
}

func TestAnnotateReport(t *testing.T) {
	report := model.ReplayReport{
		Success: true,
		Players: []model.Player{{
			Faction: str("afrika_korps"),
			Commands: []model.Command{
				{CommandType: model.CategoryConstructEntity, Index: str("2")},
			},
			BuildCommands: []model.Command{
				{CommandType: model.CategoryBuildSquad, PBGID: str("2075940")},
			},
		}, {
			Commands: []model.Command{{CommandType: model.CategoryConstructEntity}},
		}},
	}
	Annotate(&report, Builtin())

	if got := report.Players[0].Commands[0].BuildingName; got == nil || *got != "Afrika Korps Building (Structure #2)" {
		t.Fatalf("building name=%v", got)
	}
	if got := report.Players[0].BuildCommands[0].UnitName; got == nil || *got != "8 Rad Armored Car" {
		t.Fatalf("unit name=%v", got)
	}
	if got := report.Players[1].Commands[0].BuildingName; got == nil || *got != "Unknown Building" {
		t.Fatalf("factionless building name=%v", got)
	}

	Annotate(nil, Builtin())
	Annotate(&report, nil)
}

func TestAnnotatedLeavesOriginal(t *testing.T) {
	report := model.ReplayReport{
		Success: true,
		Players: []model.Player{{
			Commands:      []model.Command{{CommandType: model.CategoryBuildSquad, PBGID: str("2075940")}},
			BuildCommands: []model.Command{{CommandType: model.CategoryBuildSquad, PBGID: str("2075940")}},
		}},
	}
	out := Annotated(report, Builtin())

	if got := out.Players[0].Commands[0].UnitName; got == nil || *got != "8 Rad Armored Car" {
		t.Fatalf("annotated unit name=%v", got)
	}
	if out.Players[0].BuildCommands[0].UnitName == nil {
		t.Fatal("annotated build command has no unit name")
	}
	if report.Players[0].Commands[0].UnitName != nil || report.Players[0].BuildCommands[0].UnitName != nil {
		t.Fatalf("original was modified: %+v", report.Players[0])
	}
}
