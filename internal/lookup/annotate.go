package lookup

import "github.com/scharissis/coh3-replay-analyser/internal/model"

// Annotate fills unit_name and building_name on every player's full and
// filtered command lists. It only sets names, never clears them.
func Annotate(report *model.ReplayReport, t *Table) {
	if report == nil || t == nil {
		return
	}
	for i := range report.Players {
		p := &report.Players[i]
		faction := "Unknown"
		if p.Faction != nil {
			faction = FactionDisplayName(*p.Faction)
		}
		AnnotateCommands(p.Commands, faction, t)
		AnnotateCommands(p.BuildCommands, faction, t)
	}
}

// Annotated returns an annotated copy of report. The command lists of the
// original are left untouched.
func Annotated(report model.ReplayReport, t *Table) model.ReplayReport {
	out := report
	out.Players = make([]model.Player, len(report.Players))
	for i, p := range report.Players {
		p.Commands = append(make([]model.Command, 0, len(p.Commands)), p.Commands...)
		p.BuildCommands = append(make([]model.Command, 0, len(p.BuildCommands)), p.BuildCommands...)
		out.Players[i] = p
	}
	Annotate(&out, t)
	return out
}

// AnnotateCommands annotates one command list in place. Structure indices are
// resolved against the pbgids seen with the same index in this list.
func AnnotateCommands(commands []model.Command, faction string, t *Table) {
	byIndex := indexToPBGID(commands)
	for i := range commands {
		cmd := &commands[i]
		switch cmd.CommandType {
		case model.CategoryConstructEntity:
			cmd.BuildingName = ptr(buildingName(cmd, byIndex, faction, t))
		case model.CategoryBuildSquad, model.CategoryUseAbility:
			if name, ok := t.friendly(cmd.PBGID); ok {
				cmd.UnitName = &name
			}
		case model.CategorySelectBattlegroup:
			if id, ok := pbgid(cmd); ok {
				if name, ok := t.Battlegroup(id); ok {
					cmd.UnitName = &name
				}
			}
		case model.CategoryBuildGlobalUpgrade:
			if id, ok := pbgid(cmd); ok {
				if name, ok := t.Upgrade(id); ok {
					cmd.UnitName = &name
				}
			}
		}
	}
}

func buildingName(cmd *model.Command, byIndex map[string]string, faction string, t *Table) string {
	if name, ok := t.friendly(cmd.PBGID); ok {
		return name
	}
	if cmd.Index == nil {
		return faction + " Building"
	}
	if id, ok := byIndex[*cmd.Index]; ok {
		if name, ok := t.FriendlyNameString(id); ok {
			return name
		}
	}
	return faction + " Building (Structure #" + *cmd.Index + ")"
}

func indexToPBGID(commands []model.Command) map[string]string {
	out := map[string]string{}
	for _, cmd := range commands {
		if cmd.Index != nil && cmd.PBGID != nil {
			out[*cmd.Index] = *cmd.PBGID
		}
	}
	return out
}

func (t *Table) friendly(id *string) (string, bool) {
	if id == nil {
		return "", false
	}
	return t.FriendlyNameString(*id)
}

func pbgid(cmd *model.Command) (uint32, bool) {
	if cmd.PBGID == nil {
		return 0, false
	}
	return parseID(*cmd.PBGID)
}

func ptr(s string) *string { return &s }
