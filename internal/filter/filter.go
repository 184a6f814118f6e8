// Package filter decides which classified commands are retained in a player's
// filtered ("build") command list.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scharissis/coh3-replay-analyser/internal/model"
)

// Policy holds one inclusion flag per command category. A Policy is a plain
// value; every category has an explicit field so no runtime completeness check
// is needed.
type Policy struct {
	IncludeBuildSquad               bool `json:"include_build_squad" yaml:"include_build_squad"`
	IncludeConstructEntity          bool `json:"include_construct_entity" yaml:"include_construct_entity"`
	IncludeBuildGlobalUpgrade       bool `json:"include_build_global_upgrade" yaml:"include_build_global_upgrade"`
	IncludeUseAbility               bool `json:"include_use_ability" yaml:"include_use_ability"`
	IncludeUseBattlegroupAbility    bool `json:"include_use_battlegroup_ability" yaml:"include_use_battlegroup_ability"`
	IncludeSelectBattlegroup        bool `json:"include_select_battlegroup" yaml:"include_select_battlegroup"`
	IncludeSelectBattlegroupAbility bool `json:"include_select_battlegroup_ability" yaml:"include_select_battlegroup_ability"`
	IncludeCancelConstruction       bool `json:"include_cancel_construction" yaml:"include_cancel_construction"`
	IncludeCancelProduction         bool `json:"include_cancel_production" yaml:"include_cancel_production"`
	IncludeAITakeover               bool `json:"include_ai_takeover" yaml:"include_ai_takeover"`
	IncludeUnknown                  bool `json:"include_unknown" yaml:"include_unknown"`
}

const (
	PresetBuild    = "build"
	PresetAll      = "all"
	PresetCombat   = "combat"
	PresetEconomic = "economic"
)

// BuildOnly is the default policy: squads, buildings, global upgrades and
// battlegroup selections.
func BuildOnly() Policy {
	return Policy{
		IncludeBuildSquad:               true,
		IncludeConstructEntity:          true,
		IncludeBuildGlobalUpgrade:       true,
		IncludeSelectBattlegroup:        true,
		IncludeSelectBattlegroupAbility: true,
	}
}

func AllCommands() Policy {
	return Policy{
		IncludeBuildSquad:               true,
		IncludeConstructEntity:          true,
		IncludeBuildGlobalUpgrade:       true,
		IncludeUseAbility:               true,
		IncludeUseBattlegroupAbility:    true,
		IncludeSelectBattlegroup:        true,
		IncludeSelectBattlegroupAbility: true,
		IncludeCancelConstruction:       true,
		IncludeCancelProduction:         true,
		IncludeAITakeover:               true,
		IncludeUnknown:                  true,
	}
}

func CombatOnly() Policy {
	return Policy{
		IncludeUseAbility:            true,
		IncludeUseBattlegroupAbility: true,
	}
}

// Economic includes every category whose definition affects the economy.
func Economic() Policy {
	var cats []model.CommandCategory
	for _, def := range model.Definitions() {
		if def.Economic {
			cats = append(cats, def.Category)
		}
	}
	return FromCategories(cats...)
}

// FromCategories includes exactly the given categories.
func FromCategories(categories ...model.CommandCategory) Policy {
	var p Policy
	for _, c := range categories {
		if flag := p.field(c); flag != nil {
			*flag = true
		}
	}
	return p
}

// FromGroups includes every category belonging to one of the groups.
func FromGroups(groups ...model.CategoryGroup) Policy {
	want := make(map[model.CategoryGroup]struct{}, len(groups))
	for _, g := range groups {
		want[g] = struct{}{}
	}
	var cats []model.CommandCategory
	for _, def := range model.Definitions() {
		if _, ok := want[def.Group]; ok {
			cats = append(cats, def.Category)
		}
	}
	return FromCategories(cats...)
}

// Named resolves a preset name.
func Named(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetBuild, "build-only", "build_only":
		return BuildOnly(), nil
	case PresetAll, "all-commands", "all_commands":
		return AllCommands(), nil
	case PresetCombat, "combat-only", "combat_only":
		return CombatOnly(), nil
	case PresetEconomic:
		return Economic(), nil
	default:
		return Policy{}, fmt.Errorf("unknown filter preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
}

func PresetNames() []string {
	names := []string{PresetAll, PresetBuild, PresetCombat, PresetEconomic}
	sort.Strings(names)
	return names
}

// Include reports whether commands of category c are retained. Values outside
// the closed category set are never included.
func (p Policy) Include(c model.CommandCategory) bool {
	flag := p.field(c)
	return flag != nil && *flag
}

// Categories lists the included categories in priority order.
func (p Policy) Categories() []model.CommandCategory {
	var out []model.CommandCategory
	for _, c := range model.AllCategories() {
		if p.Include(c) {
			out = append(out, c)
		}
	}
	return out
}

// Apply returns the commands p includes, preserving order. The input slice is
// not modified.
func Apply(commands []model.Command, p Policy) []model.Command {
	out := make([]model.Command, 0, len(commands))
	for _, cmd := range commands {
		if p.Include(cmd.CommandType) {
			out = append(out, cmd)
		}
	}
	return out
}

func (p *Policy) field(c model.CommandCategory) *bool {
	switch c {
	case model.CategoryBuildSquad:
		return &p.IncludeBuildSquad
	case model.CategoryConstructEntity:
		return &p.IncludeConstructEntity
	case model.CategoryBuildGlobalUpgrade:
		return &p.IncludeBuildGlobalUpgrade
	case model.CategoryUseAbility:
		return &p.IncludeUseAbility
	case model.CategoryUseBattlegroupAbility:
		return &p.IncludeUseBattlegroupAbility
	case model.CategorySelectBattlegroup:
		return &p.IncludeSelectBattlegroup
	case model.CategorySelectBattlegroupAbility:
		return &p.IncludeSelectBattlegroupAbility
	case model.CategoryCancelConstruction:
		return &p.IncludeCancelConstruction
	case model.CategoryCancelProduction:
		return &p.IncludeCancelProduction
	case model.CategoryAITakeover:
		return &p.IncludeAITakeover
	case model.CategoryUnknown:
		return &p.IncludeUnknown
	default:
		return nil
	}
}
