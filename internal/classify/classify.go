// Package classify infers a command category from the descriptive text the
// upstream decoder renders for a raw record.
//
// The decoder exposes no typed command variant, so the category is decided by
// ordered substring tests. The first matching rule wins; a record carrying
// markers for two categories is classified by rule order alone.
package classify

import (
	"strings"

	"github.com/scharissis/coh3-replay-analyser/internal/model"
)

type Rule struct {
	Category model.CommandCategory
	Markers  []string
}

// Rules is the fixed priority list. SelectBattlegroupAbility records also
// contain "SelectBattlegroup" and therefore classify as select_battlegroup.
var Rules = []Rule{
	{Category: model.CategoryBuildSquad, Markers: []string{"BuildSquad"}},
	{Category: model.CategoryConstructEntity, Markers: []string{"ConstructEntity", "PlaceAndConstructEntities", "BuildStructure", "SCMD_BuildStructure"}},
	{Category: model.CategoryBuildGlobalUpgrade, Markers: []string{"BuildGlobalUpgrade", "TentativeUpgradePurchaseAll", "SCMD_Upgrade"}},
	{Category: model.CategoryUseAbility, Markers: []string{"UseAbility", "SCMD_Ability"}},
	{Category: model.CategoryUseBattlegroupAbility, Markers: []string{"UseBattlegroupAbility"}},
	{Category: model.CategorySelectBattlegroup, Markers: []string{"SelectBattlegroup"}},
	{Category: model.CategorySelectBattlegroupAbility, Markers: []string{"SelectBattlegroupAbility"}},
	{Category: model.CategoryCancelConstruction, Markers: []string{"CancelConstruction"}},
	{Category: model.CategoryCancelProduction, Markers: []string{"CancelProduction", "SCMD_CancelProduction"}},
	{Category: model.CategoryAITakeover, Markers: []string{"AITakeover"}},
}

// Command returns exactly one category for text. It never fails.
func Command(text string) model.CommandCategory {
	for _, rule := range Rules {
		if containsAny(text, rule.Markers...) {
			return rule.Category
		}
	}
	return model.CategoryUnknown
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
