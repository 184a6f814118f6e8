package model

// CommandCategory is the inferred classification of a raw replay command.
type CommandCategory string

const (
	CategoryBuildSquad               CommandCategory = "build_squad"
	CategoryConstructEntity          CommandCategory = "construct_entity"
	CategoryBuildGlobalUpgrade       CommandCategory = "build_global_upgrade"
	CategoryUseAbility               CommandCategory = "use_ability"
	CategoryUseBattlegroupAbility    CommandCategory = "use_battlegroup_ability"
	CategorySelectBattlegroup        CommandCategory = "select_battlegroup"
	CategorySelectBattlegroupAbility CommandCategory = "select_battlegroup_ability"
	CategoryCancelConstruction       CommandCategory = "cancel_construction"
	CategoryCancelProduction         CommandCategory = "cancel_production"
	CategoryAITakeover               CommandCategory = "ai_takeover"
	CategoryUnknown                  CommandCategory = "unknown"
)

// AllCategories returns every category in classification priority order.
func AllCategories() []CommandCategory {
	return []CommandCategory{
		CategoryBuildSquad,
		CategoryConstructEntity,
		CategoryBuildGlobalUpgrade,
		CategoryUseAbility,
		CategoryUseBattlegroupAbility,
		CategorySelectBattlegroup,
		CategorySelectBattlegroupAbility,
		CategoryCancelConstruction,
		CategoryCancelProduction,
		CategoryAITakeover,
		CategoryUnknown,
	}
}

// Valid reports whether c is one of the closed set of categories.
func (c CommandCategory) Valid() bool {
	_, ok := categoryDefinitions[c]
	return ok
}

// CategoryGroup is a coarse grouping of categories used by filter presets.
type CategoryGroup string

const (
	GroupBuild   CategoryGroup = "build"
	GroupCombat  CategoryGroup = "combat"
	GroupControl CategoryGroup = "control"
	GroupCancel  CategoryGroup = "cancel"
	GroupOther   CategoryGroup = "other"
)

type CategoryDefinition struct {
	Category    CommandCategory
	Group       CategoryGroup
	Description string
	Buildable   bool
	Combat      bool
	Economic    bool
}

var categoryDefinitions = map[CommandCategory]CategoryDefinition{
	CategoryBuildSquad:               {Category: CategoryBuildSquad, Group: GroupBuild, Description: "Build a squad", Buildable: true, Economic: true},
	CategoryConstructEntity:          {Category: CategoryConstructEntity, Group: GroupBuild, Description: "Construct a building", Buildable: true, Economic: true},
	CategoryBuildGlobalUpgrade:       {Category: CategoryBuildGlobalUpgrade, Group: GroupBuild, Description: "Research a global upgrade", Buildable: true, Economic: true},
	CategoryUseAbility:               {Category: CategoryUseAbility, Group: GroupCombat, Description: "Use a unit ability", Combat: true},
	CategoryUseBattlegroupAbility:    {Category: CategoryUseBattlegroupAbility, Group: GroupCombat, Description: "Use a battlegroup ability", Combat: true},
	CategorySelectBattlegroup:        {Category: CategorySelectBattlegroup, Group: GroupBuild, Description: "Select a battlegroup", Buildable: true, Economic: true},
	CategorySelectBattlegroupAbility: {Category: CategorySelectBattlegroupAbility, Group: GroupBuild, Description: "Select a battlegroup ability", Buildable: true, Economic: true},
	CategoryCancelConstruction:       {Category: CategoryCancelConstruction, Group: GroupCancel, Description: "Cancel building construction", Economic: true},
	CategoryCancelProduction:         {Category: CategoryCancelProduction, Group: GroupCancel, Description: "Cancel unit production", Economic: true},
	CategoryAITakeover:               {Category: CategoryAITakeover, Group: GroupControl, Description: "AI takes control of player"},
	CategoryUnknown:                  {Category: CategoryUnknown, Group: GroupOther, Description: "Unrecognized command"},
}

// Definition returns the static definition for c. Unknown values map to the
// unknown category's definition.
func Definition(c CommandCategory) CategoryDefinition {
	if def, ok := categoryDefinitions[c]; ok {
		return def
	}
	return categoryDefinitions[CategoryUnknown]
}

// Definitions returns all definitions in priority order.
func Definitions() []CategoryDefinition {
	cats := AllCategories()
	defs := make([]CategoryDefinition, 0, len(cats))
	for _, c := range cats {
		defs = append(defs, categoryDefinitions[c])
	}
	return defs
}
