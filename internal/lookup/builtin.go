package lookup

const (
	factionWehrmacht   = "Wehrmacht"
	factionAfrikaKorps = "Afrika Korps"
	factionBritish     = "British"
	factionUS          = "US Forces"
)

func builtinUnits() map[uint32]Entry {
	return map[uint32]Entry{
		198355: {Name: "Grenadier Squad", Faction: factionWehrmacht, Category: "Infantry", Description: "Basic infantry squad"},
		198340: {Name: "Pioneer Squad", Faction: factionWehrmacht, Category: "Engineer", Description: "Engineer unit for construction and repair"},
		198347: {Name: "MG42 Machine Gun Team", Faction: factionWehrmacht, Category: "Support", Description: "Heavy machine gun team"},
		198342: {Name: "Mortar Team", Faction: factionWehrmacht, Category: "Support", Description: "Indirect fire support"},
		198341: {Name: "Sniper", Faction: factionWehrmacht, Category: "Infantry", Description: "Long-range precision infantry"},
		198357: {Name: "Assault Grenadier Squad", Faction: factionWehrmacht, Category: "Infantry", Description: "Close-combat infantry squad"},
		198410: {Name: "Panzer IV", Faction: factionWehrmacht, Category: "Vehicle"},

		2033664: {Name: "Panzergrenadier Squad", Faction: factionAfrikaKorps, Category: "Infantry"},
		2075940: {Name: "8 Rad Armored Car", Faction: factionAfrikaKorps, Category: "Vehicle"},

		203604: {Name: "Section", Faction: factionBritish, Category: "Infantry"},
		203611: {Name: "Royal Engineer Section", Faction: factionBritish, Category: "Engineer"},
		203787: {Name: "Vickers Machine Gun Team", Faction: factionBritish, Category: "Support"},
		203607: {Name: "Commando Section", Faction: factionBritish, Category: "Infantry"},
		203610: {Name: "Sniper", Faction: factionBritish, Category: "Infantry"},
		203790: {Name: "17-pounder Anti-tank Gun", Faction: factionBritish, Category: "Support"},
		203788: {Name: "Churchill Tank", Faction: factionBritish, Category: "Vehicle"},
		203789: {Name: "Crusader AA Tank", Faction: factionBritish, Category: "Vehicle"},
		224382: {Name: "Sherman Firefly", Faction: factionBritish, Category: "Vehicle"},

		168613: {Name: "Rifleman Squad", Faction: factionUS, Category: "Infantry"},
		137121: {Name: "Engineer Squad", Faction: factionUS, Category: "Engineer"},
		137122: {Name: "Assault Engineer Squad", Faction: factionUS, Category: "Engineer"},
		168619: {Name: "Bazooka Team", Faction: factionUS, Category: "Support"},
		170304: {Name: ".30 Cal Machine Gun Team", Faction: factionUS, Category: "Support"},
		170321: {Name: "Sherman Tank", Faction: factionUS, Category: "Vehicle"},
		170305: {Name: "M8 Greyhound", Faction: factionUS, Category: "Vehicle"},
		170315: {Name: "M3 Halftrack", Faction: factionUS, Category: "Vehicle"},
	}
}

// Battlegroup ids as seen in SelectBattlegroup commands, followed by the
// definition ids.
func builtinBattlegroups() map[uint32]string {
	return map[uint32]string{
		196934:  "Armored (US)",
		198405:  "Unknown Wehrmacht BG 1",
		197799:  "Unknown Wehrmacht BG 2",
		2164378: "Unknown Afrika Korps BG",
		2164107: "Unknown British BG 1",
		2031370: "Unknown British BG 2",

		2075338: "Armored Support",
		2074237: "Italian Combined Arms",
		2072429: "Italian Infantry",
		2164392: "Panzerjäger Kommand",
		2151628: "Subterfuge",
		199102:  "Airborne",
		199103:  "Armored",
		199104:  "Infantry",
		201151:  "Special Operations",
		2164585: "Special Weapons",
		2031369: "Australian Defense",
		222365:  "British Air and Sea",
		202334:  "British Armored",
		2164115: "Canadian Shock",
		201661:  "Indian Artillery",
		199106:  "Breakthrough",
		2033170: "Coastal",
		200769:  "Defense",
		199091:  "Luftwaffe",
		199105:  "Mechanized",
		2163770: "Terror",
	}
}

func builtinUpgrades() map[uint32]string {
	return map[uint32]string{
		2072101: "T1 Unit Unlock (Afrika Korps)",
		2072102: "T2 Unit Unlock (Afrika Korps)",
		2108279: "Armored Assault Tactics (Afrika Korps)",
		2084237: "Vehicle Survivability Self-Repair (Afrika Korps)",
		2084216: "Operational Blitzkrieg (Afrika Korps)",
		2084214: "Smoke Survivability (Afrika Korps)",

		197637:  "Bishop Squad Unlock (British)",
		197636:  "Stuart Squad Unlock (British)",
		197635:  "Rifle Grenade Tommy (British)",
		197638:  "17-pounder Squad Unlock (British)",
		2072354: "Grant Tank Unlock (British)",
		2082737: "Training Center Infantry (British Africa)",
		2082738: "Training Center Team Weapons (British Africa)",

		170742:  "Medical Station (Wehrmacht)",
		2081888: "Panzer Kompanie Veterancy (Wehrmacht)",
		2081886: "Panzergrenadier Kompanie Veterancy (Wehrmacht)",
		2089293: "Side Skirts Global (Wehrmacht)",
		2140327: "Medical Bunker Defense (Wehrmacht)",
		201588:  "Advanced Mechanical Assault Tactics (Wehrmacht)",
		205683:  "Repair Bunker Defense (Wehrmacht)",
	}
}

// factionNames maps raw faction keys, lowercased with separators removed, to
// display names.
var factionNames = map[string]string{
	"afrikakorps":   factionAfrikaKorps,
	"american":      factionUS,
	"americans":     factionUS,
	"usforces":      factionUS,
	"british":       factionBritish,
	"britishafrica": factionBritish,
	"german":        factionWehrmacht,
	"germans":       factionWehrmacht,
	"wehrmacht":     factionWehrmacht,
}
