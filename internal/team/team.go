// Package team resolves a player's team id from the upstream team object,
// which the decoder only exposes as renderable text.
package team

import "strings"

// digits is checked in priority order; the first one present wins.
var digits = []struct {
	marker string
	id     uint32
}{
	{"1", 1},
	{"2", 2},
	{"3", 3},
	{"4", 4},
}

// Resolve returns the team id for the player at playerIndex. When the
// rendering carries none of the digits 1-4, players 0 and 1 are placed on
// team 1 and everyone else on team 2.
func Resolve(rendering string, playerIndex int) uint32 {
	for _, d := range digits {
		if strings.Contains(rendering, d.marker) {
			return d.id
		}
	}
	return Fallback(playerIndex)
}

// Fallback is the positional guess used when the rendering has no team digit.
func Fallback(playerIndex int) uint32 {
	if playerIndex < 2 {
		return 1
	}
	return 2
}
