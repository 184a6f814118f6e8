// Package vault describes the decoded-replay object model the aggregator reads.
// Decoders turn raw replay bytes into a Replay; the dump subpackage provides
// the default one.
package vault

import "errors"

// ErrDecode marks input that could not be decoded into a replay.
var ErrDecode = errors.New("replay decode failed")

type Decoder interface {
	Decode(data []byte) (Replay, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (Replay, error)

func (f DecoderFunc) Decode(data []byte) (Replay, error) {
	return f(data)
}

type Map struct {
	Filename        string
	LocalizedNameID string
}

// Replay is one decoded match. Optional values report presence with a bool.
type Replay interface {
	Map() Map
	Version() uint16
	Timestamp() string
	GameType() string
	MatchHistoryID() (string, bool)
	// Length is the match length in ticks.
	Length() uint32
	Players() []Player
}

type Player interface {
	Name() string
	Human() bool
	Faction() string
	// Team is the textual rendering of the team value, e.g. "First" or
	// "Team(2)".
	Team() string
	SteamID() (string, bool)
	ProfileID() (string, bool)
	Commands() []Record
	Messages() []Record
}

// Record is one raw command or message. Describe returns its descriptive
// text rendering, which is the only source of its fields.
type Record interface {
	Describe() string
	PlayerIndex() int
	Iteration() uint32
}
