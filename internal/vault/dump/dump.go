// Package dump decodes decoded-replay dumps: a JSON export of the upstream
// replay object model in which every raw record carries its descriptive text
// rendering. Dumps may be zstd-compressed.
//
// Layout:
//
//	{
//	  "version": 10612,
//	  "timestamp": "2024-03-01 18:22",
//	  "game_type": "Skirmish",
//	  "matchhistory_id": "12345",
//	  "length": 9600,
//	  "map": {"filename": "data:scenarios/...", "localized_name_id": "11234"},
//	  "players": [{
//	    "name": "alice", "human": true, "faction": "Americans", "team": "First",
//	    "steam_id": "7656...", "profile_id": "1",
//	    "commands": [{"text": "BuildSquad { ... }", "iteration": 3}],
//	    "messages": ["Message { tick: 80, content: \"gl hf\" }"]
//	  }]
//	}
//
// A record is either an object with a "text" field or a bare JSON string.
package dump

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/scharissis/coh3-replay-analyser/internal/vault"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Decoder implements vault.Decoder for dumps.
type Decoder struct{}

var _ vault.Decoder = Decoder{}

func (Decoder) Decode(data []byte) (vault.Replay, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", vault.ErrDecode)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		raw, err := decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", vault.ErrDecode, err)
		}
		data = bytes.TrimSpace(raw)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrDecode, err)
	}
	if doc.Map == nil {
		return nil, fmt.Errorf("%w: missing map", vault.ErrDecode)
	}
	return newReplay(doc), nil
}

// Decode decodes a dump with the default decoder.
func Decode(data []byte) (vault.Replay, error) {
	return Decoder{}.Decode(data)
}

// Compress zstd-encodes a dump.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

type document struct {
	Version        uint16      `json:"version"`
	Timestamp      string      `json:"timestamp"`
	GameType       string      `json:"game_type"`
	MatchHistoryID *string     `json:"matchhistory_id"`
	Length         uint32      `json:"length"`
	Map            *mapDoc     `json:"map"`
	Players        []playerDoc `json:"players"`
}

type mapDoc struct {
	Filename        string `json:"filename"`
	LocalizedNameID string `json:"localized_name_id"`
}

type playerDoc struct {
	Name      string      `json:"name"`
	Human     bool        `json:"human"`
	Faction   string      `json:"faction"`
	Team      string      `json:"team"`
	SteamID   *string     `json:"steam_id"`
	ProfileID *string     `json:"profile_id"`
	Commands  []recordDoc `json:"commands"`
	Messages  []recordDoc `json:"messages"`
}

type recordDoc struct {
	Text        string  `json:"text"`
	PlayerIndex *int    `json:"player_index"`
	Iteration   *uint32 `json:"iteration"`
}

func (r *recordDoc) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.Text)
	}
	type plain recordDoc
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Text == "" {
		return errors.New("record has no text")
	}
	*r = recordDoc(p)
	return nil
}

type replay struct {
	doc     document
	players []vault.Player
}

func newReplay(doc document) *replay {
	r := &replay{doc: doc, players: make([]vault.Player, 0, len(doc.Players))}
	for i, p := range doc.Players {
		r.players = append(r.players, &player{
			doc:      p,
			commands: records(p.Commands, i),
			messages: records(p.Messages, i),
		})
	}
	return r
}

func records(docs []recordDoc, playerIndex int) []vault.Record {
	out := make([]vault.Record, 0, len(docs))
	for i, d := range docs {
		rec := record{text: d.Text, playerIndex: playerIndex, iteration: uint32(i)}
		if d.PlayerIndex != nil {
			rec.playerIndex = *d.PlayerIndex
		}
		if d.Iteration != nil {
			rec.iteration = *d.Iteration
		}
		out = append(out, rec)
	}
	return out
}

func (r *replay) Map() vault.Map {
	return vault.Map{Filename: r.doc.Map.Filename, LocalizedNameID: r.doc.Map.LocalizedNameID}
}

func (r *replay) Version() uint16 { return r.doc.Version }
func (r *replay) Timestamp() string { return r.doc.Timestamp }
func (r *replay) GameType() string { return r.doc.GameType }
func (r *replay) Length() uint32 { return r.doc.Length }
func (r *replay) Players() []vault.Player { return r.players }

func (r *replay) MatchHistoryID() (string, bool) {
	return optional(r.doc.MatchHistoryID)
}

type player struct {
	doc      playerDoc
	commands []vault.Record
	messages []vault.Record
}

func (p *player) Name() string { return p.doc.Name }
func (p *player) Human() bool { return p.doc.Human }
func (p *player) Faction() string { return p.doc.Faction }
func (p *player) Team() string { return p.doc.Team }
func (p *player) SteamID() (string, bool) { return optional(p.doc.SteamID) }
func (p *player) ProfileID() (string, bool) { return optional(p.doc.ProfileID) }
func (p *player) Commands() []vault.Record { return p.commands }
func (p *player) Messages() []vault.Record { return p.messages }

type record struct {
	text        string
	playerIndex int
	iteration   uint32
}

func (r record) Describe() string { return r.text }
func (r record) PlayerIndex() int { return r.playerIndex }
func (r record) Iteration() uint32 { return r.iteration }

func optional(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}
