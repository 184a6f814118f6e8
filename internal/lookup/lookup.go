// Package lookup resolves PBGIDs to friendly names and annotates reports with
// them. A Table is read-only once built and safe for concurrent readers.
package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	UnitsFile     = "units.json"
	BuildingsFile = "buildings.json"
	AbilitiesFile = "abilities.json"
)

// ErrNoData is returned by Load when the directory holds none of the data
// files.
var ErrNoData = errors.New("no lookup data files")

type Entry struct {
	Name        string `json:"name"`
	Faction     string `json:"faction,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

type Table struct {
	units        map[uint32]Entry
	buildings    map[uint32]Entry
	abilities    map[uint32]Entry
	battlegroups map[uint32]string
	upgrades     map[uint32]string
	source       string
}

// Builtin returns the fixed table of known identifiers.
func Builtin() *Table {
	return &Table{
		units:        builtinUnits(),
		buildings:    map[uint32]Entry{},
		abilities:    map[uint32]Entry{},
		battlegroups: builtinBattlegroups(),
		upgrades:     builtinUpgrades(),
		source:       "builtin",
	}
}

// Load reads the data files from dir. On any failure it returns the built-in
// table together with the error, so the result is always usable.
func Load(dir string) (*Table, error) {
	t := &Table{
		units:        map[uint32]Entry{},
		buildings:    map[uint32]Entry{},
		abilities:    map[uint32]Entry{},
		battlegroups: builtinBattlegroups(),
		upgrades:     builtinUpgrades(),
		source:       dir,
	}
	if dir == "" {
		return Builtin(), ErrNoData
	}
	found := 0
	for _, f := range []struct {
		name string
		dst  map[uint32]Entry
	}{
		{UnitsFile, t.units},
		{BuildingsFile, t.buildings},
		{AbilitiesFile, t.abilities},
	} {
		ok, err := loadFile(filepath.Join(dir, f.name), f.dst)
		if err != nil {
			return Builtin(), err
		}
		if ok {
			found++
		}
	}
	if found == 0 {
		return Builtin(), fmt.Errorf("%w in %s", ErrNoData, dir)
	}
	return t, nil
}

func loadFile(path string, dst map[uint32]Entry) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	for key, entry := range raw {
		id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 32)
		if err != nil || entry.Name == "" {
			continue
		}
		dst[uint32(id)] = entry
	}
	return true, nil
}

var shared struct {
	once  sync.Once
	table *Table
	err   error
}

// Shared loads the process-wide table on first use. Later calls return the
// same table regardless of dir.
func Shared(dir string) (*Table, error) {
	shared.once.Do(func() {
		shared.table, shared.err = Load(dir)
	})
	return shared.table, shared.err
}

// Source names where the table was loaded from.
func (t *Table) Source() string { return t.source }

func (t *Table) Len() int {
	return len(t.units) + len(t.buildings) + len(t.abilities)
}

func (t *Table) Unit(id uint32) (Entry, bool) {
	e, ok := t.units[id]
	return e, ok
}

func (t *Table) Building(id uint32) (Entry, bool) {
	e, ok := t.buildings[id]
	return e, ok
}

func (t *Table) Ability(id uint32) (Entry, bool) {
	e, ok := t.abilities[id]
	return e, ok
}

// FriendlyName checks units, then buildings, then abilities.
func (t *Table) FriendlyName(id uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, m := range []map[uint32]Entry{t.units, t.buildings, t.abilities} {
		if e, ok := m[id]; ok {
			return e.Name, true
		}
	}
	return "", false
}

func (t *Table) Battlegroup(id uint32) (string, bool) {
	name, ok := t.battlegroups[id]
	return name, ok
}

func (t *Table) Upgrade(id uint32) (string, bool) {
	name, ok := t.upgrades[id]
	return name, ok
}

// FriendlyNameString is FriendlyName for the decimal string form carried by
// commands.
func (t *Table) FriendlyNameString(pbgid string) (string, bool) {
	id, ok := parseID(pbgid)
	if !ok {
		return "", false
	}
	return t.FriendlyName(id)
}

// FactionDisplayName maps a raw faction label such as "afrika_korps" or
// "Americans" to its display name.
func FactionDisplayName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Unknown"
	}
	key := strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.ToLower(raw))
	if name, ok := factionNames[key]; ok {
		return name
	}
	words := strings.ReplaceAll(raw, "_", " ")
	return cases.Title(language.English).String(strings.ToLower(words))
}

func parseID(s string) (uint32, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}
