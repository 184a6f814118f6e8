// Command libreplay builds the C shared library:
//
//	go build -buildmode=c-shared -o libreplay.so ./cmd/libreplay
//
// Every returned string is owned by the caller and must be released with
// free_string.
package main

/*
#include <stdbool.h>
#include <stdlib.h>

typedef struct {
	bool include_build_squad;
	bool include_construct_entity;
	bool include_build_global_upgrade;
	bool include_use_ability;
	bool include_use_battlegroup_ability;
	bool include_select_battlegroup;
	bool include_select_battlegroup_ability;
	bool include_cancel_construction;
	bool include_cancel_production;
	bool include_ai_takeover;
	bool include_unknown;
} CCommandFilter;
*/
import "C"

import (
	"unsafe"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
)

//export parse_replay_full
func parse_replay_full(path *C.char) *C.char {
	return cString(parse(goPath(path), filter.BuildOnly()))
}

// A NULL filter means the build-only policy.
//
//export parse_replay_with_filter
func parse_replay_with_filter(path *C.char, f *C.CCommandFilter) *C.char {
	policy := filter.BuildOnly()
	if f != nil {
		policy = filter.Policy{
			IncludeBuildSquad:               bool(f.include_build_squad),
			IncludeConstructEntity:          bool(f.include_construct_entity),
			IncludeBuildGlobalUpgrade:       bool(f.include_build_global_upgrade),
			IncludeUseAbility:               bool(f.include_use_ability),
			IncludeUseBattlegroupAbility:    bool(f.include_use_battlegroup_ability),
			IncludeSelectBattlegroup:        bool(f.include_select_battlegroup),
			IncludeSelectBattlegroupAbility: bool(f.include_select_battlegroup_ability),
			IncludeCancelConstruction:       bool(f.include_cancel_construction),
			IncludeCancelProduction:         bool(f.include_cancel_production),
			IncludeAITakeover:               bool(f.include_ai_takeover),
			IncludeUnknown:                  bool(f.include_unknown),
		}
	}
	return cString(parse(goPath(path), policy))
}

//export free_string
func free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func goPath(p *C.char) *string {
	if p == nil {
		return nil
	}
	s := C.GoString(p)
	return &s
}

// cString maps a nil payload (serialization failure) to NULL.
func cString(b []byte) *C.char {
	if b == nil {
		return nil
	}
	return C.CString(string(b))
}

func main() {}
