// Package extract pulls named sub-fields out of the descriptive text rendering
// of a single raw replay record.
//
// Every extraction locates a label and captures up to the first delimiter that
// follows it. A missing label or delimiter yields no value; nothing here fails.
package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scharissis/coh3-replay-analyser/internal/tick"
)

const (
	pbgidLabel        = "pbgid:"
	pbgidWrapperLabel = "Pbgid("
	tickLabel         = "tick: "
	contentLabel      = "content:"
	indexLabel        = "index:"

	messagePrefix   = "Message: "
	messageMaxRunes = 50
	messageCutRunes = 47
)

// PBGID returns the blueprint identifier referenced by the record.
func PBGID(text string) (string, bool) {
	if v, ok := field(text, pbgidLabel, ",})"); ok {
		v = strings.TrimSpace(strings.TrimPrefix(v, pbgidWrapperLabel))
		if v != "" {
			return v, true
		}
	}
	if v, ok := field(text, pbgidWrapperLabel, ")"); ok && v != "" {
		return v, true
	}
	return "", false
}

// Tick returns the record's tick counter when present and numeric.
func Tick(text string) (uint32, bool) {
	v, ok := field(text, tickLabel, ",}")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Timestamp returns the record's tick converted to milliseconds.
func Timestamp(text string) (uint32, bool) {
	t, ok := Tick(text)
	if !ok {
		return 0, false
	}
	return tick.ToMillis(t), true
}

// Content returns the chat text of a message record. When the record has no
// content label the raw text is echoed behind a "Message: " prefix, cut to 47
// runes once it exceeds 50, so the result is never empty.
func Content(text string) string {
	if v, ok := field(text, contentLabel, ",}"); ok {
		if v = strings.Trim(v, `"`); v != "" {
			return v
		}
	}
	if utf8.RuneCountInString(text) > messageMaxRunes {
		return messagePrefix + truncateRunes(text, messageCutRunes)
	}
	return messagePrefix + text
}

// Index returns the structure index of SCMD-style records. The label must not
// be the tail of a longer identifier such as player_index.
func Index(text string) (string, bool) {
	from := 0
	for {
		pos := strings.Index(text[from:], indexLabel)
		if pos < 0 {
			return "", false
		}
		pos += from
		if pos == 0 || !isIdentRune(lastRune(text[:pos])) {
			v, ok := capture(text[pos+len(indexLabel):], ",})")
			if ok && v != "" {
				return v, true
			}
			return "", false
		}
		from = pos + len(indexLabel)
	}
}

func field(text, label, delims string) (string, bool) {
	pos := strings.Index(text, label)
	if pos < 0 {
		return "", false
	}
	return capture(text[pos+len(label):], delims)
}

func capture(rest, delims string) (string, bool) {
	end := strings.IndexAny(rest, delims)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
