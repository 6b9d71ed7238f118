package document

import (
	"slices"
	"strings"
)

// Suffix is appended to every storage key.
const Suffix = ".json"

const (
	rosterSegment = "roster"
	freeAgentsKey = "roster_freeagents" + Suffix
	defaultStem   = "data"
	unknownTeamID = "unknown"
)

// ResolveFilename derives the storage key for an export pushed to path.
//
//	/export/ps5/625743/team/774242334/roster  ->  roster_774242334.json
//	/export/ps5/625743/freeagents              ->  roster_freeagents.json
//	/export/standings                          ->  standings.json
//
// A "roster" segment wins over a free-agent segment. The result is always a
// non-empty key ending in Suffix.
func ResolveFilename(path string) string {
	parts := segments(path)

	if idx := slices.Index(parts, rosterSegment); idx >= 0 {
		team := unknownTeamID
		if idx > 0 {
			team = parts[idx-1]
		}
		return "roster_" + team + Suffix
	}

	if slices.Contains(parts, "freeagents") || slices.Contains(parts, "free_agents") {
		return freeAgentsKey
	}

	stem := defaultStem
	if len(parts) > 0 {
		// strip an accidental suffix so it is not doubled
		if s := strings.TrimSuffix(parts[len(parts)-1], Suffix); s != "" {
			stem = s
		}
	}
	return stem + Suffix
}

// NormalizeKey turns a read path (with or without Suffix) into a storage key.
func NormalizeKey(path string) string {
	key := strings.Trim(path, "/")
	if key == "" {
		key = defaultStem
	}
	if !strings.HasSuffix(key, Suffix) {
		key += Suffix
	}
	return key
}

func segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}
