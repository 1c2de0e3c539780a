package postcode

import "strings"

// Leg is a mock travel estimate between two postcodes.
type Leg struct {
	Miles         int `json:"miles"`
	DriveTimeMins int `json:"drive_time_mins"`
}

// DistanceProvider estimates a travel leg between two raw postcode
// strings. The scheduler consumes distances only through this interface so
// the model can be swapped without touching the planning loop.
type DistanceProvider interface {
	Distance(from, to string) Leg
}

// TieredProvider is the default distance model, built on the structural
// proximity tiers and MockDistance.
type TieredProvider struct{}

func (TieredProvider) Distance(from, to string) Leg {
	miles, mins := MockDistance(ScoreStrings(from, to))
	return Leg{Miles: miles, DriveTimeMins: mins}
}

// PrefixProvider reproduces the legacy two-character-prefix heuristic:
// same prefix means 15 miles / 30 minutes, anything else 45 miles / 90
// minutes.
//
// Deprecated: kept only for callers that need byte-compatible output from
// the old scheduler; use TieredProvider otherwise.
type PrefixProvider struct{}

func (PrefixProvider) Distance(from, to string) Leg {
	if prefix2(from) != "" && prefix2(from) == prefix2(to) {
		return Leg{Miles: 15, DriveTimeMins: 30}
	}
	return Leg{Miles: 45, DriveTimeMins: 90}
}

func prefix2(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if len(s) < 2 {
		return ""
	}
	return s[:2]
}
