package postcode

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Tiers(t *testing.T) {
	anchor := "NR25 8PL"
	tests := []struct {
		candidate string
		tier      Tier
		eligible  bool
	}{
		{"NR25 8PL", TierUnit, true},
		{"NR25 8PA", TierSector, true},
		{"NR25 1AA", TierDistrict, true},
		{"NR12 3XY", TierArea, true},
		{"IP22 1AA", TierCrossArea, false},
	}
	for _, tt := range tests {
		p := ScoreStrings(anchor, tt.candidate)
		assert.Equal(t, tt.tier, p.Tier, "candidate %s", tt.candidate)
		assert.Equal(t, tt.eligible, p.Eligible, "candidate %s", tt.candidate)
	}
}

func TestScore_AdjacentDistrictIsAreaTier(t *testing.T) {
	// NR25 vs NR26 share the area but not the outward code, so the pair
	// falls to the area tier with a district delta of 1.
	p := ScoreStrings("NR25 8PL", "NR26 1AA")
	assert.Equal(t, TierArea, p.Tier)
	assert.Equal(t, 1, p.DistrictDelta)
	assert.True(t, p.Eligible)
}

func TestScore_TierMonotonicity(t *testing.T) {
	anchor := "NR25 8PL"
	ordered := []string{"NR25 8PZ", "NR25 9AA", "NR25 1XX", "NR1 2AB", "CB2 1TN"}
	prev := -1
	for _, candidate := range ordered {
		rank := ScoreStrings(anchor, candidate).Rank()
		assert.Greater(t, rank, prev, "candidate %s must rank after its predecessor", candidate)
		prev = rank
	}
}

func TestScore_UnitDelta(t *testing.T) {
	// Same first letter: plain second-letter distance.
	p := ScoreStrings("NR25 8PA", "NR25 8PD")
	assert.Equal(t, 3, p.UnitDelta)

	// Different first letter always ranks farther than any same-letter pair.
	q := ScoreStrings("NR25 8PA", "NR25 8QA")
	assert.Equal(t, 110, q.UnitDelta)
	assert.Greater(t, q.UnitDelta, 25, "cross-letter delta beats the widest same-letter spread")
}

func TestScore_MissingDeltas(t *testing.T) {
	p := ScoreStrings("NR25 8PL", "NR")
	assert.Equal(t, TierArea, p.Tier)
	assert.Equal(t, DeltaUnknown, p.DistrictDelta)
	assert.Equal(t, DeltaUnknown, p.SectorDelta)
	assert.Equal(t, deltaFar, p.RankKey[1])
}

func TestScore_GIRAgainstItself(t *testing.T) {
	p := ScoreStrings("GIR 0AA", "GIR0AA")
	assert.Equal(t, TierUnit, p.Tier)
	assert.True(t, p.Eligible)
}

func TestCompare_IneligibleSortsLast(t *testing.T) {
	anchor := Parse("NR25 8PL")
	near := Parse("CB2 1TN")  // cross-area, low alphabetical
	far := Parse("NR1 2AB")   // same area

	assert.Negative(t, Compare(anchor, far, near), "eligible candidate sorts before any cross-area one")
	assert.Positive(t, Compare(anchor, near, far))
}

func TestCompare_DeterministicOrdering(t *testing.T) {
	anchor := Parse("NR25 8PL")
	raw := []string{"IP1 1AA", "NR25 8PZ", "NR26 1AA", "NR25 9AA", "NR1 2AB"}
	parsed := make([]Parsed, len(raw))
	for i, r := range raw {
		parsed[i] = Parse(r)
	}
	sort.Slice(parsed, func(i, j int) bool { return Compare(anchor, parsed[i], parsed[j]) < 0 })

	got := make([]string, len(parsed))
	for i, p := range parsed {
		got[i] = p.Normalized
	}
	assert.Equal(t, []string{"NR25 8PZ", "NR25 9AA", "NR26 1AA", "NR1 2AB", "IP1 1AA"}, got)
}

func TestMockDistance(t *testing.T) {
	tests := []struct {
		anchor, candidate string
		miles, mins       int
	}{
		{"NR25 8PL", "NR25 8PL", 5, 30},  // unit base, zero deltas
		{"NR25 8PL", "NR25 8PA", 10, 30}, // sector base
		{"NR25 8PL", "NR25 6AA", 22, 30}, // district base 20 + sector delta 2
		{"NR25 8PL", "NR1 2AB", 89, 90},  // area base 35 + 2*24 + 6
		{"NR25 8PL", "CB2 1TN", 113, 90}, // cross-area base 60 + 2*23 + 7
	}
	for _, tt := range tests {
		miles, mins := MockDistance(ScoreStrings(tt.anchor, tt.candidate))
		assert.Equal(t, tt.miles, miles, "%s -> %s", tt.anchor, tt.candidate)
		assert.Equal(t, tt.mins, mins, "%s -> %s", tt.anchor, tt.candidate)
	}
}

func TestTieredProvider_MatchesMockDistance(t *testing.T) {
	leg := TieredProvider{}.Distance("NR25 8PL", "NR1 2AB")
	miles, mins := MockDistance(ScoreStrings("NR25 8PL", "NR1 2AB"))
	assert.Equal(t, Leg{Miles: miles, DriveTimeMins: mins}, leg)
}

func TestPrefixProvider(t *testing.T) {
	p := PrefixProvider{}
	assert.Equal(t, Leg{Miles: 15, DriveTimeMins: 30}, p.Distance("NR25 8PL", "nr1 2ab"))
	assert.Equal(t, Leg{Miles: 45, DriveTimeMins: 90}, p.Distance("NR25 8PL", "CB2 1TN"))
	assert.Equal(t, Leg{Miles: 45, DriveTimeMins: 90}, p.Distance("", "NR25 8PL"), "missing origin is treated as far")
}

func TestRank_FoldsPositionally(t *testing.T) {
	p := ScoreStrings("NR25 8PL", "NR25 8PA")
	require.Equal(t, TierSector, p.Tier)
	// tier 1, district delta 0, sector delta 0, unit delta 11 (L vs A).
	assert.Equal(t, 1_000_000_011, p.Rank())
}
