package postcode

import "strings"

// Tier is the proximity classification between two postcodes, most to
// least specific.
type Tier string

const (
	TierUnit      Tier = "unit"
	TierSector    Tier = "sector"
	TierDistrict  Tier = "district"
	TierArea      Tier = "area"
	TierCrossArea Tier = "cross_area"
)

// DeltaUnknown marks a delta that could not be computed because one side
// lacks the component.
const DeltaUnknown = -1

// rank position filler for unknown deltas; keeps unknowns sorting after
// every computable delta.
const deltaFar = 999

var tierRanks = map[Tier]int{
	TierUnit:      0,
	TierSector:    1,
	TierDistrict:  2,
	TierArea:      3,
	TierCrossArea: 4,
}

// Proximity is the tiered comparison of two parsed postcodes. RankKey
// orders candidates from closest to farthest: tier rank first, then
// district, sector and unit deltas (unknowns pushed to the back).
type Proximity struct {
	Eligible      bool   `json:"eligible"`
	Tier          Tier   `json:"tier"`
	DistrictDelta int    `json:"district_delta"` // DeltaUnknown if either side missing
	SectorDelta   int    `json:"sector_delta"`
	UnitDelta     int    `json:"unit_delta"`
	RankKey       [4]int `json:"rank_key"`
	Anchor        Parsed `json:"anchor"`
	Candidate     Parsed `json:"candidate"`
}

// Score computes the tiered proximity of candidate relative to anchor.
func Score(anchor, candidate Parsed) Proximity {
	p := Proximity{
		Anchor:        anchor,
		Candidate:     candidate,
		DistrictDelta: DeltaUnknown,
		SectorDelta:   DeltaUnknown,
		UnitDelta:     DeltaUnknown,
	}

	sameArea := anchor.AreaLetters != "" && anchor.AreaLetters == candidate.AreaLetters
	sameOutward := anchor.OutwardFull != "" && anchor.OutwardFull == candidate.OutwardFull
	sameSector := sameOutward && anchor.InwardSector != "" && anchor.InwardSector == candidate.InwardSector
	sameUnit := sameSector && anchor.InwardUnit != "" && anchor.InwardUnit == candidate.InwardUnit

	switch {
	case sameUnit:
		p.Tier = TierUnit
	case sameSector:
		p.Tier = TierSector
	case sameOutward:
		p.Tier = TierDistrict
	case sameArea:
		p.Tier = TierArea
	default:
		p.Tier = TierCrossArea
	}
	p.Eligible = sameArea

	if anchor.OutwardDistrict != DistrictUnknown && candidate.OutwardDistrict != DistrictUnknown {
		p.DistrictDelta = abs(anchor.OutwardDistrict - candidate.OutwardDistrict)
	}
	if len(anchor.InwardSector) == 1 && len(candidate.InwardSector) == 1 {
		p.SectorDelta = abs(int(anchor.InwardSector[0]) - int(candidate.InwardSector[0]))
	}
	if len(anchor.InwardUnit) == 2 && len(candidate.InwardUnit) == 2 {
		p.UnitDelta = unitDelta(anchor.InwardUnit, candidate.InwardUnit)
	}

	p.RankKey = [4]int{
		tierRanks[p.Tier],
		orFar(p.DistrictDelta),
		orFar(p.SectorDelta),
		orFar(p.UnitDelta),
	}
	return p
}

// ScoreStrings scores two raw postcode strings using the lenient parse
// path, so outward-only input still supports district- and area-level
// comparison.
func ScoreStrings(anchor, candidate string) Proximity {
	return Score(ParseLenient(anchor), ParseLenient(candidate))
}

// Rank folds the rank key into a single integer, most-significant position
// first. Lower is closer.
func (p Proximity) Rank() int {
	return p.RankKey[0]*1_000_000_000 + p.RankKey[1]*1_000_000 + p.RankKey[2]*1_000 + p.RankKey[3]
}

// Compare orders candidates a and b by proximity to anchor. Ineligible
// (cross-area) candidates always sort after eligible ones; otherwise the
// rank keys decide, with a lexicographic compare of normalized postcodes
// as the final deterministic tie-break.
func Compare(anchor, a, b Parsed) int {
	pa := Score(anchor, a)
	pb := Score(anchor, b)

	if pa.Eligible != pb.Eligible {
		if pa.Eligible {
			return -1
		}
		return 1
	}
	for i := range pa.RankKey {
		if pa.RankKey[i] != pb.RankKey[i] {
			return pa.RankKey[i] - pb.RankKey[i]
		}
	}
	return strings.Compare(a.Normalized, b.Normalized)
}

// Tier base mileages for the mock distance model.
var tierBaseMiles = map[Tier]int{
	TierUnit:      5,
	TierSector:    10,
	TierDistrict:  20,
	TierArea:      35,
	TierCrossArea: 60,
}

// MockDistance derives a deterministic mileage and drive time (minutes)
// from a proximity score. This is a placeholder for a real distance or
// routing API: the numbers are structural estimates, not ground truth.
func MockDistance(p Proximity) (miles, driveTimeMins int) {
	miles = tierBaseMiles[p.Tier]
	if p.DistrictDelta != DeltaUnknown {
		miles += 2 * p.DistrictDelta
	}
	if p.SectorDelta != DeltaUnknown {
		miles += p.SectorDelta
	}
	switch {
	case miles >= 50:
		driveTimeMins = 90
	case miles >= 25:
		driveTimeMins = 60
	default:
		driveTimeMins = 30
	}
	return miles, driveTimeMins
}

// unitDelta is a composite distance between two-letter inward units. A
// first-letter mismatch always ranks strictly farther than any
// same-first-letter pair.
func unitDelta(a, b string) int {
	first := abs(int(a[0]) - int(b[0]))
	second := abs(int(a[1]) - int(b[1]))
	if first == 0 {
		return second
	}
	return 100 + 10*first + second
}

func orFar(delta int) int {
	if delta == DeltaUnknown {
		return deltaFar
	}
	return delta
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
