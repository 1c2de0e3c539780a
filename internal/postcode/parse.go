// Package postcode parses UK postcodes and ranks their structural
// proximity. Distances produced here are a deterministic mock derived from
// postcode structure, not a routing engine; see MockDistance.
package postcode

import (
	"regexp"
	"strings"
)

// Status classifies a parse result.
type Status string

const (
	StatusOK      Status = "OK"
	StatusOddball Status = "ODDBALL"
	StatusInvalid Status = "INVALID"
)

// FallbackReason explains why a parse did not produce a fully structured
// result.
type FallbackReason string

const (
	FallbackUnknownMacro     FallbackReason = "UNKNOWN_MACRO"
	FallbackUnknownSubregion FallbackReason = "UNKNOWN_SUBREGION"
	FallbackParseFailed      FallbackReason = "PARSE_FAILED"
	FallbackSpecialCase      FallbackReason = "SPECIAL_CASE"
	FallbackUserDeferred     FallbackReason = "USER_DEFERRED_REVIEW"
)

// DistrictUnknown marks an absent outward district number.
const DistrictUnknown = -1

// Parsed is the structured form of a raw postcode string. Status OK means
// every structured field is populated and the input matched the full
// grammar; INVALID records must be excluded from geographic reasoning and
// from scheduling until corrected.
type Parsed struct {
	Raw             string         `json:"raw"`
	Normalized      string         `json:"normalized,omitempty"`
	AreaLetters     string         `json:"area_letters,omitempty"`
	OutwardDistrict int            `json:"outward_district"` // DistrictUnknown when absent
	OutwardFull     string         `json:"outward_full,omitempty"`
	InwardSector    string         `json:"inward_sector,omitempty"` // single digit
	InwardUnit      string         `json:"inward_unit,omitempty"`   // two letters
	Status          Status         `json:"status"`
	FallbackReason  FallbackReason `json:"fallback_reason,omitempty"`
}

var (
	nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]`)
	fullRe     = regexp.MustCompile(`^([A-Z]{1,2})(\d{1,2}[A-Z]?) (\d)([A-Z]{2})$`)
	outwardRe  = regexp.MustCompile(`^([A-Z]{1,2})(\d{1,2}[A-Z]?)?$`)
	districtRe = regexp.MustCompile(`\d+`)
)

// Parse interprets a raw postcode string. It is pure and total: it never
// fails, it returns a Parsed with Status INVALID instead.
func Parse(raw string) Parsed {
	p := Parsed{Raw: raw, OutwardDistrict: DistrictUnknown}

	cleaned := nonAlnumRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	if cleaned == "" {
		p.Status = StatusInvalid
		p.FallbackReason = FallbackParseFailed
		return p
	}

	// The one canonical irregular UK postcode. Valid, but its district
	// cannot be classified numerically.
	if cleaned == "GIR0AA" {
		p.Normalized = "GIR 0AA"
		p.AreaLetters = "GIR"
		p.OutwardFull = "GIR"
		p.InwardSector = "0"
		p.InwardUnit = "AA"
		p.Status = StatusOddball
		p.FallbackReason = FallbackSpecialCase
		return p
	}

	normalized := cleaned
	if len(cleaned) > 3 {
		normalized = cleaned[:len(cleaned)-3] + " " + cleaned[len(cleaned)-3:]
	}

	m := fullRe.FindStringSubmatch(normalized)
	if m == nil {
		p.Status = StatusInvalid
		p.FallbackReason = FallbackParseFailed
		return p
	}

	p.Normalized = normalized
	p.AreaLetters = m[1]
	p.OutwardFull = m[1] + m[2]
	p.InwardSector = m[3]
	p.InwardUnit = m[4]
	p.OutwardDistrict = extractDistrict(m[2])
	p.Status = StatusOK
	return p
}

// ParseLenient is the secondary parse path for degraded input: outward-only
// ("NR25") or area-only ("NR") strings yield a partial ODDBALL result so
// district- and area-level comparisons still work. Anything else is INVALID.
func ParseLenient(raw string) Parsed {
	p := Parse(raw)
	if p.Status != StatusInvalid {
		return p
	}

	cleaned := nonAlnumRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	m := outwardRe.FindStringSubmatch(cleaned)
	if m == nil {
		return p
	}

	out := Parsed{Raw: raw, OutwardDistrict: DistrictUnknown, Status: StatusOddball}
	out.AreaLetters = m[1]
	if m[2] != "" {
		out.Normalized = cleaned
		out.OutwardFull = m[1] + m[2]
		out.OutwardDistrict = extractDistrict(m[2])
		out.FallbackReason = FallbackUnknownSubregion
	} else {
		out.Normalized = cleaned
		out.FallbackReason = FallbackUnknownMacro
	}
	return out
}

// extractDistrict pulls the numeric run out of the outward digits group,
// ignoring a trailing letter ("2A" -> 2).
func extractDistrict(digits string) int {
	run := districtRe.FindString(digits)
	if run == "" {
		return DistrictUnknown
	}
	n := 0
	for _, r := range run {
		n = n*10 + int(r-'0')
	}
	return n
}
