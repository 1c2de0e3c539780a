// Package dedup generates merge suggestions between an existing canonical
// record set and an incoming batch. It is pure and advisory: nothing here
// applies a merge, callers feed accepted candidates to the lineage package.
package dedup

import (
	"strings"

	"github.com/tapline/visitplanner/internal/fuzzy"
	"github.com/tapline/visitplanner/internal/model"
)

// Candidate pairs an incoming record with its best-matching existing
// record. Reasons lists the corroborating signals that contributed to the
// score.
type Candidate struct {
	Existing model.Pub `json:"existing"`
	Incoming model.Pub `json:"incoming"`
	NameSim  float64   `json:"name_sim"`
	Score    float64   `json:"score"`
	Reasons  []string  `json:"reasons"`
}

// Suggestions is the classified output of a dedup pass. Candidates below
// the review band are dropped entirely, never surfaced.
type Suggestions struct {
	AutoMerge   []Candidate `json:"auto_merge"`
	NeedsReview []Candidate `json:"needs_review"`
}

// Config holds the classification thresholds. The defaults reproduce the
// tuned production behavior; the CLI can override them from configuration.
type Config struct {
	NameGate           float64 `yaml:"name_gate" mapstructure:"name_gate"`
	AutoMergeScore     float64 `yaml:"auto_merge_score" mapstructure:"auto_merge_score"`
	AutoMergeNameSim   float64 `yaml:"auto_merge_name_sim" mapstructure:"auto_merge_name_sim"`
	ReviewScore        float64 `yaml:"review_score" mapstructure:"review_score"`
	ReviewNameSimFloor float64 `yaml:"review_name_sim_floor" mapstructure:"review_name_sim_floor"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		NameGate:           0.75,
		AutoMergeScore:     0.92,
		AutoMergeNameSim:   0.90,
		ReviewScore:        0.86,
		ReviewNameSimFloor: 0.80,
	}
}

// Trade-channel keywords: a one-sided wholesale signal suppresses merges
// between records that sit in different trade channels.
var wholesaleKeywords = []string{"wholesale", "spot", "managed"}

// reasonChannelConflict is the only penalty reason; everything else in
// Candidate.Reasons is a corroborating bonus.
const reasonChannelConflict = "trade channel conflict"

// Suggest runs a dedup pass with the default thresholds.
func Suggest(existing, incoming []model.Pub) Suggestions {
	return SuggestWith(DefaultConfig(), existing, incoming)
}

// SuggestWith compares every incoming record against the existing set and
// classifies the single best candidate per incoming record as auto-merge,
// needs-review, or (silently) ignore.
func SuggestWith(cfg Config, existing, incoming []model.Pub) Suggestions {
	var out Suggestions
	for _, inc := range incoming {
		best, ok := bestCandidate(cfg, existing, inc)
		if !ok {
			continue
		}
		switch classify(cfg, best) {
		case classAutoMerge:
			out.AutoMerge = append(out.AutoMerge, best)
		case classNeedsReview:
			out.NeedsReview = append(out.NeedsReview, best)
		}
	}
	return out
}

// candidatePool restricts the comparison set for one incoming record.
// The tiers are mutually exclusive fallbacks, not a union: postcode
// equality when a postcode exists, else town + address overlap, else
// address overlap alone.
func candidatePool(existing []model.Pub, inc model.Pub) []model.Pub {
	var pool []model.Pub
	switch {
	case fuzzy.FlatPostcode(inc.Zip) != "":
		key := fuzzy.FlatPostcode(inc.Zip)
		for _, ex := range existing {
			if fuzzy.FlatPostcode(ex.Zip) == key {
				pool = append(pool, ex)
			}
		}
	case strings.TrimSpace(inc.Town) != "":
		town := strings.ToLower(strings.TrimSpace(inc.Town))
		for _, ex := range existing {
			if strings.ToLower(strings.TrimSpace(ex.Town)) == town &&
				fuzzy.TokenOverlap(ex.Address, inc.Address) >= 2 {
				pool = append(pool, ex)
			}
		}
	default:
		for _, ex := range existing {
			if fuzzy.TokenOverlap(ex.Address, inc.Address) >= 3 {
				pool = append(pool, ex)
			}
		}
	}
	return pool
}

func bestCandidate(cfg Config, existing []model.Pub, inc model.Pub) (Candidate, bool) {
	var best Candidate
	found := false
	for _, ex := range candidatePool(existing, inc) {
		nameSim := fuzzy.JaroWinkler(fuzzy.Normalize(ex.Name), fuzzy.Normalize(inc.Name))
		if nameSim < cfg.NameGate {
			continue
		}
		cand := score(ex, inc, nameSim)
		if !found || cand.Score > best.Score {
			best = cand
			found = true
		}
	}
	return best, found
}

// score builds the composite score: nameSim plus corroborating bonuses,
// minus the trade-channel conflict penalty, clamped to [0,1].
func score(ex, inc model.Pub, nameSim float64) Candidate {
	cand := Candidate{Existing: ex, Incoming: inc, NameSim: nameSim}
	s := nameSim

	if key := fuzzy.FlatPostcode(inc.Zip); key != "" && fuzzy.FlatPostcode(ex.Zip) == key {
		s += 0.05
		cand.Reasons = append(cand.Reasons, "postcode exact match")
	}
	if ex.RTM != "" && strings.EqualFold(ex.RTM, inc.RTM) {
		s += 0.03
		cand.Reasons = append(cand.Reasons, "rtm match")
	}
	switch overlap := fuzzy.TokenOverlap(ex.Address, inc.Address); {
	case overlap >= 3:
		s += 0.03
		cand.Reasons = append(cand.Reasons, "strong address overlap")
	case overlap == 2:
		s += 0.02
		cand.Reasons = append(cand.Reasons, "address overlap")
	}
	if ex.Town != "" && strings.EqualFold(strings.TrimSpace(ex.Town), strings.TrimSpace(inc.Town)) {
		s += 0.02
		cand.Reasons = append(cand.Reasons, "town match")
	}
	if d := fuzzy.Digits(inc.Phone); d != "" && fuzzy.Digits(ex.Phone) == d {
		s += 0.01
		cand.Reasons = append(cand.Reasons, "phone match")
	}
	if l := fuzzy.EmailLocal(inc.Email); inc.Email != "" && ex.Email != "" && fuzzy.EmailLocal(ex.Email) == l {
		s += 0.01
		cand.Reasons = append(cand.Reasons, "email match")
	}

	if rtmChannelConflict(ex.RTM, inc.RTM) {
		s -= 0.05
		cand.Reasons = append(cand.Reasons, reasonChannelConflict)
	}

	if s > 1 {
		s = 1
	}
	if s < 0 {
		s = 0
	}
	cand.Score = s
	return cand
}

// rtmChannelConflict reports whether exactly one of two non-empty RTM
// values carries a wholesale-like keyword.
func rtmChannelConflict(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return isWholesaleLike(a) != isWholesaleLike(b)
}

func isWholesaleLike(rtm string) bool {
	lower := strings.ToLower(rtm)
	for _, kw := range wholesaleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type classification int

const (
	classIgnore classification = iota
	classNeedsReview
	classAutoMerge
)

func classify(cfg Config, c Candidate) classification {
	postcodeExact := hasReason(c, "postcode exact match")

	if (postcodeExact && c.NameSim >= cfg.AutoMergeNameSim) || c.Score >= cfg.AutoMergeScore {
		return classAutoMerge
	}
	if c.Score >= cfg.ReviewScore {
		return classNeedsReview
	}
	// Postcode-anchored borderline names still get surfaced when more than
	// one corroborating signal backs them up. The channel-conflict penalty
	// is not corroboration and never counts.
	if postcodeExact && c.NameSim >= cfg.ReviewNameSimFloor && c.NameSim < cfg.AutoMergeNameSim && bonusReasons(c) > 1 {
		return classNeedsReview
	}
	return classIgnore
}

func bonusReasons(c Candidate) int {
	n := 0
	for _, r := range c.Reasons {
		if r != reasonChannelConflict {
			n++
		}
	}
	return n
}

func hasReason(c Candidate, reason string) bool {
	for _, r := range c.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
