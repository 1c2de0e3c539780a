package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapline/visitplanner/internal/model"
)

func pub(name, zip string) model.Pub {
	return model.Pub{UUID: name, Name: name, Zip: zip}
}

func TestSuggest_RedLionAutoMerge(t *testing.T) {
	existing := []model.Pub{pub("The Red Lion", "NR25 8PL")}
	incoming := []model.Pub{pub("Red Lion", "NR258PL")}

	got := Suggest(existing, incoming)
	require.Len(t, got.AutoMerge, 1)
	assert.Empty(t, got.NeedsReview)

	c := got.AutoMerge[0]
	assert.GreaterOrEqual(t, c.NameSim, 0.90, "article-stripped names are identical")
	assert.Contains(t, c.Reasons, "postcode exact match")
}

func TestSuggest_NameGate(t *testing.T) {
	existing := []model.Pub{pub("The Red Lion", "NR25 8PL")}
	incoming := []model.Pub{pub("White Horse", "NR25 8PL")}

	got := Suggest(existing, incoming)
	assert.Empty(t, got.AutoMerge)
	assert.Empty(t, got.NeedsReview, "candidates below the name gate never surface")
}

func TestSuggest_PostcodeTierIsExclusive(t *testing.T) {
	// Incoming has a postcode that matches nothing; the town fallback tier
	// must not be consulted.
	existing := []model.Pub{{UUID: "a", Name: "Red Lion", Zip: "IP1 1AA", Town: "Holt", Address: "1 High Street"}}
	incoming := []model.Pub{{UUID: "b", Name: "Red Lion", Zip: "NR25 8PL", Town: "Holt", Address: "1 High Street"}}

	got := Suggest(existing, incoming)
	assert.Empty(t, got.AutoMerge)
	assert.Empty(t, got.NeedsReview)
}

func TestSuggest_TownFallbackTier(t *testing.T) {
	existing := []model.Pub{{UUID: "a", Name: "Kings Head", Town: "Holt", Address: "12 Station Road"}}
	incoming := []model.Pub{{UUID: "b", Name: "The Kings Head", Town: "holt", Address: "12 Station Road West"}}

	got := Suggest(existing, incoming)
	require.Len(t, got.AutoMerge, 1)
	c := got.AutoMerge[0]
	assert.Equal(t, 1.0, c.NameSim)
	assert.Contains(t, c.Reasons, "town match")
	assert.Contains(t, c.Reasons, "strong address overlap")
}

func TestSuggest_AddressOnlyTier(t *testing.T) {
	existing := []model.Pub{{UUID: "a", Name: "Feathers Hotel", Address: "6 Market Place Holt"}}
	incoming := []model.Pub{{UUID: "b", Name: "Feathers Hotel", Address: "6 Market Place Holt"}}

	got := Suggest(existing, incoming)
	require.Len(t, got.AutoMerge, 1)

	// Two overlapping tokens is not enough without a town.
	weak := []model.Pub{{UUID: "c", Name: "Feathers Hotel", Address: "6 Market"}}
	got = Suggest(existing, weak)
	assert.Empty(t, got.AutoMerge)
	assert.Empty(t, got.NeedsReview)
}

func TestScore_Bounds(t *testing.T) {
	ex := model.Pub{
		Name: "Red Lion", Zip: "NR25 8PL", RTM: "Free Trade",
		Address: "1 High Street Holt", Town: "Holt",
		Phone: "01263 712318", Email: "info@redlion.co.uk",
	}
	inc := ex
	inc.UUID = "other"

	c := score(ex, inc, 1.0)
	assert.Equal(t, 1.0, c.Score, "every bonus at once still clamps to 1")
	assert.GreaterOrEqual(t, c.Score, 0.0)
}

func TestScore_TradeChannelPenalty(t *testing.T) {
	ex := pub("Red Lion", "NR25 8PL")
	ex.RTM = "Wholesale National"
	inc := pub("Red Lion", "NR25 8PL")
	inc.RTM = "Free Trade"

	c := score(ex, inc, 0.95)
	assert.Contains(t, c.Reasons, "trade channel conflict")
	// 0.95 + 0.05 postcode - 0.05 penalty.
	assert.InDelta(t, 0.95, c.Score, 1e-9)

	// Both wholesale-like: no conflict.
	inc.RTM = "Spot Buy"
	c = score(ex, inc, 0.95)
	assert.NotContains(t, c.Reasons, "trade channel conflict")
}

func TestClassify_ReviewBand(t *testing.T) {
	cfg := DefaultConfig()

	c := Candidate{Score: 0.88, NameSim: 0.88}
	assert.Equal(t, classNeedsReview, classify(cfg, c))

	c = Candidate{Score: 0.92, NameSim: 0.80}
	assert.Equal(t, classAutoMerge, classify(cfg, c))

	c = Candidate{Score: 0.85, NameSim: 0.84}
	assert.Equal(t, classIgnore, classify(cfg, c))
}

func TestClassify_PostcodeAnchoredReview(t *testing.T) {
	cfg := DefaultConfig()

	// Borderline name with postcode anchor and a second corroborating
	// reason surfaces for review.
	c := Candidate{
		Score:   0.85,
		NameSim: 0.82,
		Reasons: []string{"postcode exact match", "town match"},
	}
	assert.Equal(t, classNeedsReview, classify(cfg, c))

	// Same name band without a second reason stays hidden.
	c.Reasons = []string{"postcode exact match"}
	assert.Equal(t, classIgnore, classify(cfg, c))
}

func TestClassify_ChannelConflictIsNotCorroboration(t *testing.T) {
	cfg := DefaultConfig()

	// The penalty reason must not satisfy the second-signal requirement:
	// a postcode anchor plus only a trade-channel conflict stays hidden.
	c := Candidate{
		Score:   0.84,
		NameSim: 0.84,
		Reasons: []string{"postcode exact match", "trade channel conflict"},
	}
	assert.Equal(t, classIgnore, classify(cfg, c))

	// A genuine second bonus alongside the penalty still surfaces.
	c.Reasons = []string{"postcode exact match", "town match", "trade channel conflict"}
	assert.Equal(t, classNeedsReview, classify(cfg, c))
}

func TestSuggest_BestCandidateOnly(t *testing.T) {
	existing := []model.Pub{
		{UUID: "a", Name: "Red Lion", Zip: "NR25 8PL", Town: "Holt"},
		{UUID: "b", Name: "Red Lion Hotel", Zip: "NR25 8PL"},
	}
	incoming := []model.Pub{{UUID: "c", Name: "Red Lion", Zip: "NR25 8PL", Town: "Holt"}}

	got := Suggest(existing, incoming)
	total := len(got.AutoMerge) + len(got.NeedsReview)
	require.Equal(t, 1, total, "one suggestion per incoming record")
	assert.Equal(t, "a", got.AutoMerge[0].Existing.UUID, "highest-scoring candidate wins")
}
