package lineage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapline/visitplanner/internal/model"
)

func incomingRow(id, fileName, deadline string, priority, followUp int) model.Pub {
	return model.Pub{
		UUID:          id,
		Name:          "Red Lion",
		Zip:           "NR25 8PL",
		Deadline:      deadline,
		PriorityLevel: priority,
		FollowUpDays:  followUp,
		Sources: []model.SourceRef{{
			SourceID:     id,
			FileID:       fileName + "-id",
			FileName:     fileName,
			Deadline:     deadline,
			Priority:     priority,
			FollowUpDays: followUp,
		}},
	}
}

func TestMerge_AppendOnly(t *testing.T) {
	canonical := incomingRow("base", "Masterfile", "", 0, 0)
	canonical.SourceLists = []string{"Masterfile"}

	const merges = 4
	current := canonical
	for i := 0; i < merges; i++ {
		inc := incomingRow(fmt.Sprintf("row-%d", i), fmt.Sprintf("wins-%d.xlsx", i), "", 0, 0)
		mapped := map[string]string{"name": "Red Lion", "postcode": "NR25 8PL"}
		before := current
		current = Merge(current, inc, i, mapped, map[string]string{"rep": "north"})

		// Inputs untouched.
		assert.Len(t, before.Sources, 1+i)
		assert.Len(t, inc.Sources, 1)

		// Every earlier entry still present, unchanged.
		require.Len(t, current.Sources, 2+i)
		for j, src := range before.Sources {
			assert.Equal(t, src, current.Sources[j])
		}
	}

	assert.Len(t, current.Sources, 1+merges)
	assert.Len(t, current.FieldValuesBySource["name"], merges, "one audit entry per merged source")
	assert.Len(t, current.MergedExtras["rep"], merges)
	assert.Contains(t, current.SourceLists, "Masterfile")
	assert.Contains(t, current.SourceLists, "wins-0.xlsx")
}

func TestMerge_EffectivePlanRecomputedAcrossAllSources(t *testing.T) {
	canonical := incomingRow("base", "deadlines.xlsx", "2026-09-10", 0, 0)

	// Later source carries an earlier deadline: it must win.
	inc := incomingRow("row-1", "urgent.xlsx", "2026-09-02", 0, 0)
	merged := Merge(canonical, inc, 0, nil, nil)

	require.NotNil(t, merged.EffectivePlan)
	assert.Equal(t, "2026-09-02", merged.EffectivePlan.Deadline)
	assert.Equal(t, model.ModeDeadline, merged.EffectivePlan.PrimaryMode)
	assert.ElementsMatch(t, []string{"deadlines.xlsx", "urgent.xlsx"}, merged.EffectivePlan.ListNames)
}

func TestComputeEffectivePlan_Precedence(t *testing.T) {
	sources := []model.SourceRef{
		{SourceID: "a", FileName: "priority.xlsx", Priority: 2},
		{SourceID: "b", FileName: "followup.xlsx", FollowUpDays: 14},
	}
	plan := ComputeEffectivePlan(sources)
	assert.Equal(t, model.ModeFollowUp, plan.PrimaryMode, "followup outranks priority")
	assert.Equal(t, 14, plan.FollowUpDays)
	assert.Equal(t, 2, plan.PriorityLevel)

	sources = append(sources, model.SourceRef{SourceID: "c", FileName: "deadline.xlsx", Deadline: "2026-09-01"})
	plan = ComputeEffectivePlan(sources)
	assert.Equal(t, model.ModeDeadline, plan.PrimaryMode, "deadline outranks everything")
}

func TestComputeEffectivePlan_Winners(t *testing.T) {
	sources := []model.SourceRef{
		{SourceID: "a", Deadline: "2026-09-10", Priority: 3, FollowUpDays: 30},
		{SourceID: "b", Deadline: "2026-09-02", Priority: 1, FollowUpDays: 7},
		{SourceID: "c", Deadline: "2026-12-01", Priority: 2, FollowUpDays: 21},
	}
	plan := ComputeEffectivePlan(sources)
	assert.Equal(t, "2026-09-02", plan.Deadline, "earliest deadline wins")
	assert.Equal(t, 1, plan.PriorityLevel, "highest priority (lowest number) wins")
	assert.Equal(t, 7, plan.FollowUpDays, "smallest follow-up window wins")
}

func TestComputeEffectivePlan_MasterFallback(t *testing.T) {
	plan := ComputeEffectivePlan([]model.SourceRef{{SourceID: "a", FileName: "master.xlsx"}})
	assert.Equal(t, model.ModeMaster, plan.PrimaryMode)
	assert.Empty(t, plan.Deadline)
}

func TestCanonicalFieldValue_FirstRecorded(t *testing.T) {
	p := model.Pub{FieldValuesBySource: map[string][]model.FieldValue{
		"phone": {
			{SourceID: "a", Value: "01263 712318"},
			{SourceID: "b", Value: "01263 000000"},
		},
	}}
	assert.Equal(t, "01263 712318", CanonicalFieldValue(p, "phone"))
	assert.Empty(t, CanonicalFieldValue(p, "email"))
}

func TestCollectSources_MasterfileFirst(t *testing.T) {
	pubs := []model.Pub{
		{SourceLists: []string{"wins.xlsx", "Masterfile"}},
		{Sources: []model.SourceRef{{FileName: "hitlist.xlsx"}, {FileName: "april.xlsx"}}},
	}
	got := CollectSources(pubs)
	assert.Equal(t, []string{"Masterfile", "april.xlsx", "hitlist.xlsx", "wins.xlsx"}, got)
}
