// Package lineage maintains the append-only provenance of canonical
// records: merging an incoming row adds a new source, it never deletes or
// overwrites what earlier sources contributed. The effective scheduling
// plan is recomputed from the union of all sources after every merge.
package lineage

import (
	"sort"
	"strings"
	"time"

	"github.com/tapline/visitplanner/internal/model"
)

// MasterfileName is the ground-truth list. CollectSources always places it
// first regardless of alphabetical order.
const MasterfileName = "Masterfile"

// NewSourceRef captures one ingested row's contribution: its scheduling
// intent, the canonical-field snapshot, and any unmapped extra columns.
func NewSourceRef(incoming model.Pub, rowIndex int, mapped, extras map[string]string) model.SourceRef {
	fileID, fileName := "", ""
	if len(incoming.Sources) > 0 {
		fileID = incoming.Sources[0].FileID
		fileName = incoming.Sources[0].FileName
	}
	mode := schedulingModeOf(incoming)
	return model.SourceRef{
		SourceID:       incoming.UUID,
		FileID:         fileID,
		FileName:       fileName,
		RowIndex:       rowIndex,
		SchedulingMode: mode,
		Priority:       incoming.PriorityLevel,
		Deadline:       incoming.Deadline,
		FollowUpDays:   incoming.FollowUpDays,
		Mapped:         copyMap(mapped),
		Extras:         copyMap(extras),
	}
}

// Merge appends the incoming record as a new source on the canonical
// record and recomputes its effective plan. Pure: both inputs are left
// untouched and a new record is returned.
func Merge(canonical, incoming model.Pub, rowIndex int, mapped, extras map[string]string) model.Pub {
	out := canonical.Clone()

	ref := NewSourceRef(incoming, rowIndex, mapped, extras)
	out.Sources = append(out.Sources, ref)

	if out.FieldValuesBySource == nil {
		out.FieldValuesBySource = make(map[string][]model.FieldValue)
	}
	for field, value := range mapped {
		out.FieldValuesBySource[field] = append(out.FieldValuesBySource[field],
			model.FieldValue{SourceID: ref.SourceID, Value: value})
	}

	if len(extras) > 0 && out.MergedExtras == nil {
		out.MergedExtras = make(map[string][]model.FieldValue)
	}
	for key, value := range extras {
		out.MergedExtras[key] = append(out.MergedExtras[key],
			model.FieldValue{SourceID: ref.SourceID, Value: value})
	}

	out.SourceLists = unionStrings(out.SourceLists, incoming.SourceLists)
	if ref.FileName != "" {
		out.SourceLists = unionStrings(out.SourceLists, []string{ref.FileName})
	}

	out.EffectivePlan = ComputeEffectivePlan(out.Sources)
	return out
}

// ComputeEffectivePlan derives the winning scheduling intent from the
// union of all sources: earliest deadline, highest positive priority
// (lowest number), smallest positive follow-up window. PrimaryMode follows
// the fixed precedence deadline > followup > priority > master.
func ComputeEffectivePlan(sources []model.SourceRef) *model.EffectivePlan {
	plan := &model.EffectivePlan{PrimaryMode: model.ModeMaster}
	for _, src := range sources {
		if src.Deadline != "" && (plan.Deadline == "" || dateBefore(src.Deadline, plan.Deadline)) {
			plan.Deadline = src.Deadline
		}
		if src.Priority > 0 && (plan.PriorityLevel == 0 || src.Priority < plan.PriorityLevel) {
			plan.PriorityLevel = src.Priority
		}
		if src.FollowUpDays > 0 && (plan.FollowUpDays == 0 || src.FollowUpDays < plan.FollowUpDays) {
			plan.FollowUpDays = src.FollowUpDays
		}
		if src.FileName != "" {
			plan.ListNames = unionStrings(plan.ListNames, []string{src.FileName})
		}
	}

	switch {
	case plan.Deadline != "":
		plan.PrimaryMode = model.ModeDeadline
	case plan.FollowUpDays > 0:
		plan.PrimaryMode = model.ModeFollowUp
	case plan.PriorityLevel > 0:
		plan.PrimaryMode = model.ModePriority
	}
	return plan
}

// CanonicalFieldValue returns the value to display for a field. The rule
// is simply "first recorded value": the intended masterhouse -> majority ->
// earliest precedence chain is not implemented, because per-source
// list-type provenance is not yet captured across all imported data.
func CanonicalFieldValue(p model.Pub, field string) string {
	vs := p.FieldValuesBySource[field]
	if len(vs) == 0 {
		return ""
	}
	return vs[0].Value
}

// CollectSources unions the source list names and per-source file names of
// a set of records, sorted alphabetically except that the Masterfile
// always comes first.
func CollectSources(pubs []model.Pub) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, p := range pubs {
		for _, l := range p.SourceLists {
			add(l)
		}
		for _, s := range p.Sources {
			add(s.FileName)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == MasterfileName {
			return names[j] != MasterfileName
		}
		if names[j] == MasterfileName {
			return false
		}
		return names[i] < names[j]
	})
	return names
}

func schedulingModeOf(p model.Pub) model.SchedulingMode {
	if len(p.Sources) > 0 && p.Sources[0].SchedulingMode != "" {
		return p.Sources[0].SchedulingMode
	}
	switch {
	case p.Deadline != "":
		return model.ModeDeadline
	case p.FollowUpDays > 0:
		return model.ModeFollowUp
	case p.PriorityLevel > 0:
		return model.ModePriority
	}
	return ""
}

// dateBefore compares ISO dates, falling back to a plain string compare
// for values that do not parse.
func dateBefore(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return strings.Compare(a, b) < 0
}

func unionStrings(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	out := base
	for _, s := range extra {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
