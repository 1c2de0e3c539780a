// Package model defines the shared domain types for the visit planner:
// canonical pub records, their source lineage, effective scheduling plans,
// and the day-by-day schedule output.
package model

// ListType identifies which kind of list a record (or file) belongs to.
type ListType string

const (
	ListTypeMasterhouse ListType = "masterhouse"
	ListTypeWins        ListType = "wins"
	ListTypeHitlist     ListType = "hitlist"
	ListTypeUnvisited   ListType = "unvisited"
)

// SchedulingMode describes the scheduling intent attached to a list or source.
type SchedulingMode string

const (
	ModeDeadline SchedulingMode = "deadline"
	ModeFollowUp SchedulingMode = "followup"
	ModePriority SchedulingMode = "priority"
	ModeMaster   SchedulingMode = "master"
)

// SourceRef is one immutable record of a single ingested row's contribution
// to a canonical Pub. Sources are append-only: once recorded they are never
// modified or removed, so the origin of every field value stays auditable.
type SourceRef struct {
	SourceID       string            `json:"source_id"`
	FileID         string            `json:"file_id"`
	FileName       string            `json:"file_name"`
	RowIndex       int               `json:"row_index"`
	SchedulingMode SchedulingMode    `json:"scheduling_mode,omitempty"`
	Priority       int               `json:"priority,omitempty"`
	Deadline       string            `json:"deadline,omitempty"`
	FollowUpDays   int               `json:"follow_up_days,omitempty"`
	Mapped         map[string]string `json:"mapped,omitempty"`
	Extras         map[string]string `json:"extras,omitempty"`
}

// FieldValue records one value a particular source supplied for a field.
type FieldValue struct {
	SourceID string `json:"source_id"`
	Value    string `json:"value"`
}

// EffectivePlan is the scheduling intent currently governing a canonical
// record, recomputed from the union of all its sources. It is derived
// state, never independently edited.
type EffectivePlan struct {
	Deadline      string         `json:"deadline,omitempty"`       // earliest across all sources
	PriorityLevel int            `json:"priority_level,omitempty"` // highest across all sources (1 = top)
	FollowUpDays  int            `json:"follow_up_days,omitempty"` // smallest positive across all sources
	PrimaryMode   SchedulingMode `json:"primary_mode"`
	ListNames     []string       `json:"list_names,omitempty"`
}

// Pub is the long-lived canonical record for one real-world venue. It may
// aggregate rows from several imported lists; lineage fields record every
// contribution.
type Pub struct {
	UUID string `json:"uuid"`

	Name        string `json:"pub"`
	Zip         string `json:"zip"`
	RTM         string `json:"rtm,omitempty"`
	Address     string `json:"address,omitempty"`
	Town        string `json:"town,omitempty"`
	Lat         string `json:"lat,omitempty"`
	Lng         string `json:"lng,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Notes       string `json:"notes,omitempty"`
	LastVisited string `json:"last_visited,omitempty"`
	Landlord    string `json:"landlord,omitempty"`

	// Scheduling intent as imported; superseded by EffectivePlan once the
	// record has merged sources. Zero values mean "not set".
	Deadline      string   `json:"deadline,omitempty"`
	PriorityLevel int      `json:"priority_level,omitempty"`
	FollowUpDays  int      `json:"follow_up_days,omitempty"`
	ListType      ListType `json:"list_type,omitempty"`

	// Lineage. Sources only grows; merge never deletes or overwrites an
	// entry.
	Sources             []SourceRef             `json:"sources,omitempty"`
	FieldValuesBySource map[string][]FieldValue `json:"field_values_by_source,omitempty"`
	MergedExtras        map[string][]FieldValue `json:"merged_extras,omitempty"`
	SourceLists         []string                `json:"source_lists,omitempty"`
	EffectivePlan       *EffectivePlan          `json:"effective_plan,omitempty"`
}

// Clone returns a deep copy of the record. Merge operations work on copies
// so that callers' inputs are never mutated.
func (p Pub) Clone() Pub {
	out := p
	if p.Sources != nil {
		out.Sources = make([]SourceRef, len(p.Sources))
		copy(out.Sources, p.Sources)
	}
	if p.SourceLists != nil {
		out.SourceLists = append([]string(nil), p.SourceLists...)
	}
	out.FieldValuesBySource = cloneFieldValues(p.FieldValuesBySource)
	out.MergedExtras = cloneFieldValues(p.MergedExtras)
	if p.EffectivePlan != nil {
		ep := *p.EffectivePlan
		ep.ListNames = append([]string(nil), p.EffectivePlan.ListNames...)
		out.EffectivePlan = &ep
	}
	return out
}

func cloneFieldValues(in map[string][]FieldValue) map[string][]FieldValue {
	if in == nil {
		return nil
	}
	out := make(map[string][]FieldValue, len(in))
	for k, vs := range in {
		out[k] = append([]FieldValue(nil), vs...)
	}
	return out
}
