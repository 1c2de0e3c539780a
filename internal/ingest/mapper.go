// Package ingest turns uploaded spreadsheet rows into pub records: it
// matches headers against canonical field synonyms, snapshots every cell
// into the row's source lineage, and stamps the list-level scheduling
// intent onto each record.
package ingest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tapline/visitplanner/internal/lineage"
	"github.com/tapline/visitplanner/internal/model"
)

// Canonical field names the mapper recognizes.
const (
	FieldName     = "name"
	FieldPostcode = "postcode"
	FieldRTM      = "rtm"
	FieldAddress  = "address"
	FieldTown     = "town"
	FieldLat      = "lat"
	FieldLng      = "lng"
	FieldPhone    = "phone"
	FieldEmail    = "email"
	FieldNotes    = "notes"
)

// headerSynonyms maps canonical fields to the header spellings seen in the
// wild. Matching is case-insensitive on the squashed (space-free) form.
var headerSynonyms = map[string][]string{
	FieldName:     {"name", "pub", "pubname", "venue", "account", "accountname", "site"},
	FieldPostcode: {"postcode", "post code", "postalcode", "zip", "zipcode", "pc"},
	FieldRTM:      {"rtm", "routetomarket", "route to market", "channel"},
	FieldAddress:  {"address", "address1", "addressline1", "street"},
	FieldTown:     {"town", "city", "locality"},
	FieldLat:      {"lat", "latitude"},
	FieldLng:      {"lng", "lon", "long", "longitude"},
	FieldPhone:    {"phone", "telephone", "tel", "mobile", "phonenumber"},
	FieldEmail:    {"email", "emailaddress", "e-mail"},
	FieldNotes:    {"notes", "note", "comments", "remarks"},
}

// ListConfig is the per-file scheduling configuration supplied at upload
// time. Exactly one of Deadline / FollowUpDays / PriorityLevel matches
// Mode; the others are ignored.
type ListConfig struct {
	FileID        string
	FileName      string
	ListType      model.ListType
	Mode          model.SchedulingMode
	Deadline      string // ISO date, Mode == deadline
	FollowUpDays  int    // Mode == followup
	PriorityLevel int    // Mode == priority
}

// MapHeader resolves each header cell to a canonical field name. The
// returned map is column index -> canonical field; unmatched columns are
// absent and flow into record extras.
func MapHeader(header []string) map[int]string {
	bySynonym := make(map[string]string)
	for field, syns := range headerSynonyms {
		for _, s := range syns {
			bySynonym[squash(s)] = field
		}
	}

	out := make(map[int]string)
	claimed := make(map[string]bool)
	for i, cell := range header {
		field, ok := bySynonym[squash(cell)]
		if !ok || claimed[field] {
			continue
		}
		out[i] = field
		claimed[field] = true
	}
	return out
}

// MapRows builds one record per non-empty row. Each record gets a fresh
// UUID, a SourceRef capturing the row's contribution, and the list-level
// scheduling intent.
func MapRows(header []string, rows [][]string, cfg ListConfig) []model.Pub {
	fields := MapHeader(header)

	var pubs []model.Pub
	for rowIdx, row := range rows {
		mapped := make(map[string]string)
		extras := make(map[string]string)
		empty := true
		for col, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			empty = false
			if field, ok := fields[col]; ok {
				mapped[field] = cell
			} else if col < len(header) {
				key := strings.ToLower(strings.TrimSpace(header[col]))
				if key != "" {
					extras[key] = cell
				}
			}
		}
		if empty {
			continue
		}

		p := model.Pub{
			UUID:     uuid.NewString(),
			Name:     mapped[FieldName],
			Zip:      mapped[FieldPostcode],
			RTM:      mapped[FieldRTM],
			Address:  mapped[FieldAddress],
			Town:     mapped[FieldTown],
			Lat:      mapped[FieldLat],
			Lng:      mapped[FieldLng],
			Phone:    mapped[FieldPhone],
			Email:    mapped[FieldEmail],
			Notes:    mapped[FieldNotes],
			ListType: cfg.ListType,
		}
		applyIntent(&p, cfg)

		ref := model.SourceRef{
			SourceID:       p.UUID,
			FileID:         cfg.FileID,
			FileName:       cfg.FileName,
			RowIndex:       rowIdx,
			SchedulingMode: cfg.Mode,
			Priority:       p.PriorityLevel,
			Deadline:       p.Deadline,
			FollowUpDays:   p.FollowUpDays,
			Mapped:         mapped,
			Extras:         extras,
		}
		p.Sources = []model.SourceRef{ref}
		p.FieldValuesBySource = make(map[string][]model.FieldValue, len(mapped))
		for field, value := range mapped {
			p.FieldValuesBySource[field] = []model.FieldValue{{SourceID: p.UUID, Value: value}}
		}
		if len(extras) > 0 {
			p.MergedExtras = make(map[string][]model.FieldValue, len(extras))
			for key, value := range extras {
				p.MergedExtras[key] = []model.FieldValue{{SourceID: p.UUID, Value: value}}
			}
		}
		if cfg.FileName != "" {
			p.SourceLists = []string{cfg.FileName}
		}
		p.EffectivePlan = lineage.ComputeEffectivePlan(p.Sources)

		pubs = append(pubs, p)
	}
	return pubs
}

func applyIntent(p *model.Pub, cfg ListConfig) {
	switch cfg.Mode {
	case model.ModeDeadline:
		p.Deadline = cfg.Deadline
	case model.ModeFollowUp:
		p.FollowUpDays = cfg.FollowUpDays
	case model.ModePriority:
		p.PriorityLevel = cfg.PriorityLevel
	}
}

func squash(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}
