package dedupe

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/araddon/dateparse"

	"github.com/openrecordsets/schedproc/app/series"
	"github.com/openrecordsets/schedproc/app/validate"
)

// Result is the merged corpus plus the audit trail of what merging changed.
type Result struct {
	Series              []series.RetentionSeries
	Conflicts           []validate.ConflictEntry
	DuplicatesMerged    int
	ModelScheduleGroups int
}

// Run folds records that share an identity into one record per identity.
// Records never merge across identities, no matter how similar they look:
// two agencies adopting the same model schedule keep separate records, and
// the shared wording is only surfaced through the model schedule count.
func Run(list []series.RetentionSeries) *Result {
	groups := make(map[string][]series.RetentionSeries)
	order := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := groups[s.ID]; !ok {
			order = append(order, s.ID)
		}
		groups[s.ID] = append(groups[s.ID], s)
	}

	result := &Result{
		Series: make([]series.RetentionSeries, 0, len(order)),
	}
	for _, id := range order {
		group := groups[id]
		if len(group) == 1 {
			merged := group[0]
			sortProvenance(merged.Provenance)
			result.Series = append(result.Series, merged)
			continue
		}
		result.DuplicatesMerged += len(group) - 1
		result.Series = append(result.Series, mergeGroup(group, result))
	}

	sort.Slice(result.Series, func(i, j int) bool {
		return result.Series[i].ID < result.Series[j].ID
	})
	result.ModelScheduleGroups = countModelGroups(result.Series)

	slog.Debug("deduplicated series",
		"in", len(list),
		"out", len(result.Series),
		"merged", result.DuplicatesMerged,
		"conflicts", len(result.Conflicts))

	return result
}

// mergeGroup collapses records with the same identity. The record from the
// most recently retrieved document is the base; older records fill in fields
// the base left empty. A field that is set on both sides with different
// values is a conflict: the newer value stays, and the discarded value is
// recorded both in the run report and on the losing provenance entry.
func mergeGroup(group []series.RetentionSeries, result *Result) series.RetentionSeries {
	sort.SliceStable(group, func(i, j int) bool {
		ti, tj := retrievalTime(group[i]), retrievalTime(group[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return sourceDocument(group[i]) > sourceDocument(group[j])
	})

	merged := group[0]
	merged.Provenance = append([]series.Provenance(nil), group[0].Provenance...)

	// fieldSource tracks which document a kept value actually came from, so
	// conflict entries stay accurate when a field was filled in by an older
	// record and an even older one later disagrees with it.
	fieldSource := make(map[string]string)

	for _, older := range group[1:] {
		notes := make(map[int][]string)
		for _, f := range compareFields(&merged, &older) {
			if f.keptEmpty {
				if !f.olderEmpty {
					f.adopt(&merged)
					fieldSource[f.name] = sourceDocument(older)
				}
				continue
			}
			if f.olderEmpty || f.equal {
				continue
			}
			keptSource := fieldSource[f.name]
			if keptSource == "" {
				keptSource = sourceDocument(group[0])
			}
			result.Conflicts = append(result.Conflicts, validate.ConflictEntry{
				SeriesID:        merged.ID,
				Field:           f.name,
				Kept:            f.kept,
				Discarded:       f.discarded,
				KeptSource:      keptSource,
				DiscardedSource: sourceDocument(older),
			})
			for i := range older.Provenance {
				notes[i] = append(notes[i],
					fmt.Sprintf("%s %q superseded by %q from %s", f.name, f.discarded, f.kept, keptSource))
			}
		}

		if older.Description != "" && len(older.Description) > len(merged.Description) {
			merged.Description = older.Description
		}
		if merged.RetentionText == "" {
			merged.RetentionText = older.RetentionText
		}
		if merged.ScheduleType == "" {
			merged.ScheduleType = older.ScheduleType
		}
		if !merged.Confidential && older.Confidential {
			merged.Confidential = true
		}
		if merged.UnresolvedAgency && !older.UnresolvedAgency {
			merged.Agency = older.Agency
			merged.AgencyCode = older.AgencyCode
			merged.UnresolvedAgency = false
		}

		for i, p := range older.Provenance {
			if msgs, ok := notes[i]; ok {
				for _, msg := range msgs {
					if p.Note != "" {
						p.Note += "; "
					}
					p.Note += msg
				}
			}
			merged.Provenance = append(merged.Provenance, p)
		}
	}

	sortProvenance(merged.Provenance)
	return merged
}

// field is one mergeable attribute of a series record, captured on both
// sides of a merge so the fold loop stays flat.
type field struct {
	name       string
	kept       string
	discarded  string
	keptEmpty  bool
	olderEmpty bool
	equal      bool
	adopt      func(*series.RetentionSeries)
}

func compareFields(merged, older *series.RetentionSeries) []field {
	o := *older
	fields := []field{
		{
			name:       "retention",
			kept:       merged.Retention.String(),
			discarded:  o.Retention.String(),
			keptEmpty:  merged.Retention.Kind == series.PeriodUnspecified,
			olderEmpty: o.Retention.Kind == series.PeriodUnspecified,
			equal:      merged.Retention.Equal(o.Retention),
			adopt: func(s *series.RetentionSeries) {
				s.Retention = o.Retention
				if s.RetentionText == "" {
					s.RetentionText = o.RetentionText
				}
			},
		},
		{
			name:       "trigger",
			kept:       string(merged.Trigger),
			discarded:  string(o.Trigger),
			keptEmpty:  merged.Trigger == series.TriggerUnspecified,
			olderEmpty: o.Trigger == series.TriggerUnspecified,
			equal:      merged.Trigger == o.Trigger,
			adopt:      func(s *series.RetentionSeries) { s.Trigger = o.Trigger },
		},
		{
			name:       "disposition",
			kept:       string(merged.Disposition),
			discarded:  string(o.Disposition),
			keptEmpty:  merged.Disposition == series.DispositionUnspecified,
			olderEmpty: o.Disposition == series.DispositionUnspecified,
			equal:      merged.Disposition == o.Disposition,
			adopt:      func(s *series.RetentionSeries) { s.Disposition = o.Disposition },
		},
		{
			name:       "citation",
			kept:       merged.Citation,
			discarded:  o.Citation,
			keptEmpty:  merged.Citation == "",
			olderEmpty: o.Citation == "",
			equal:      merged.Citation == o.Citation,
			adopt:      func(s *series.RetentionSeries) { s.Citation = o.Citation },
		},
		{
			name:       "series_number",
			kept:       merged.SeriesNumber,
			discarded:  o.SeriesNumber,
			keptEmpty:  merged.SeriesNumber == "",
			olderEmpty: o.SeriesNumber == "",
			equal:      merged.SeriesNumber == o.SeriesNumber,
			adopt:      func(s *series.RetentionSeries) { s.SeriesNumber = o.SeriesNumber },
		},
		{
			name:       "effective_date",
			kept:       merged.EffectiveDate,
			discarded:  o.EffectiveDate,
			keptEmpty:  merged.EffectiveDate == "",
			olderEmpty: o.EffectiveDate == "",
			equal:      merged.EffectiveDate == o.EffectiveDate,
			adopt:      func(s *series.RetentionSeries) { s.EffectiveDate = o.EffectiveDate },
		},
		{
			name:       "schedule_id",
			kept:       merged.ScheduleID,
			discarded:  o.ScheduleID,
			keptEmpty:  merged.ScheduleID == "",
			olderEmpty: o.ScheduleID == "",
			equal:      merged.ScheduleID == o.ScheduleID,
			adopt:      func(s *series.RetentionSeries) { s.ScheduleID = o.ScheduleID },
		},
	}
	return fields
}

// retrievalTime reads the retrieval timestamp off a record's first
// provenance entry. Records the pipeline hands in have exactly one entry;
// anything unparseable sorts as oldest so a dated source always wins.
func retrievalTime(s series.RetentionSeries) time.Time {
	if len(s.Provenance) == 0 {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s.Provenance[0].RetrievedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

func sourceDocument(s series.RetentionSeries) string {
	if len(s.Provenance) == 0 {
		return ""
	}
	return s.Provenance[0].DocumentID
}

func sortProvenance(entries []series.Provenance) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DocumentID != entries[j].DocumentID {
			return entries[i].DocumentID < entries[j].DocumentID
		}
		return entries[i].Locator < entries[j].Locator
	})
}

// countModelGroups counts clusters of distinct series that state the same
// rule: same normalized title, period, trigger and disposition under
// different identities. A statewide model schedule adopted by many county
// offices shows up here instead of being merged away.
func countModelGroups(list []series.RetentionSeries) int {
	keys := make(map[string]int)
	for i := range list {
		keys[list[i].SimilarityKey()]++
	}
	groups := 0
	for _, n := range keys {
		if n > 1 {
			groups++
		}
	}
	return groups
}
