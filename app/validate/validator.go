package validate

import (
	"log/slog"

	"github.com/openrecordsets/schedproc/app/registry"
	"github.com/openrecordsets/schedproc/app/series"
)

// Validator enforces the schema invariants between normalization and
// deduplication. Structural violations drop the record with a rejection
// entry; ambiguity is flagged and the record proceeds. Nothing is ever
// silently altered to pass.
type Validator struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

func (v *Validator) Run(list []series.RetentionSeries, report *Report) []series.RetentionSeries {
	valid := make([]series.RetentionSeries, 0, len(list))
	rejected := 0

	for _, s := range list {
		if reason := v.reject(s); reason != "" {
			rejected++
			report.AddRejection(Rejection{
				DocumentID: sourceDocument(s),
				Locator:    sourceLocator(s),
				Title:      s.Title,
				Reason:     reason,
			})
			continue
		}

		if flags := v.flags(s); len(flags) > 0 {
			report.AddAnnotation(Annotation{
				SeriesID: s.ID,
				Title:    s.Title,
				Flags:    flags,
			})
		}

		valid = append(valid, s)
	}

	if rejected > 0 {
		slog.Warn("Records rejected during validation", "rejected", rejected, "passed", len(valid))
	}

	return valid
}

// reject returns a reason for hard schema violations, empty otherwise.
func (v *Validator) reject(s series.RetentionSeries) string {
	switch {
	case s.Jurisdiction == "":
		return "missing jurisdiction"
	case !v.registry.KnownJurisdiction(s.Jurisdiction):
		return "unknown jurisdiction: " + s.Jurisdiction
	case s.Agency == "":
		return "missing agency"
	case s.Title == "":
		return "missing title"
	case len(s.Provenance) == 0:
		return "missing provenance"
	}
	return ""
}

func (v *Validator) flags(s series.RetentionSeries) []Flag {
	var flags []Flag
	if s.Retention.Kind == series.PeriodUnspecified {
		flags = append(flags, FlagUnspecifiedPeriod)
	}
	if s.Trigger == series.TriggerUnspecified {
		flags = append(flags, FlagUnspecifiedTrigger)
	}
	if s.Disposition == series.DispositionUnspecified {
		flags = append(flags, FlagUnspecifiedDisposition)
	}
	if s.UnresolvedAgency {
		flags = append(flags, FlagUnresolvedAgency)
	}
	return flags
}

func sourceDocument(s series.RetentionSeries) string {
	if len(s.Provenance) > 0 {
		return s.Provenance[0].DocumentID
	}
	return ""
}

func sourceLocator(s series.RetentionSeries) string {
	if len(s.Provenance) > 0 {
		return s.Provenance[0].Locator
	}
	return ""
}
