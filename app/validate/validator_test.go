package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openrecordsets/schedproc/app/registry"
	"github.com/openrecordsets/schedproc/app/series"
)

func emptyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load("", "")
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	return reg
}

func validSeries() series.RetentionSeries {
	return series.RetentionSeries{
		ID:           "rs-0123456789ab",
		Jurisdiction: "va",
		Agency:       "Library of Virginia",
		Title:        "Minutes",
		Retention:    series.RetentionPeriod{Kind: series.PeriodPermanent},
		Trigger:      series.TriggerCreation,
		Disposition:  series.DispositionPermanent,
		Provenance: []series.Provenance{{
			DocumentID: "va-1",
			Extractor:  "html-table",
			Locator:    "table 1 row 2",
		}},
	}
}

func TestValidator_PassesValidRecord(t *testing.T) {
	validator := New(emptyRegistry(t))
	report := NewReport()

	out := validator.Run([]series.RetentionSeries{validSeries()}, report)

	if len(out) != 1 {
		t.Fatalf("Expected 1 record to pass, got %d", len(out))
	}
	if len(report.Rejections) != 0 {
		t.Errorf("Expected no rejections, got %d", len(report.Rejections))
	}
	if len(report.Annotations) != 0 {
		t.Errorf("Expected no annotations, got %d", len(report.Annotations))
	}
}

func TestValidator_HardRejections(t *testing.T) {
	validator := New(emptyRegistry(t))

	tests := []struct {
		name   string
		mutate func(*series.RetentionSeries)
		reason string
	}{
		{"missing jurisdiction", func(s *series.RetentionSeries) { s.Jurisdiction = "" }, "missing jurisdiction"},
		{"missing agency", func(s *series.RetentionSeries) { s.Agency = "" }, "missing agency"},
		{"missing title", func(s *series.RetentionSeries) { s.Title = "" }, "missing title"},
		{"missing provenance", func(s *series.RetentionSeries) { s.Provenance = nil }, "missing provenance"},
	}

	for _, test := range tests {
		report := NewReport()
		s := validSeries()
		test.mutate(&s)

		out := validator.Run([]series.RetentionSeries{s}, report)

		if len(out) != 0 {
			t.Errorf("%s: expected rejection, record passed", test.name)
			continue
		}
		if len(report.Rejections) != 1 {
			t.Errorf("%s: expected 1 rejection, got %d", test.name, len(report.Rejections))
			continue
		}
		if report.Rejections[0].Reason != test.reason {
			t.Errorf("%s: expected reason %q, got %q", test.name, test.reason, report.Rejections[0].Reason)
		}
	}
}

func TestValidator_UnknownJurisdiction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jurisdictions.yml")
	if err := os.WriteFile(path, []byte(`jurisdictions:
  - id: va
    name: Virginia
`), 0644); err != nil {
		t.Fatalf("Failed to write jurisdictions: %v", err)
	}
	reg, err := registry.Load("", path)
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	validator := New(reg)
	report := NewReport()

	s := validSeries()
	s.Jurisdiction = "zz"

	out := validator.Run([]series.RetentionSeries{s}, report)

	if len(out) != 0 {
		t.Errorf("Expected unknown jurisdiction to be rejected")
	}
	if len(report.Rejections) != 1 || report.Rejections[0].Reason != "unknown jurisdiction: zz" {
		t.Errorf("Expected unknown jurisdiction reason, got %+v", report.Rejections)
	}
}

func TestValidator_SoftFlags(t *testing.T) {
	validator := New(emptyRegistry(t))
	report := NewReport()

	s := validSeries()
	s.Retention = series.RetentionPeriod{Kind: series.PeriodUnspecified}
	s.Trigger = series.TriggerUnspecified
	s.Disposition = series.DispositionUnspecified
	s.UnresolvedAgency = true

	out := validator.Run([]series.RetentionSeries{s}, report)

	if len(out) != 1 {
		t.Fatalf("Expected flagged record to pass, got %d", len(out))
	}
	if len(report.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(report.Annotations))
	}

	flags := report.Annotations[0].Flags
	if len(flags) != 4 {
		t.Fatalf("Expected 4 flags, got %d: %v", len(flags), flags)
	}
	if report.FlagCounts[FlagUnspecifiedPeriod] != 1 {
		t.Errorf("Expected flag count for unspecified period")
	}
	if report.FlagCounts[FlagUnspecifiedTrigger] != 1 {
		t.Errorf("Expected flag count for unspecified trigger")
	}
	if report.FlagCounts[FlagUnresolvedAgency] != 1 {
		t.Errorf("Expected flag count for unresolved agency")
	}
}

func TestValidator_UnspecifiedTriggerFlagged(t *testing.T) {
	validator := New(emptyRegistry(t))
	report := NewReport()

	s := validSeries()
	s.Retention = series.RetentionPeriod{Kind: series.PeriodDuration, Amount: 3, Unit: series.UnitYears}
	s.Trigger = series.TriggerUnspecified
	s.Disposition = series.DispositionDestroy

	out := validator.Run([]series.RetentionSeries{s}, report)

	if len(out) != 1 {
		t.Fatalf("Expected record to pass, got %d", len(out))
	}
	if len(report.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation for unspecified trigger, got %d", len(report.Annotations))
	}
	flags := report.Annotations[0].Flags
	if len(flags) != 1 || flags[0] != FlagUnspecifiedTrigger {
		t.Errorf("Expected only the unspecified trigger flag, got %v", flags)
	}
}

func TestReport_FinishSortsEntries(t *testing.T) {
	report := NewReport()

	report.AddRejection(Rejection{DocumentID: "zz", Reason: "missing title"})
	report.AddRejection(Rejection{DocumentID: "aa", Reason: "missing title"})
	report.AddConflict(ConflictEntry{SeriesID: "rs-b", Field: "citation"})
	report.AddConflict(ConflictEntry{SeriesID: "rs-a", Field: "citation"})

	report.Finish(10)

	if report.SeriesWritten != 10 {
		t.Errorf("Expected series count, got %d", report.SeriesWritten)
	}
	if report.FinishedAt == "" {
		t.Errorf("Expected finish timestamp")
	}
	if report.Rejections[0].DocumentID != "aa" {
		t.Errorf("Expected rejections sorted by document id")
	}
	if report.Conflicts[0].SeriesID != "rs-a" {
		t.Errorf("Expected conflicts sorted by series id")
	}
}
