package dedupe

import (
	"strings"
	"testing"

	"github.com/openrecordsets/schedproc/app/series"
)

func testSeries(id, docID, retrievedAt string) series.RetentionSeries {
	return series.RetentionSeries{
		ID:           id,
		Jurisdiction: "us/va",
		Agency:       "Library of Virginia",
		AgencyCode:   "LVA",
		Title:        "Payroll Registers",
		Retention:    series.RetentionPeriod{Kind: series.PeriodDuration, Amount: 5, Unit: series.UnitYears},
		Trigger:      series.TriggerFiscalYearEnd,
		Disposition:  series.DispositionDestroy,
		Provenance: []series.Provenance{
			{DocumentID: docID, RetrievedAt: retrievedAt, Extractor: "pdf", Locator: "page 1 row 1"},
		},
	}
}

func TestRun_MergesSameIdentity(t *testing.T) {
	newer := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2021", "2021-06-01")
	newer.Citation = "Code of Virginia 42.1-85"
	older := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2016", "2016-02-10")
	older.Description = "Registers documenting gross and net pay for all agency employees."

	result := Run([]series.RetentionSeries{newer, older})

	if len(result.Series) != 1 {
		t.Fatalf("Expected 1 merged series, got %d", len(result.Series))
	}
	if result.DuplicatesMerged != 1 {
		t.Errorf("Expected 1 duplicate merged, got %d", result.DuplicatesMerged)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %v", result.Conflicts)
	}

	merged := result.Series[0]
	if merged.Citation != "Code of Virginia 42.1-85" {
		t.Errorf("Expected citation from newer source, got %q", merged.Citation)
	}
	if merged.Description != older.Description {
		t.Errorf("Expected description filled from older source, got %q", merged.Description)
	}
	if len(merged.Provenance) != 2 {
		t.Fatalf("Expected 2 provenance entries, got %d", len(merged.Provenance))
	}
	if merged.Provenance[0].DocumentID != "va-gs-101-2016" || merged.Provenance[1].DocumentID != "va-gs-101-2021" {
		t.Errorf("Expected provenance sorted by document id, got %q then %q",
			merged.Provenance[0].DocumentID, merged.Provenance[1].DocumentID)
	}
}

func TestRun_ConflictKeepsNewerValue(t *testing.T) {
	newer := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2021", "2021-06-01")
	newer.Citation = "Code of Virginia 42.1-85"
	older := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2016", "2016-02-10")
	older.Citation = "Code of Virginia 42.1-82"

	result := Run([]series.RetentionSeries{older, newer})

	merged := result.Series[0]
	if merged.Citation != "Code of Virginia 42.1-85" {
		t.Errorf("Expected newer citation kept, got %q", merged.Citation)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.Field != "citation" {
		t.Errorf("Expected conflict on citation, got %q", c.Field)
	}
	if c.Kept != "Code of Virginia 42.1-85" || c.Discarded != "Code of Virginia 42.1-82" {
		t.Errorf("Expected kept/discarded values recorded, got %q / %q", c.Kept, c.Discarded)
	}
	if c.KeptSource != "va-gs-101-2021" || c.DiscardedSource != "va-gs-101-2016" {
		t.Errorf("Expected sources recorded, got %q / %q", c.KeptSource, c.DiscardedSource)
	}

	var losing *series.Provenance
	for i := range merged.Provenance {
		if merged.Provenance[i].DocumentID == "va-gs-101-2016" {
			losing = &merged.Provenance[i]
		}
	}
	if losing == nil {
		t.Fatal("Expected losing provenance entry retained")
	}
	if !strings.Contains(losing.Note, "superseded") || !strings.Contains(losing.Note, "42.1-82") {
		t.Errorf("Expected discarded value noted on losing provenance, got %q", losing.Note)
	}
}

func TestRun_TieBreakByDocumentID(t *testing.T) {
	a := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-a", "2021-06-01")
	a.Citation = "Code of Virginia 42.1-82"
	b := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-b", "2021-06-01")
	b.Citation = "Code of Virginia 42.1-85"

	result := Run([]series.RetentionSeries{a, b})

	if got := result.Series[0].Citation; got != "Code of Virginia 42.1-85" {
		t.Errorf("Expected lexicographically larger document to win the tie, got citation %q", got)
	}
}

func TestRun_FillsUnspecifiedWithoutConflict(t *testing.T) {
	newer := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2021", "2021-06-01")
	newer.Retention = series.RetentionPeriod{Kind: series.PeriodUnspecified}
	newer.Trigger = series.TriggerUnspecified
	newer.RetentionText = ""
	older := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2016", "2016-02-10")
	older.RetentionText = "5 years after end of fiscal year"

	result := Run([]series.RetentionSeries{newer, older})

	merged := result.Series[0]
	if merged.Retention.Kind != series.PeriodDuration || merged.Retention.Amount != 5 {
		t.Errorf("Expected retention filled from older source, got %+v", merged.Retention)
	}
	if merged.Trigger != series.TriggerFiscalYearEnd {
		t.Errorf("Expected trigger filled from older source, got %q", merged.Trigger)
	}
	if merged.RetentionText != "5 years after end of fiscal year" {
		t.Errorf("Expected retention text carried over, got %q", merged.RetentionText)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Expected no conflicts when filling empty fields, got %v", result.Conflicts)
	}
}

func TestRun_NeverMergesAcrossIdentities(t *testing.T) {
	a := testSeries("rs-0a1b2c3d4e5f", "va-gs-101-2021", "2021-06-01")
	b := testSeries("rs-9f8e7d6c5b4a", "ffx-clk-2020", "2020-03-01")
	b.Agency = "Fairfax County Clerk"
	b.AgencyCode = "FFX-CLK"

	result := Run([]series.RetentionSeries{a, b})

	if len(result.Series) != 2 {
		t.Fatalf("Expected 2 series for distinct identities, got %d", len(result.Series))
	}
	if result.DuplicatesMerged != 0 {
		t.Errorf("Expected no duplicates merged, got %d", result.DuplicatesMerged)
	}
	if result.ModelScheduleGroups != 1 {
		t.Errorf("Expected 1 model schedule group for identical rules, got %d", result.ModelScheduleGroups)
	}
}

func TestRun_OutputSortedByID(t *testing.T) {
	a := testSeries("rs-ffffffffffff", "va-1", "2021-06-01")
	b := testSeries("rs-000000000000", "va-2", "2021-06-01")
	b.Title = "Accounts Payable Files"

	result := Run([]series.RetentionSeries{a, b})

	if result.Series[0].ID != "rs-000000000000" || result.Series[1].ID != "rs-ffffffffffff" {
		t.Errorf("Expected output sorted by id, got %q then %q", result.Series[0].ID, result.Series[1].ID)
	}
}
