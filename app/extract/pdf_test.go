package extract

import (
	"errors"
	"testing"

	"github.com/openrecordsets/schedproc/app/docstore"
)

func docstoreDoc(id, format string) docstore.Document {
	return docstore.Document{
		ID:           id,
		Format:       format,
		Jurisdiction: "va",
		Agency:       "Library of Virginia",
	}
}

func TestBuildLines(t *testing.T) {
	items := []textItem{
		{X: 300, Y: 700.5, S: "right"},
		{X: 100, Y: 701, S: "left"},
		{X: 100, Y: 650, S: "second"},
		{X: 100, Y: 648.5, S: "line"},
	}

	lines := buildLines(items, 3.0)

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].text() != "left right" {
		t.Errorf("Expected 'left right', got %q", lines[0].text())
	}
	if lines[1].text() != "second line" {
		t.Errorf("Expected items within tolerance to share a line, got %q", lines[1].text())
	}
}

func TestBuildLines_TopDownOrder(t *testing.T) {
	items := []textItem{
		{X: 100, Y: 100, S: "bottom"},
		{X: 100, Y: 700, S: "top"},
	}

	lines := buildLines(items, 3.0)

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].text() != "top" || lines[1].text() != "bottom" {
		t.Errorf("Expected top line first, got %q then %q", lines[0].text(), lines[1].text())
	}
}

func TestGroupPhrases(t *testing.T) {
	ln := textLine{Items: []textItem{
		{X: 100, W: 40, S: "SERIES"},
		{X: 145, W: 50, S: "NUMBER"},
		{X: 300, W: 60, S: "RETENTION"},
	}}

	phrases := groupPhrases(ln, 18.0)

	if len(phrases) != 2 {
		t.Fatalf("Expected 2 phrases, got %d", len(phrases))
	}
	if phrases[0].Text != "SERIES NUMBER" {
		t.Errorf("Expected 'SERIES NUMBER', got %q", phrases[0].Text)
	}
	if phrases[1].Text != "RETENTION" {
		t.Errorf("Expected 'RETENTION', got %q", phrases[1].Text)
	}
}

func headerLine() textLine {
	return textLine{Y: 700, Items: []textItem{
		{X: 50, W: 40, S: "SERIES"},
		{X: 95, W: 50, S: "NUMBER"},
		{X: 200, W: 60, S: "RECORD"},
		{X: 265, W: 40, S: "SERIES"},
		{X: 310, W: 30, S: "TITLE"},
		{X: 420, W: 70, S: "RETENTION"},
		{X: 550, W: 80, S: "DISPOSITION"},
	}}
}

func TestDetectColumns(t *testing.T) {
	cols, ok := detectColumns(headerLine())
	if !ok {
		t.Fatalf("Expected header line to be recognized")
	}

	if len(cols) != 4 {
		t.Fatalf("Expected 4 columns, got %d", len(cols))
	}

	expected := []string{"number", "title", "retention", "disposition"}
	for i, role := range expected {
		if cols[i].role != role {
			t.Errorf("Column %d: expected role %s, got %s", i, role, cols[i].role)
		}
	}

	if cols[0].left != 0 {
		t.Errorf("Expected leftmost wall at 0, got %f", cols[0].left)
	}
}

func TestDetectColumns_NotAHeader(t *testing.T) {
	ln := textLine{Items: []textItem{
		{X: 50, W: 40, S: "010105"},
		{X: 150, W: 200, S: "Marriage License Applications"},
		{X: 400, W: 60, S: "Permanent"},
	}}

	if _, ok := detectColumns(ln); ok {
		t.Errorf("Expected data row not to be detected as header")
	}
}

func TestAssignColumn(t *testing.T) {
	cols, ok := detectColumns(headerLine())
	if !ok {
		t.Fatalf("Expected header line to be recognized")
	}

	tests := []struct {
		x        float64
		expected string
	}{
		{10, "number"},
		{150, "number"},
		{200, "title"},
		{350, "title"},
		{420, "retention"},
		{600, "disposition"},
		{9999, "disposition"},
	}

	for _, test := range tests {
		idx := assignColumn(cols, test.x)
		if cols[idx].role != test.expected {
			t.Errorf("assignColumn(%f): expected %s, got %s", test.x, test.expected, cols[idx].role)
		}
	}
}

func TestAppendCell_HyphenRepair(t *testing.T) {
	tests := []struct {
		existing string
		addition string
		expected string
	}{
		{"", "first", "first"},
		{"first", "second", "first second"},
		{"applica-", "tions", "applications"},
		{"first", "", "first"},
	}

	for _, test := range tests {
		result := appendCell(test.existing, test.addition)
		if result != test.expected {
			t.Errorf("appendCell(%q, %q): expected %q, got %q", test.existing, test.addition, test.expected, result)
		}
	}
}

func TestPDFState_BandsAcrossPages(t *testing.T) {
	result := &Result{}
	state := &pdfState{result: result, docID: "va-pdf-1"}

	// Page 1: header, anchor row, wrapped continuation
	state.page(1, []textLine{
		headerLine(),
		{Y: 650, Items: []textItem{
			{X: 55, W: 35, S: "010105"},
			{X: 200, W: 180, S: "Marriage License"},
			{X: 420, W: 60, S: "Permanent"},
			{X: 555, W: 80, S: "Permanent,"},
		}},
		{Y: 635, Items: []textItem{
			{X: 200, W: 100, S: "Applica-"},
			{X: 555, W: 60, S: "Archives"},
		}},
		{Y: 30, Items: []textItem{{X: 300, W: 60, S: "Page 1 of 2"}}},
	})

	// Page 2: repeated header, band continues, then a new anchor
	state.page(2, []textLine{
		headerLine(),
		{Y: 650, Items: []textItem{
			{X: 200, W: 60, S: "tions"},
		}},
		{Y: 620, Items: []textItem{
			{X: 55, W: 35, S: "010200"},
			{X: 200, W: 120, S: "Payroll Registers"},
			{X: 420, W: 50, S: "5 years"},
			{X: 555, W: 80, S: "Destruction"},
		}},
	})
	state.flush()

	if len(result.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Records))
	}

	first := result.Records[0]
	if first.SeriesNumber != "010105" {
		t.Errorf("Expected series number 010105, got %q", first.SeriesNumber)
	}
	if first.Title != "Marriage License Applications" {
		t.Errorf("Expected de-hyphenated title across pages, got %q", first.Title)
	}
	if first.DispositionText != "Permanent, Archives" {
		t.Errorf("Expected disposition 'Permanent, Archives', got %q", first.DispositionText)
	}
	if first.Locator != "page 1 row 1" {
		t.Errorf("Expected locator 'page 1 row 1', got %q", first.Locator)
	}

	second := result.Records[1]
	if second.SeriesNumber != "010200" {
		t.Errorf("Expected series number 010200, got %q", second.SeriesNumber)
	}
	if second.RetentionText != "5 years" {
		t.Errorf("Expected retention '5 years', got %q", second.RetentionText)
	}
}

func TestPDFState_RunningFurnitureIgnored(t *testing.T) {
	result := &Result{}
	state := &pdfState{result: result, docID: "va-pdf-3"}

	state.page(1, []textLine{
		headerLine(),
		{Y: 650, Items: []textItem{
			{X: 55, W: 35, S: "010300"},
			{X: 200, W: 90, S: "Personnel"},
			{X: 420, W: 50, S: "5 years"},
			{X: 555, W: 70, S: "Destroy"},
		}},
	})

	// Page 2 repeats the running title and effective-date stamp above the
	// header while the band is still open
	state.page(2, []textLine{
		{Y: 720, Items: []textItem{
			{X: 180, W: 90, S: "RECORDS"},
			{X: 275, W: 90, S: "RETENTION"},
			{X: 370, W: 35, S: "AND"},
			{X: 410, W: 110, S: "DISPOSITION"},
			{X: 525, W: 90, S: "SCHEDULE"},
		}},
		{Y: 705, Items: []textItem{
			{X: 200, W: 85, S: "EFFECTIVE"},
			{X: 290, W: 85, S: "SCHEDULE"},
			{X: 380, W: 50, S: "DATE:"},
			{X: 435, W: 90, S: "07/01/2019"},
		}},
		headerLine(),
		{Y: 650, Items: []textItem{
			{X: 200, W: 50, S: "Files"},
		}},
	})
	state.flush()

	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}

	record := result.Records[0]
	if record.Title != "Personnel Files" {
		t.Errorf("Expected running furniture to stay out of the title, got %q", record.Title)
	}
	if record.RetentionText != "5 years" {
		t.Errorf("Expected retention '5 years', got %q", record.RetentionText)
	}
}

func TestIsFurniture(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"Page 3 of 12", true},
		{"- 7 -", true},
		{"LIBRARY OF VIRGINIA RECORDS RETENTION AND DISPOSITION SCHEDULE", true},
		{"Effective Schedule Date: 07/01/2019", true},
		{"010105 Marriage License Applications Permanent", false},
		{"Records documenting retention of title", false},
	}

	for _, test := range tests {
		if got := isFurniture(test.text); got != test.expected {
			t.Errorf("isFurniture(%q): expected %v, got %v", test.text, test.expected, got)
		}
	}
}

func TestPDFState_NoStructureDiagnostic(t *testing.T) {
	result := &Result{}
	state := &pdfState{result: result, docID: "va-pdf-2"}

	state.page(1, []textLine{
		{Y: 700, Items: []textItem{{X: 100, W: 300, S: "A narrative page with no table at all."}}},
	})
	state.flush()

	if len(result.Records) != 0 {
		t.Errorf("Expected no records, got %d", len(result.Records))
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
	if result.Diagnostics[0].Locator != "page 1" {
		t.Errorf("Expected page locator, got %q", result.Diagnostics[0].Locator)
	}
}

func TestPDFExtractor_CorruptDocument(t *testing.T) {
	doc := docstoreDoc("va-bad-pdf", "pdf")

	_, err := NewPDFExtractor().Run(doc, []byte("not a pdf at all"))
	if err == nil {
		t.Fatalf("Expected error for corrupt document")
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Errorf("Expected ExtractionError, got %T", err)
	}
	if extractionErr.DocumentID != "va-bad-pdf" {
		t.Errorf("Expected document id in error, got %q", extractionErr.DocumentID)
	}
}
