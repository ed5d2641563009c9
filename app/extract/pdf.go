package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/openrecordsets/schedproc/app/docstore"
)

// PDFExtractor recovers schedule tables from positioned PDF text. Columns
// are derived from the header row's keyword positions, carried across page
// breaks, and rows are banded on series-number anchors, so a record wrapped
// over several lines (or pages) accumulates into one Record.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Name() string {
	return "pdf-table"
}

func (e *PDFExtractor) Run(doc docstore.Document, data []byte) (result *Result, err error) {
	// The parser panics on malformed cross-reference tables and a corrupted
	// document must not take down the batch
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ExtractionError{DocumentID: doc.ID, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{DocumentID: doc.ID, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}

	result = &Result{}
	state := &pdfState{result: result, docID: doc.ID}

	var fullText strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		items := make([]textItem, 0, len(content.Text))
		for _, t := range content.Text {
			items = append(items, textItem{X: t.X, Y: t.Y, W: t.W, S: t.S})
		}

		lines := buildLines(items, lineTolerance)
		for _, ln := range lines {
			fullText.WriteString(ln.text())
			fullText.WriteByte('\n')
		}

		state.page(pageNum, lines)
	}
	state.flush()

	result.EffectiveDate = findEffectiveDate(fullText.String())

	if len(result.Records) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: doc.ID,
			Message:    "no tabular structure recognized",
		})
	} else {
		state.scoreDiagnostic()
	}

	return result, nil
}

// pdfState carries column walls and the open record across pages.
type pdfState struct {
	result *Result
	docID  string

	cols []column
	open *Record
}

func (s *pdfState) page(pageNum int, lines []textLine) {
	rowInPage := 0
	sawText := false

	for _, ln := range lines {
		lineText := ln.text()
		if lineText == "" {
			continue
		}
		sawText = true

		if isFurniture(lineText) {
			continue
		}

		// A header line (re)establishes the walls. Repeated headers on
		// later pages do not close the open record: a band can straddle
		// the page break.
		if cols, ok := detectColumns(ln); ok {
			s.cols = cols
			continue
		}
		if s.cols == nil {
			continue
		}

		rowTexts := make([]string, len(s.cols))
		for _, item := range ln.Items {
			idx := assignColumn(s.cols, item.X)
			rowTexts[idx] = appendCell(rowTexts[idx], item.S)
		}

		if s.startsRecord(rowTexts) {
			s.flush()
			rowInPage++
			s.open = &Record{
				Locator: fmt.Sprintf("page %d row %d", pageNum, rowInPage),
			}
		}
		if s.open == nil {
			// Preamble between the header and the first anchor
			continue
		}

		for i, text := range rowTexts {
			s.appendField(s.cols[i].role, text)
		}
	}

	if sawText && s.cols == nil {
		s.result.Diagnostics = append(s.result.Diagnostics, Diagnostic{
			DocumentID: s.docID,
			Locator:    fmt.Sprintf("page %d", pageNum),
			Message:    "text without recognizable table structure",
		})
	}
}

// startsRecord decides whether a row opens a new band. With a number column
// the anchor is a series-number value; without one, any row that fills the
// title column plus at least one other column starts a band.
func (s *pdfState) startsRecord(rowTexts []string) bool {
	numberIdx := columnIndex(s.cols, "number")
	if numberIdx >= 0 {
		return seriesAnchorRe.MatchString(strings.TrimSpace(rowTexts[numberIdx]))
	}

	titleIdx := columnIndex(s.cols, "title")
	if titleIdx < 0 {
		titleIdx = columnIndex(s.cols, "description")
	}
	if titleIdx < 0 || strings.TrimSpace(rowTexts[titleIdx]) == "" {
		return false
	}

	filled := 0
	for _, text := range rowTexts {
		if strings.TrimSpace(text) != "" {
			filled++
		}
	}
	return filled >= 2
}

func (s *pdfState) appendField(role, text string) {
	if text == "" || s.open == nil {
		return
	}
	switch role {
	case "number":
		if s.open.SeriesNumber == "" {
			s.open.SeriesNumber = text
		}
	case "title":
		s.open.Title = appendCell(s.open.Title, text)
	case "description":
		s.open.Description = appendCell(s.open.Description, text)
	case "retention":
		s.open.RetentionText = appendCell(s.open.RetentionText, text)
	case "disposition":
		s.open.DispositionText = appendCell(s.open.DispositionText, text)
	case "citation":
		s.open.CitationText = appendCell(s.open.CitationText, text)
	case "agency":
		s.open.AgencyText = appendCell(s.open.AgencyText, text)
	case "effective":
		if s.open.EffectiveDate == "" {
			s.open.EffectiveDate = text
		}
	}
}

func (s *pdfState) flush() {
	if s.open != nil && !s.open.Empty() {
		s.result.Records = append(s.result.Records, *s.open)
	}
	s.open = nil
}

// scoreDiagnostic flags documents whose extraction looks structurally off:
// mostly untitled records or mostly missing retention text usually mean the
// walls landed in the wrong place.
func (s *pdfState) scoreDiagnostic() {
	total := len(s.result.Records)
	if total == 0 {
		return
	}

	titled := 0
	withRetention := 0
	for _, record := range s.result.Records {
		if record.Title != "" || record.Description != "" {
			titled++
		}
		if record.RetentionText != "" {
			withRetention++
		}
	}

	if titled*2 < total || withRetention*2 < total {
		s.result.Diagnostics = append(s.result.Diagnostics, Diagnostic{
			DocumentID: s.docID,
			Message: fmt.Sprintf("low extraction confidence: %d/%d records titled, %d/%d with retention text",
				titled, total, withRetention, total),
		})
	}
}
