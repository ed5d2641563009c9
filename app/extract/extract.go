package extract

import (
	"fmt"

	"github.com/openrecordsets/schedproc/app/docstore"
)

// Record is the raw, untyped output of one extractor row: field text as it
// appeared in the source, before any normalization. Records never leave the
// pipeline; the normalizer consumes them in the same run.
type Record struct {
	SeriesNumber    string
	Title           string
	Description     string
	RetentionText   string
	DispositionText string
	AgencyText      string
	CitationText    string
	EffectiveDate   string
	Locator         string
}

func (r Record) Empty() bool {
	return r.SeriesNumber == "" && r.Title == "" && r.Description == "" &&
		r.RetentionText == "" && r.DispositionText == ""
}

// Diagnostic marks a document region the extractor saw but could not turn
// into records. Diagnostics surface in the run report; they are not errors.
type Diagnostic struct {
	DocumentID string `json:"document_id"`
	Locator    string `json:"locator,omitempty"`
	Message    string `json:"message"`
}

type Result struct {
	Records     []Record
	Diagnostics []Diagnostic
	// EffectiveDate is document-level when stated once for the whole
	// schedule rather than per row.
	EffectiveDate string
}

type Extractor interface {
	Name() string
	Run(doc docstore.Document, data []byte) (*Result, error)
}

// ForFormat selects the extractor for a manifest format value.
func ForFormat(format string) (Extractor, error) {
	switch format {
	case docstore.FormatPDF:
		return NewPDFExtractor(), nil
	case docstore.FormatHTML:
		return NewHTMLExtractor(), nil
	case docstore.FormatDB, docstore.FormatDBAlias:
		return NewDBDumpExtractor(), nil
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %s", e.Format)
}

// ExtractionError wraps a per-document parse failure. It never aborts the
// batch; the pipeline records it and moves on.
type ExtractionError struct {
	DocumentID string
	Locator    string
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("extraction failed for %s (%s): %v", e.DocumentID, e.Locator, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %v", e.DocumentID, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
