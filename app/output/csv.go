package output

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strconv"

	"github.com/openrecordsets/schedproc/app/series"
)

var csvHeader = []string{
	"id", "jurisdiction", "agency", "agency_code", "schedule_id", "series_number",
	"title", "retention_kind", "retention_amount", "retention_unit", "trigger",
	"disposition", "confidential", "citation", "effective_date", "source_documents",
}

// writeCSV writes a flattened one-row-per-series view of the corpus for
// spreadsheet review. The JSONL corpus remains the canonical artifact; the
// CSV drops descriptions and per-source detail.
func (w *Writer) writeCSV(sorted []series.RetentionSeries) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return &StorageError{Path: csvFileName, Err: err}
	}
	for i := range sorted {
		if err := cw.Write(csvRow(&sorted[i])); err != nil {
			return &StorageError{Path: csvFileName, Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &StorageError{Path: csvFileName, Err: err}
	}
	return writeFileAtomic(filepath.Join(w.dir, csvFileName), buf.Bytes())
}

func csvRow(s *series.RetentionSeries) []string {
	amount := ""
	if s.Retention.Kind == series.PeriodDuration {
		amount = strconv.Itoa(s.Retention.Amount)
	}
	docs := ""
	for i, p := range s.Provenance {
		if i > 0 {
			docs += ";"
		}
		docs += p.DocumentID
	}
	return []string{
		s.ID,
		s.Jurisdiction,
		s.Agency,
		s.AgencyCode,
		s.ScheduleID,
		s.SeriesNumber,
		s.Title,
		string(s.Retention.Kind),
		amount,
		string(s.Retention.Unit),
		string(s.Trigger),
		string(s.Disposition),
		strconv.FormatBool(s.Confidential),
		s.Citation,
		s.EffectiveDate,
		docs,
	}
}
