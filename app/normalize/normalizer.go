package normalize

import (
	"log/slog"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/openrecordsets/schedproc/app/docstore"
	"github.com/openrecordsets/schedproc/app/extract"
	"github.com/openrecordsets/schedproc/app/registry"
	"github.com/openrecordsets/schedproc/app/series"
)

// Normalizer turns raw extractor records into canonical RetentionSeries.
// One record in, one series out; nothing is dropped here. Records that fail
// the schema invariants go through unchanged and the validator rejects them
// with an audit entry.
type Normalizer struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Normalizer {
	return &Normalizer{registry: reg}
}

func (n *Normalizer) Run(doc docstore.Document, extractorName string, result *extract.Result) []series.RetentionSeries {
	out := make([]series.RetentionSeries, 0, len(result.Records))

	for _, record := range result.Records {
		out = append(out, n.normalizeRecord(doc, extractorName, result.EffectiveDate, record))
	}

	slog.Debug("Document normalized", "document", doc.ID, "records", len(out))

	return out
}

func (n *Normalizer) normalizeRecord(doc docstore.Document, extractorName, docEffectiveDate string, record extract.Record) series.RetentionSeries {
	title, description := SplitTitleDescription(record.Title, record.Description)

	retentionText := strings.TrimSpace(record.RetentionText)
	period, trigger := ParseRetention(retentionText)
	disposition, confidential := ParseDisposition(record.DispositionText, retentionText)

	citation := strings.TrimSpace(record.CitationText)
	if citation == "" {
		citation = ExtractCitation(description, retentionText, record.DispositionText)
	}

	agencyName, agencyCode, unresolved := n.resolveAgency(doc, record.AgencyText)

	effective := record.EffectiveDate
	if effective == "" {
		effective = docEffectiveDate
	}

	s := series.RetentionSeries{
		Jurisdiction:     doc.Jurisdiction,
		Agency:           agencyName,
		AgencyCode:       agencyCode,
		UnresolvedAgency: unresolved,
		ScheduleID:       doc.ScheduleID,
		ScheduleType:     doc.ScheduleType,
		SeriesNumber:     strings.TrimSpace(record.SeriesNumber),
		Title:            title,
		Description:      description,
		RetentionText:    retentionText,
		Retention:        period,
		Trigger:          trigger,
		Disposition:      disposition,
		Confidential:     confidential,
		Citation:         citation,
		EffectiveDate:    isoDate(effective),
		Provenance: []series.Provenance{{
			DocumentID:  doc.ID,
			SourceURL:   doc.SourceURL,
			RetrievedAt: doc.RetrievedAt,
			Extractor:   extractorName,
			Locator:     record.Locator,
			License:     doc.License,
		}},
	}
	s.ID = series.DeriveID(s.Jurisdiction, s.Agency, s.Title)

	return s
}

// resolveAgency maps record-level agency text (or the document's issuing
// body) to the controlled directory. Misses keep the free text; the
// unresolved marker is only set when there is a directory to resolve
// against.
func (n *Normalizer) resolveAgency(doc docstore.Document, agencyText string) (string, string, bool) {
	text := strings.TrimSpace(agencyText)
	if text == "" {
		text = doc.Agency
	}

	if agency, ok := n.registry.ResolveAgency(doc.Jurisdiction, text); ok {
		return agency.Name, agency.Code, false
	}

	return text, "", n.registry.AgencyCount() > 0
}

// isoDate normalizes the date shapes sources use (7/1/2019, July 1 2019,
// 2019-07-01) to ISO. Unparseable text is dropped rather than carried.
func isoDate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	parsed, err := dateparse.ParseAny(text)
	if err != nil {
		return ""
	}
	return parsed.Format("2006-01-02")
}
