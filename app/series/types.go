package series

import (
	"fmt"
)

// Canonical record model. Field order here is the serialization order of
// corpus artifacts, so it is part of the output contract.

type PeriodKind string

const (
	PeriodDuration    PeriodKind = "duration"
	PeriodPermanent   PeriodKind = "permanent"
	PeriodUnspecified PeriodKind = "unspecified"
)

type PeriodUnit string

const (
	UnitYears       PeriodUnit = "years"
	UnitMonths      PeriodUnit = "months"
	UnitWeeks       PeriodUnit = "weeks"
	UnitDays        PeriodUnit = "days"
	UnitFiscalYears PeriodUnit = "fiscal-years"
)

type TriggerEvent string

const (
	TriggerCreation        TriggerEvent = "creation"
	TriggerSuperseded      TriggerEvent = "superseded"
	TriggerEventOccurrence TriggerEvent = "event-occurrence"
	TriggerFiscalYearEnd   TriggerEvent = "fiscal-year-end"
	TriggerAuditCompletion TriggerEvent = "audit-completion"
	TriggerUnspecified     TriggerEvent = "unspecified"
)

type DispositionAction string

const (
	DispositionDestroy     DispositionAction = "destroy"
	DispositionArchives    DispositionAction = "transfer-to-archives"
	DispositionPermanent   DispositionAction = "permanent"
	DispositionUnspecified DispositionAction = "unspecified"
)

type RetentionPeriod struct {
	Kind   PeriodKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
	Unit   PeriodUnit `json:"unit,omitempty"`
}

func (p RetentionPeriod) Equal(other RetentionPeriod) bool {
	return p.Kind == other.Kind && p.Amount == other.Amount && p.Unit == other.Unit
}

func (p RetentionPeriod) String() string {
	if p.Kind == PeriodDuration {
		return fmt.Sprintf("%d %s", p.Amount, p.Unit)
	}
	return string(p.Kind)
}

// Provenance records where one source's copy of a series came from.
// RetrievedAt is carried verbatim from the store manifest (ISO date string);
// it is parsed only when sources have to be ordered.
type Provenance struct {
	DocumentID  string `json:"document_id"`
	SourceURL   string `json:"source_url,omitempty"`
	RetrievedAt string `json:"retrieved_at,omitempty"`
	Extractor   string `json:"extractor"`
	Locator     string `json:"locator,omitempty"`
	License     string `json:"license,omitempty"`
	Note        string `json:"note,omitempty"`
}

type RetentionSeries struct {
	ID               string            `json:"id"`
	Jurisdiction     string            `json:"jurisdiction"`
	Agency           string            `json:"agency"`
	AgencyCode       string            `json:"agency_code,omitempty"`
	UnresolvedAgency bool              `json:"unresolved_agency,omitempty"`
	ScheduleID       string            `json:"schedule_id,omitempty"`
	ScheduleType     string            `json:"schedule_type,omitempty"`
	SeriesNumber     string            `json:"series_number,omitempty"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	RetentionText    string            `json:"retention_text,omitempty"`
	Retention        RetentionPeriod   `json:"retention"`
	Trigger          TriggerEvent      `json:"trigger"`
	Disposition      DispositionAction `json:"disposition"`
	Confidential     bool              `json:"confidential,omitempty"`
	Citation         string            `json:"citation,omitempty"`
	EffectiveDate    string            `json:"effective_date,omitempty"`
	Provenance       []Provenance      `json:"provenance"`
}

// SimilarityKey groups records that state the same rule for the same kind of
// record, regardless of which agency adopted it. Used for reporting shared
// model schedules, never for merging.
func (s *RetentionSeries) SimilarityKey() string {
	return fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		Normalize(s.Title),
		s.Retention.Kind,
		s.Retention.Amount,
		s.Retention.Unit,
		s.Trigger,
		s.Disposition)
}
