package validate

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/openrecordsets/schedproc/app/extract"
)

type Flag string

const (
	FlagUnspecifiedPeriod      Flag = "unspecified-retention-period"
	FlagUnspecifiedTrigger     Flag = "unspecified-trigger-event"
	FlagUnspecifiedDisposition Flag = "unspecified-disposition"
	FlagUnresolvedAgency       Flag = "unresolved-agency"
)

type Rejection struct {
	DocumentID string `json:"document_id"`
	Locator    string `json:"locator,omitempty"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

type Annotation struct {
	SeriesID string `json:"series_id"`
	Title    string `json:"title"`
	Flags    []Flag `json:"flags"`
}

type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

type ConflictEntry struct {
	SeriesID        string `json:"series_id"`
	Field           string `json:"field"`
	Kept            string `json:"kept"`
	Discarded       string `json:"discarded"`
	KeptSource      string `json:"kept_source"`
	DiscardedSource string `json:"discarded_source"`
}

// Report is the per-run audit artifact: everything a reviewer needs to see
// what was dropped, flagged or merged and why. The run header is the only
// part that varies between identical runs; every slice is sorted before
// serialization.
type Report struct {
	RunID      string `json:"run_id"`
	Generator  string `json:"generator,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`

	DocumentsProcessed  int `json:"documents_processed"`
	DocumentsFailed     int `json:"documents_failed"`
	DocumentsSkipped    int `json:"documents_skipped"`
	RecordsExtracted    int `json:"records_extracted"`
	SeriesWritten       int `json:"series_written"`
	DuplicatesMerged    int `json:"duplicates_merged"`
	ModelScheduleGroups int `json:"model_schedule_groups"`

	FlagCounts map[Flag]int `json:"flag_counts,omitempty"`

	Failures    []DocumentFailure    `json:"failures,omitempty"`
	Diagnostics []extract.Diagnostic `json:"diagnostics,omitempty"`
	Rejections  []Rejection          `json:"rejections,omitempty"`
	Annotations []Annotation         `json:"annotations,omitempty"`
	Conflicts   []ConflictEntry      `json:"conflicts,omitempty"`
}

func NewReport() *Report {
	return &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
		FlagCounts: make(map[Flag]int),
	}
}

func (r *Report) AddFailure(documentID, stage string, err error) {
	r.DocumentsFailed++
	r.Failures = append(r.Failures, DocumentFailure{
		DocumentID: documentID,
		Stage:      stage,
		Error:      err.Error(),
	})
}

func (r *Report) AddSkipped(documentID string, err error) {
	r.DocumentsSkipped++
	r.Failures = append(r.Failures, DocumentFailure{
		DocumentID: documentID,
		Stage:      "format",
		Error:      err.Error(),
	})
}

func (r *Report) AddDiagnostics(diags []extract.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diags...)
}

func (r *Report) AddRejection(rejection Rejection) {
	r.Rejections = append(r.Rejections, rejection)
}

func (r *Report) AddAnnotation(annotation Annotation) {
	r.Annotations = append(r.Annotations, annotation)
	for _, flag := range annotation.Flags {
		r.FlagCounts[flag]++
	}
}

func (r *Report) AddConflict(entry ConflictEntry) {
	r.Conflicts = append(r.Conflicts, entry)
}

// Finish stamps the end time and imposes the deterministic ordering the
// report file promises.
func (r *Report) Finish(seriesWritten int) {
	r.SeriesWritten = seriesWritten
	r.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	sort.Slice(r.Failures, func(i, j int) bool {
		if r.Failures[i].DocumentID != r.Failures[j].DocumentID {
			return r.Failures[i].DocumentID < r.Failures[j].DocumentID
		}
		return r.Failures[i].Stage < r.Failures[j].Stage
	})
	sort.Slice(r.Diagnostics, func(i, j int) bool {
		a, b := r.Diagnostics[i], r.Diagnostics[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		if a.Locator != b.Locator {
			return a.Locator < b.Locator
		}
		return a.Message < b.Message
	})
	sort.Slice(r.Rejections, func(i, j int) bool {
		a, b := r.Rejections[i], r.Rejections[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.Locator < b.Locator
	})
	sort.Slice(r.Annotations, func(i, j int) bool {
		a, b := r.Annotations[i], r.Annotations[j]
		if a.SeriesID != b.SeriesID {
			return a.SeriesID < b.SeriesID
		}
		return a.Title < b.Title
	})
	sort.Slice(r.Conflicts, func(i, j int) bool {
		a, b := r.Conflicts[i], r.Conflicts[j]
		if a.SeriesID != b.SeriesID {
			return a.SeriesID < b.SeriesID
		}
		return a.Field < b.Field
	})
}
