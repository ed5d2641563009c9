package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openrecordsets/schedproc/app/cfg"
	"github.com/openrecordsets/schedproc/app/dedupe"
	"github.com/openrecordsets/schedproc/app/docstore"
	"github.com/openrecordsets/schedproc/app/extract"
	"github.com/openrecordsets/schedproc/app/normalize"
	"github.com/openrecordsets/schedproc/app/output"
	"github.com/openrecordsets/schedproc/app/series"
	"github.com/openrecordsets/schedproc/app/validate"
)

// Pipeline runs one full pass over the document store: extract every
// document, normalize the raw records, validate, merge duplicates and write
// the corpus. Extraction and normalization run concurrently per document;
// everything after the per-document stage is sequential so the output only
// depends on store contents, never on scheduling.
type Pipeline struct {
	store      *docstore.Store
	normalizer *normalize.Normalizer
	validator  *validate.Validator
	writer     *output.Writer
}

func New(store *docstore.Store, normalizer *normalize.Normalizer, validator *validate.Validator, writer *output.Writer) *Pipeline {
	return &Pipeline{
		store:      store,
		normalizer: normalizer,
		validator:  validator,
		writer:     writer,
	}
}

// docResult is the outcome of one document's extract+normalize stage. Each
// worker fills exactly one slot, and the merge walks slots in manifest
// order, so worker scheduling never reorders anything downstream.
type docResult struct {
	candidates  []series.RetentionSeries
	diagnostics []extract.Diagnostic
	extracted   int
	skippedErr  error
	failedErr   error
}

// Run processes every document in the store and returns the run report.
// Document-level failures are recorded and do not stop the run; a storage
// failure reading input or writing output aborts it.
func (p *Pipeline) Run(ctx context.Context) (*validate.Report, error) {
	started := time.Now()
	appCfg := cfg.Get()

	report := validate.NewReport()
	report.Generator = "schedproc/" + appCfg.Version

	docs := p.store.Documents()
	results := make([]docResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(appCfg.WorkerCount)
	for i, doc := range docs {
		g.Go(func() error {
			r, err := p.processDocument(gctx, doc)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []series.RetentionSeries
	for i, r := range results {
		switch {
		case r.skippedErr != nil:
			report.AddSkipped(docs[i].ID, r.skippedErr)
		case r.failedErr != nil:
			report.AddFailure(docs[i].ID, "extract", r.failedErr)
		default:
			report.DocumentsProcessed++
			report.RecordsExtracted += r.extracted
			report.AddDiagnostics(r.diagnostics)
			candidates = append(candidates, r.candidates...)
		}
	}

	valid := p.validator.Run(candidates, report)
	merged := dedupe.Run(valid)
	for _, c := range merged.Conflicts {
		report.AddConflict(c)
	}
	report.DuplicatesMerged = merged.DuplicatesMerged
	report.ModelScheduleGroups = merged.ModelScheduleGroups

	files, err := p.writer.WriteCorpus(merged.Series)
	if err != nil {
		return nil, fmt.Errorf("failed to write corpus: %w", err)
	}

	report.Finish(len(merged.Series))
	if err := p.writer.WriteReport(report); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Run completed",
		"duration", time.Since(started).Round(time.Millisecond),
		"documents", len(docs),
		"processed", report.DocumentsProcessed,
		"failed", report.DocumentsFailed,
		"skipped", report.DocumentsSkipped,
		"records", report.RecordsExtracted,
		"series", report.SeriesWritten,
		"merged", report.DuplicatesMerged,
		"files", files)

	return report, nil
}

// processDocument extracts and normalizes a single document. Extraction
// problems are returned inside the result so one bad document never takes
// down the run; only input storage failures propagate as errors.
func (p *Pipeline) processDocument(ctx context.Context, doc docstore.Document) (docResult, error) {
	started := time.Now()

	select {
	case <-ctx.Done():
		return docResult{}, ctx.Err()
	default:
	}

	extractor, err := extract.ForFormat(doc.Format)
	if err != nil {
		var unsupported *extract.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			slog.Warn("Skipping document with unsupported format", "document", doc.ID, "format", doc.Format)
			return docResult{skippedErr: err}, nil
		}
		return docResult{}, err
	}

	data, err := p.store.Read(doc)
	if err != nil {
		return docResult{}, fmt.Errorf("failed to read document %s: %w", doc.ID, err)
	}

	result, err := extractor.Run(doc, data)
	if err != nil {
		slog.Warn("Document extraction failed", "document", doc.ID, "error", err)
		return docResult{failedErr: err}, nil
	}

	candidates := p.normalizer.Run(doc, extractor.Name(), result)

	slog.Debug("Document processed",
		"document", doc.ID,
		"format", doc.Format,
		"records", len(result.Records),
		"diagnostics", len(result.Diagnostics),
		"duration", time.Since(started).Round(time.Millisecond))

	return docResult{
		candidates:  candidates,
		diagnostics: result.Diagnostics,
		extracted:   len(result.Records),
	}, nil
}
