package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openrecordsets/schedproc/app/series"
	"github.com/openrecordsets/schedproc/app/validate"
)

const (
	corpusDirName  = "corpus"
	reportFileName = "report.json"
	csvFileName    = "corpus.csv"
)

// StorageError marks a failed write of an output artifact. Unlike extraction
// problems, which are isolated per document, a storage error aborts the run:
// a partially written corpus must never look like a finished one.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Writer materializes the merged corpus under a single output directory.
// Identical inputs produce byte-identical files: records are sorted before
// writing, file sets are pruned to exactly what the run produced, and no
// run-specific values leak into corpus files.
type Writer struct {
	dir        string
	includeCSV bool
}

func New(dir string, includeCSV bool) *Writer {
	return &Writer{dir: dir, includeCSV: includeCSV}
}

// WriteCorpus writes one JSON Lines file per jurisdiction and agency under
// <dir>/corpus/, sorted by record id, and removes files left over from
// earlier runs. Returns the number of corpus files written.
func (w *Writer) WriteCorpus(list []series.RetentionSeries) (int, error) {
	sorted := append([]series.RetentionSeries(nil), list...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	files := make(map[string][]series.RetentionSeries)
	paths := make([]string, 0)
	for _, s := range sorted {
		p := corpusPath(s)
		if _, ok := files[p]; !ok {
			paths = append(paths, p)
		}
		files[p] = append(files[p], s)
	}
	sort.Strings(paths)

	corpusDir := filepath.Join(w.dir, corpusDirName)
	written := make(map[string]bool, len(paths))
	for _, p := range paths {
		var buf bytes.Buffer
		for i := range files[p] {
			line, err := json.Marshal(&files[p][i])
			if err != nil {
				return 0, &StorageError{Path: p, Err: err}
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		full := filepath.Join(corpusDir, filepath.FromSlash(p))
		if err := writeFileAtomic(full, buf.Bytes()); err != nil {
			return 0, err
		}
		written[full] = true
	}

	if err := w.pruneStale(corpusDir, written); err != nil {
		return 0, err
	}

	if w.includeCSV {
		if err := w.writeCSV(sorted); err != nil {
			return 0, err
		}
	}

	slog.Debug("wrote corpus", "files", len(paths), "series", len(sorted))
	return len(paths), nil
}

// WriteReport writes the per-run audit report next to the corpus directory.
func (w *Writer) WriteReport(report *validate.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &StorageError{Path: reportFileName, Err: err}
	}
	data = append(data, '\n')
	return writeFileAtomic(filepath.Join(w.dir, reportFileName), data)
}

// corpusPath places a record at <jurisdiction>/<agency-slug>.jsonl, with every
// path segment reduced to slug form so manifest values cannot escape or
// collide with the directory layout.
func corpusPath(s series.RetentionSeries) string {
	segments := strings.Split(s.Jurisdiction, "/")
	for i, seg := range segments {
		segments[i] = series.Slug(seg)
	}
	return strings.Join(segments, "/") + "/" + series.Slug(s.Agency) + ".jsonl"
}

// writeFileAtomic writes through a temp file in the destination directory and
// renames it into place, so readers never observe a half-written artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// pruneStale deletes corpus files from previous runs that this run did not
// produce, then removes any directories left empty. Without this, a renamed
// agency or removed source would leave its old file behind and reruns would
// stop being reproducible.
func (w *Writer) pruneStale(corpusDir string, written map[string]bool) error {
	var stale []string
	var dirs []string
	err := filepath.WalkDir(corpusDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != corpusDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if !written[path] {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &StorageError{Path: corpusDir, Err: err}
	}

	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return &StorageError{Path: path, Err: err}
		}
		slog.Debug("pruned stale corpus file", "file", path)
	}

	// Deepest directories first, so removing a leaf can empty its parent.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return &StorageError{Path: dir, Err: err}
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				return &StorageError{Path: dir, Err: err}
			}
		}
	}
	return nil
}
