package docstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const manifestFile = "manifest.yaml"

// Store reads a document store directory maintained by the acquisition side:
// manifest.yaml plus the raw files it references. The store is never written
// to from here.
type Store struct {
	dir  string
	docs []Document
}

func Open(dir string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var parsed manifest
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[string]bool, len(parsed.Documents))
	for i, doc := range parsed.Documents {
		if err := validateDocument(doc); err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i+1, err)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("manifest entry %d: duplicate document id %s", i+1, doc.ID)
		}
		seen[doc.ID] = true
	}

	docs := make([]Document, len(parsed.Documents))
	copy(docs, parsed.Documents)
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})

	slog.Debug("Document store opened", "dir", dir, "documents", len(docs))

	return &Store{dir: dir, docs: docs}, nil
}

func validateDocument(doc Document) error {
	required := map[string]string{
		"id":           doc.ID,
		"format":       doc.Format,
		"file":         doc.File,
		"jurisdiction": doc.Jurisdiction,
		"agency":       doc.Agency,
	}

	for _, field := range []string{"id", "format", "file", "jurisdiction", "agency"} {
		if required[field] == "" {
			return fmt.Errorf("%s is required", field)
		}
	}

	if !filepath.IsLocal(doc.File) {
		return fmt.Errorf("file must be a relative path inside the store: %s", doc.File)
	}

	return nil
}

// Documents returns manifest entries sorted by id.
func (s *Store) Documents() []Document {
	docs := make([]Document, len(s.docs))
	copy(docs, s.docs)
	return docs
}

// Read returns the raw bytes of one document. A failure here is a storage
// failure: the caller aborts the run rather than skipping the document.
func (s *Store) Read(doc Document) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, doc.File))
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", doc.ID, err)
	}
	return data, nil
}
