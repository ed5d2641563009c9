package registry

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openrecordsets/schedproc/app/series"
)

// Registry holds the agency directory and the jurisdiction hierarchy.
// Lookups are read-only after Load, so it is safe to share across workers.
type Registry struct {
	byCode        map[string]Agency
	byName        map[string]Agency
	names         []string
	jurisdictions map[string]Jurisdiction
}

// Load reads the agency directory CSV and the jurisdiction YAML. Either path
// may be empty: an empty agency directory leaves every agency unresolved
// free text, and an empty jurisdiction file accepts any non-empty
// jurisdiction id.
func Load(agenciesPath, jurisdictionsPath string) (*Registry, error) {
	r := &Registry{
		byCode:        make(map[string]Agency),
		byName:        make(map[string]Agency),
		jurisdictions: make(map[string]Jurisdiction),
	}

	if agenciesPath != "" {
		if err := r.loadAgencies(agenciesPath); err != nil {
			return nil, fmt.Errorf("failed to load agency directory: %w", err)
		}
	}

	if jurisdictionsPath != "" {
		if err := r.loadJurisdictions(jurisdictionsPath); err != nil {
			return nil, fmt.Errorf("failed to load jurisdictions: %w", err)
		}
	}

	slog.Debug("Registry loaded", "agencies", len(r.byName), "jurisdictions", len(r.jurisdictions))

	return r, nil
}

// loadAgencies parses a CSV with a code,name,jurisdiction header row.
func (r *Registry) loadAgencies(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse CSV: %w", err)
	}

	for i, row := range rows {
		if len(row) > 0 {
			// Strip UTF-8 BOM some exports prepend to the first cell
			row[0] = strings.TrimPrefix(row[0], "\uFEFF")
		}
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "code") {
			continue
		}
		if len(row) < 2 {
			return fmt.Errorf("row %d: expected at least code and name columns", i+1)
		}

		agency := Agency{
			Code: strings.TrimSpace(row[0]),
			Name: strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			agency.Jurisdiction = strings.TrimSpace(row[2])
		}

		if agency.Name == "" {
			return fmt.Errorf("row %d: agency name is required", i+1)
		}

		if agency.Code != "" {
			if _, exists := r.byCode[agency.Code]; exists {
				return fmt.Errorf("row %d: duplicate agency code %s", i+1, agency.Code)
			}
			r.byCode[agency.Code] = agency
		}

		key := series.Normalize(agency.Name)
		if _, exists := r.byName[key]; !exists {
			r.byName[key] = agency
			r.names = append(r.names, key)
		}
	}

	// Sorted scan order keeps fuzzy matching deterministic
	sort.Strings(r.names)

	return nil
}

func (r *Registry) loadJurisdictions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var parsed jurisdictionFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	var register func(j Jurisdiction) error
	register = func(j Jurisdiction) error {
		if j.ID == "" {
			return fmt.Errorf("jurisdiction id is required")
		}
		if _, exists := r.jurisdictions[j.ID]; exists {
			return fmt.Errorf("duplicate jurisdiction id %s", j.ID)
		}
		r.jurisdictions[j.ID] = j
		for _, child := range j.Children {
			if !strings.HasPrefix(child.ID, j.ID+"/") {
				return fmt.Errorf("jurisdiction %s must be nested under %s", child.ID, j.ID)
			}
			if err := register(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, j := range parsed.Jurisdictions {
		if err := register(j); err != nil {
			return err
		}
	}

	return nil
}

// KnownJurisdiction reports whether id refers to a jurisdiction in the
// hierarchy. With no hierarchy loaded, any non-empty id is accepted.
func (r *Registry) KnownJurisdiction(id string) bool {
	if id == "" {
		return false
	}
	if len(r.jurisdictions) == 0 {
		return true
	}
	_, ok := r.jurisdictions[id]
	return ok
}

func (r *Registry) JurisdictionName(id string) string {
	if j, ok := r.jurisdictions[id]; ok {
		return j.Name
	}
	return id
}

func (r *Registry) AgencyCount() int {
	return len(r.byName)
}
