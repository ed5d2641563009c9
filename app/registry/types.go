package registry

// Controlled vocabularies the normalizer resolves against. Both are loaded
// once at startup and never mutated during a run.

type Agency struct {
	Code         string
	Name         string
	Jurisdiction string
}

type Jurisdiction struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Children []Jurisdiction `yaml:"children"`
}

type jurisdictionFile struct {
	Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
}
