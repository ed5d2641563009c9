package docstore

// Document formats accepted by the pipeline. Anything else in a manifest is
// skipped with an unsupported-format entry in the run report.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatDB   = "db-dump"

	// FormatDBAlias is the short tag earlier manifests used for SQLite dumps.
	FormatDBAlias = "db"
)

// Document is one manifest entry: a raw source file plus the provenance and
// defaults that travel with every record extracted from it. Agency names the
// issuing body and doubles as the fallback agency for records that do not
// name their own.
type Document struct {
	ID           string `yaml:"id"`
	Format       string `yaml:"format"`
	File         string `yaml:"file"`
	Jurisdiction string `yaml:"jurisdiction"`
	Agency       string `yaml:"agency"`
	ScheduleID   string `yaml:"schedule_id"`
	ScheduleType string `yaml:"schedule_type"`
	SourceURL    string `yaml:"source_url"`
	RetrievedAt  string `yaml:"retrieved_at"`
	License      string `yaml:"license"`
}

type manifest struct {
	Documents []Document `yaml:"documents"`
}
