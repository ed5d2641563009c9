package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/openrecordsets/schedproc/app/docstore"
)

// HTMLExtractor reads schedule tables out of HTML documents. Tables are the
// primary shape; documents without recognizable tables fall back to a
// label-block pass ("Record Title: ..." style markup).
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Name() string {
	return "html-table"
}

// Column roles recognized in header rows, most specific first.
var headerRoles = []struct {
	role    string
	pattern *regexp.Regexp
}{
	{"number", regexp.MustCompile(`(?i)\b(number|no\.?|item)\b`)},
	{"retention", regexp.MustCompile(`(?i)retention`)},
	{"disposition", regexp.MustCompile(`(?i)\b(disposition|action)\b`)},
	{"citation", regexp.MustCompile(`(?i)\b(citation|authority)\b`)},
	{"agency", regexp.MustCompile(`(?i)\bagency\b`)},
	{"effective", regexp.MustCompile(`(?i)\b(effective|revised)\b`)},
	{"description", regexp.MustCompile(`(?i)desc`)},
	{"title", regexp.MustCompile(`(?i)\b(title|series|record)\b`)},
}

func headerRole(text string) string {
	for _, hr := range headerRoles {
		if hr.pattern.MatchString(text) {
			return hr.role
		}
	}
	return ""
}

func (e *HTMLExtractor) Run(doc docstore.Document, data []byte) (*Result, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{DocumentID: doc.ID, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	result := &Result{
		EffectiveDate: findEffectiveDate(parsed.Find("body").Text()),
	}

	parsed.Find("table").Each(func(tableIdx int, tbl *goquery.Selection) {
		// Nested tables are flattened into their outer table's rows
		if tbl.ParentsFiltered("table").Length() > 0 {
			return
		}
		e.extractTable(doc.ID, tableIdx, tbl, result)
	})

	if len(result.Records) == 0 {
		e.extractLabelBlocks(doc.ID, parsed, result)
	}

	if len(result.Records) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: doc.ID,
			Message:    "no tables or label blocks recognized",
		})
	}

	return result, nil
}

func (e *HTMLExtractor) extractTable(docID string, tableIdx int, tbl *goquery.Selection, result *Result) {
	rows := tbl.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Closest("table").Get(0) == tbl.Get(0)
	})
	if rows.Length() == 0 {
		return
	}

	var roles []string
	headerRow := -1
	rows.EachWithBreak(func(rowIdx int, row *goquery.Selection) bool {
		candidate := rowRoles(row)
		if recognized(candidate) {
			roles = candidate
			headerRow = rowIdx
			return false
		}
		// Only the leading rows can be headers
		return rowIdx < 2
	})

	if headerRow < 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: docID,
			Locator:    fmt.Sprintf("table %d", tableIdx+1),
			Message:    "no recognizable header row",
		})
		return
	}

	headerCells := rowCells(rows.Eq(headerRow))

	rows.Each(func(rowIdx int, row *goquery.Selection) {
		if rowIdx <= headerRow {
			return
		}

		cells := rowCells(row)
		if len(cells) == 0 {
			return
		}
		// Tables split across pages sometimes repeat their header row
		if slices.Equal(cells, headerCells) {
			return
		}

		record := Record{
			Locator: fmt.Sprintf("table %d row %d", tableIdx+1, rowIdx+1),
		}
		for i, cell := range cells {
			if i >= len(roles) {
				break
			}
			// Skip colspan expansion artifacts
			if i > 0 && roles[i] == roles[i-1] && cell == cells[i-1] {
				continue
			}
			assignField(&record, roles[i], cell)
		}

		if record.Empty() {
			return
		}

		// A row carrying only description text continues the previous record
		// (merged cells split across rows)
		if record.SeriesNumber == "" && record.Title == "" && record.RetentionText == "" &&
			record.Description != "" && len(result.Records) > 0 {
			last := &result.Records[len(result.Records)-1]
			last.Description = joinText(last.Description, record.Description)
			return
		}

		result.Records = append(result.Records, record)
	})
}

// rowRoles maps a row's cells to column roles; used to find the header row.
func rowRoles(row *goquery.Selection) []string {
	var roles []string
	row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		span := cellSpan(cell)
		role := headerRole(collapseSpace(cell.Text()))
		for i := 0; i < span; i++ {
			roles = append(roles, role)
		}
	})
	return roles
}

// recognized requires at least two mapped columns, one of them title-like,
// before a row counts as a header.
func recognized(roles []string) bool {
	mapped := 0
	titled := false
	for _, role := range roles {
		if role != "" {
			mapped++
		}
		if role == "title" || role == "description" {
			titled = true
		}
	}
	return mapped >= 2 && titled
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		span := cellSpan(cell)
		text := collapseSpace(cell.Text())
		for i := 0; i < span; i++ {
			cells = append(cells, text)
		}
	})
	return cells
}

func cellSpan(cell *goquery.Selection) int {
	span, err := strconv.Atoi(cell.AttrOr("colspan", "1"))
	if err != nil || span < 1 {
		span = 1
	}
	return span
}

func assignField(record *Record, role, text string) {
	if text == "" {
		return
	}
	switch role {
	case "number":
		record.SeriesNumber = text
	case "title":
		record.Title = joinText(record.Title, text)
	case "description":
		record.Description = joinText(record.Description, text)
	case "retention":
		record.RetentionText = joinText(record.RetentionText, text)
	case "disposition":
		record.DispositionText = text
	case "citation":
		record.CitationText = text
	case "agency":
		record.AgencyText = text
	case "effective":
		record.EffectiveDate = text
	}
}

// Label-block markup used by sources that publish one series per section
// instead of a table.
var labelPatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"title", regexp.MustCompile(`(?i)^(?:record\s+)?(?:series\s+)?title\s*[:：]\s*(.+)$`)},
	{"number", regexp.MustCompile(`(?i)^(?:record\s+)?series\s+(?:number|no\.?)\s*[:：]\s*(.+)$`)},
	{"description", regexp.MustCompile(`(?i)^description\s*[:：]\s*(.+)$`)},
	{"retention", regexp.MustCompile(`(?i)^retention(?:\s+period)?\s*[:：]\s*(.+)$`)},
	{"disposition", regexp.MustCompile(`(?i)^disposition\s*[:：]\s*(.+)$`)},
	{"citation", regexp.MustCompile(`(?i)^(?:legal\s+)?citation\s*[:：]\s*(.+)$`)},
	{"agency", regexp.MustCompile(`(?i)^agency\s*[:：]\s*(.+)$`)},
}

func (e *HTMLExtractor) extractLabelBlocks(docID string, parsed *goquery.Document, result *Result) {
	var current *Record
	blockIdx := 0

	flush := func() {
		if current != nil && !current.Empty() {
			result.Records = append(result.Records, *current)
		}
		current = nil
	}

	parsed.Find("p, li, dt, dd, h2, h3, h4").Each(func(_ int, el *goquery.Selection) {
		text := collapseSpace(el.Text())
		if text == "" {
			return
		}
		blockIdx++

		for _, lp := range labelPatterns {
			match := lp.pattern.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			value := strings.TrimSpace(match[1])

			// A new title starts the next record
			if lp.field == "title" {
				flush()
				current = &Record{
					Locator: fmt.Sprintf("block %d", blockIdx),
				}
			}
			if current == nil {
				current = &Record{
					Locator: fmt.Sprintf("block %d", blockIdx),
				}
			}
			assignField(current, lp.field, value)
			return
		}

		// Unlabeled text under an open record extends its description
		if current != nil && current.Title != "" && current.Description == "" {
			current.Description = text
		}
	})

	flush()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinText(existing, addition string) string {
	if existing == "" {
		return addition
	}
	if addition == "" {
		return existing
	}
	return existing + " " + addition
}

var effectiveDateRe = regexp.MustCompile(`(?i)EFFECTIVE\s+(?:SCHEDULE\s+)?DATE[:\s]+(\d{1,2}/\d{1,2}/\d{2,4})`)

// findEffectiveDate pulls a document-level effective date out of free text.
func findEffectiveDate(text string) string {
	match := effectiveDateRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}
