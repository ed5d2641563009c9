package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Layout analysis for positioned PDF text. Coordinates follow PDF user
// space: origin bottom-left, Y increasing upward, so reading order is
// descending Y.

type textItem struct {
	X, Y, W float64
	S       string
}

type textLine struct {
	Y     float64
	Items []textItem
}

const (
	// Items whose Y differs by no more than this sit on one line
	lineTolerance = 3.0
	// Gap between words of one header phrase vs. the gap between columns
	headerPhraseGap = 18.0
	// Walls sit slightly left of the header word above the column
	wallMargin = 6.0
)

func buildLines(items []textItem, tol float64) []textLine {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]textItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []textLine
	current := textLine{Y: sorted[0].Y}
	for _, item := range sorted {
		if current.Y-item.Y > tol {
			lines = append(lines, current)
			current = textLine{Y: item.Y}
		}
		current.Items = append(current.Items, item)
	}
	lines = append(lines, current)

	for i := range lines {
		sort.SliceStable(lines[i].Items, func(a, b int) bool {
			return lines[i].Items[a].X < lines[i].Items[b].X
		})
	}

	return lines
}

func (ln textLine) text() string {
	parts := make([]string, 0, len(ln.Items))
	for _, item := range ln.Items {
		if s := strings.TrimSpace(item.S); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

type phrase struct {
	X    float64
	Text string
}

// groupPhrases joins items separated by word-sized gaps and splits on
// column-sized ones.
func groupPhrases(ln textLine, gap float64) []phrase {
	var phrases []phrase
	var current *phrase
	var prevEnd float64

	for _, item := range ln.Items {
		s := strings.TrimSpace(item.S)
		if s == "" {
			continue
		}
		if current == nil || item.X-prevEnd > gap {
			phrases = append(phrases, phrase{X: item.X, Text: s})
			current = &phrases[len(phrases)-1]
		} else {
			current.Text += " " + s
		}
		prevEnd = item.X + item.W
	}

	return phrases
}

// Header phrase roles. Checked in order; "title" outranks "description" so a
// combined "RECORD SERIES TITLE AND DESCRIPTION" column keeps all its text
// together for the downstream title/description split.
var phrasePatterns = []struct {
	role    string
	pattern *regexp.Regexp
}{
	{"number", regexp.MustCompile(`(?i)\b(number|no\.?|item)\b`)},
	{"retention", regexp.MustCompile(`(?i)retention`)},
	{"disposition", regexp.MustCompile(`(?i)\b(disposition|action)\b`)},
	{"citation", regexp.MustCompile(`(?i)\b(citation|authority)\b`)},
	{"agency", regexp.MustCompile(`(?i)\bagency\b`)},
	{"effective", regexp.MustCompile(`(?i)\b(effective|revised)\b`)},
	{"title", regexp.MustCompile(`(?i)\btitle\b`)},
	{"description", regexp.MustCompile(`(?i)desc|\bseries\b`)},
}

func phraseRole(text string) string {
	for _, pp := range phrasePatterns {
		if pp.pattern.MatchString(text) {
			return pp.role
		}
	}
	return ""
}

type column struct {
	role  string
	left  float64
	right float64
}

// detectColumns derives column walls from a header line: each recognized
// header phrase opens a silo at its x position. Returns false when the line
// does not look like a schedule table header.
func detectColumns(ln textLine) ([]column, bool) {
	type marker struct {
		role string
		x    float64
	}

	var markers []marker
	for _, ph := range groupPhrases(ln, headerPhraseGap) {
		role := phraseRole(ph.Text)
		if role == "" {
			continue
		}
		if len(markers) > 0 && markers[len(markers)-1].role == role {
			continue
		}
		markers = append(markers, marker{role: role, x: ph.X})
	}

	mapped := 0
	titled := false
	for _, m := range markers {
		mapped++
		if m.role == "title" || m.role == "description" {
			titled = true
		}
	}
	if mapped < 2 || !titled {
		return nil, false
	}

	cols := make([]column, len(markers))
	for i, m := range markers {
		cols[i] = column{role: m.role, left: m.x - wallMargin}
		if i > 0 {
			cols[i-1].right = cols[i].left
		}
	}
	// Leftmost silo captures everything from the margin; rightmost runs open
	cols[0].left = 0
	cols[len(cols)-1].right = 1e18

	return cols, true
}

func assignColumn(cols []column, x float64) int {
	for i, col := range cols {
		if x >= col.left && x < col.right {
			return i
		}
	}
	return 0
}

func columnIndex(cols []column, role string) int {
	for i, col := range cols {
		if col.role == role {
			return i
		}
	}
	return -1
}

// appendCell joins wrapped text, repairing end-of-line hyphenation the way
// the words appeared before wrapping.
func appendCell(existing, addition string) string {
	addition = strings.TrimSpace(addition)
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	if strings.HasSuffix(existing, "-") {
		return strings.TrimSuffix(existing, "-") + addition
	}
	return existing + " " + addition
}

var (
	seriesAnchorRe = regexp.MustCompile(`^(?:\d{4,6}|\d{1,3}-\d{1,4})$`)
	footerLineRe   = regexp.MustCompile(`(?i)^(?:page\s+\d+(?:\s+of\s+\d+)?|-\s*\d+\s*-|\d{1,3})$`)
)

// Running furniture repeated on every page above the table: the schedule's
// running title and the effective-date stamp. Compared against the lowercased
// line text.
var furnitureSubstrings = []string{
	"records retention and disposition",
	"effective schedule date",
}

// isFurniture reports whether a line is page furniture rather than table
// content: a page-number shape or a running header string.
func isFurniture(text string) bool {
	if footerLineRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, sub := range furnitureSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
