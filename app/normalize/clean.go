package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/openrecordsets/schedproc/app/series"
)

// Field cleanup rules recovered from the messier source layouts: combined
// title/description cells, dispositions buried in retention statements,
// citations quoted mid-description.

// splitMarkerRe finds the phrase that conventionally opens the description
// half of a combined title-and-description cell.
var splitMarkerRe = regexp.MustCompile(`(?i)\b(this\s+series\s+documents?|this\s+series\s+consists?|consists?\s+of|series\s+documents\s+the)\b`)

var sentenceEndRe = regexp.MustCompile(`[.?!]\s+`)

// SplitTitleDescription untangles sources that publish one blob of text for
// both fields. A present description passes through untouched.
func SplitTitleDescription(title, description string) (string, string) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" && description != "" {
		// Promote the leading sentence to a title
		if loc := sentenceEndRe.FindStringIndex(description); loc != nil && loc[0] > 0 {
			return trimTitle(description[:loc[0]]), strings.TrimSpace(description[loc[1]:])
		}
		if len(description) <= 120 {
			return trimTitle(description), ""
		}
		// Cut on a rune boundary
		end := 120
		for end > 0 && !utf8.RuneStart(description[end]) {
			end--
		}
		cut := description[:end]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		return trimTitle(cut), description
	}

	if description != "" {
		return title, description
	}

	if loc := splitMarkerRe.FindStringIndex(title); loc != nil && loc[0] > 0 {
		return trimTitle(title[:loc[0]]), strings.TrimSpace(title[loc[0]:])
	}

	// Long single-cell text with sentence structure: first sentence is the
	// title, the remainder the description
	if len(title) > 80 {
		if loc := sentenceEndRe.FindStringIndex(title); loc != nil && loc[0] > 0 {
			return trimTitle(title[:loc[0]]), strings.TrimSpace(title[loc[1]:])
		}
	}

	return title, ""
}

func trimTitle(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;:-–")
}

// Disposition keyword table. Order matters: "Permanent, Archives" is an
// archival transfer, "Permanent, In Agency" is permanent retention in place.
var dispositionRules = []struct {
	action  series.DispositionAction
	pattern *regexp.Regexp
}{
	{series.DispositionArchives, regexp.MustCompile(`(?i)\barchives\b|\btransfer\s+to\s+(?:the\s+)?(?:state\s+)?archiv`)},
	{series.DispositionPermanent, regexp.MustCompile(`(?i)\bpermanent(?:ly)?\b|\bretain\s+in\s+agency\b`)},
	{series.DispositionDestroy, regexp.MustCompile(`(?i)\bdestr(?:oy|uction)\b|\bshred\b|\bdelete\b|\bdiscard\b|\brecycle\b`)},
}

var thenClauseRe = regexp.MustCompile(`(?i)[,;]?\s*\bthen\s+(.+)$`)

// ParseDisposition classifies the disposition cell, falling back to a
// trailing "then ..." clause or bare keywords in the retention statement
// when sources fold both into one column. The confidential flag comes from
// the same text ("Confidential Destruction" vs "Non-confidential
// Destruction").
func ParseDisposition(dispositionText, retentionText string) (series.DispositionAction, bool) {
	action := classifyDisposition(dispositionText)
	confidential := isConfidential(dispositionText)

	if action == series.DispositionUnspecified {
		source := retentionText
		if match := thenClauseRe.FindStringSubmatch(retentionText); match != nil {
			source = match[1]
		}
		action = classifyDisposition(source)
		confidential = confidential || isConfidential(source)
	}

	return action, confidential
}

func classifyDisposition(text string) series.DispositionAction {
	if strings.TrimSpace(text) == "" {
		return series.DispositionUnspecified
	}
	for _, rule := range dispositionRules {
		if rule.pattern.MatchString(text) {
			return rule.action
		}
	}
	return series.DispositionUnspecified
}

func isConfidential(text string) bool {
	lower := strings.ToLower(text)
	lower = strings.ReplaceAll(lower, "non-confidential", "")
	lower = strings.ReplaceAll(lower, "nonconfidential", "")
	return strings.Contains(lower, "confidential")
}

// Citation patterns for the legal authority a series cites. First match
// wins; ordered roughly federal to state.
var citationRes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+\s*C\.?F\.?R\.?\s*(?:§+\s*)?[\d.\-]+`),
	regexp.MustCompile(`\b\d+\s*U\.?S\.?C\.?\s*(?:§+\s*)?[\d.\-]+`),
	regexp.MustCompile(`\b\d+\s*VAC\s*[\d.\-]+`),
	regexp.MustCompile(`\b\d+\s*TAC\s*[\d.\-]+`),
	regexp.MustCompile(`\bORC\s*\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\bCode\s+of\s+Virginia\s*(?:§+\s*)?[\d.\-]*`),
	regexp.MustCompile(`\bCOV\s*(?:§+\s*)?[\d.\-]+`),
}

// ExtractCitation scans the given texts for the first recognizable legal
// citation.
func ExtractCitation(texts ...string) string {
	for _, text := range texts {
		for _, re := range citationRes {
			if match := re.FindString(text); match != "" {
				return strings.TrimRight(strings.TrimSpace(match), ".,;:")
			}
		}
	}
	return ""
}
