package registry

import (
	"strings"

	"github.com/openrecordsets/schedproc/app/series"
)

// ResolveAgency maps free source text to a directory entry. Matching order:
// exact code, exact normalized name, then bounded edit distance over names.
// Directory entries scoped to another jurisdiction are ignored; an entry
// scoped to "va" still matches documents from "va/fairfax-county".
func (r *Registry) ResolveAgency(jurisdiction, text string) (Agency, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Agency{}, false
	}

	if agency, ok := r.byCode[text]; ok && r.inScope(agency, jurisdiction) {
		return agency, true
	}
	if agency, ok := r.byCode[strings.ToUpper(text)]; ok && r.inScope(agency, jurisdiction) {
		return agency, true
	}

	normalized := series.Normalize(text)
	if agency, ok := r.byName[normalized]; ok && r.inScope(agency, jurisdiction) {
		return agency, true
	}

	// Fuzzy pass tolerates OCR noise and minor spelling drift. The budget is
	// deliberately tight: a wrong resolution is worse than an unresolved one.
	budget := len(normalized) / 8
	if budget > 3 {
		budget = 3
	}
	if budget == 0 {
		return Agency{}, false
	}

	best := Agency{}
	bestDistance := budget + 1
	for _, name := range r.names {
		agency := r.byName[name]
		if !r.inScope(agency, jurisdiction) {
			continue
		}
		if distance := editDistance(normalized, name); distance < bestDistance {
			best = agency
			bestDistance = distance
		}
	}

	if bestDistance <= budget {
		return best, true
	}
	return Agency{}, false
}

func (r *Registry) inScope(agency Agency, jurisdiction string) bool {
	if agency.Jurisdiction == "" || jurisdiction == "" {
		return true
	}
	return agency.Jurisdiction == jurisdiction ||
		strings.HasPrefix(jurisdiction, agency.Jurisdiction+"/")
}

// editDistance is the Levenshtein distance between two strings. Inputs are
// already normalized, so no case folding happens here.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
