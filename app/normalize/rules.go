package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openrecordsets/schedproc/app/series"
)

// Retention statement parsing. Every mapping from source phrasing to a
// structured value lives in the tables below; text that matches nothing
// stays unspecified rather than being guessed at.

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8,
	"nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
}

var (
	permanentRe = regexp.MustCompile(`(?i)\b(?:permanent(?:ly)?|do\s+not\s+destroy|retain\s+indefinitely|indefinite(?:ly)?)\b`)

	durationRe = regexp.MustCompile(`(?i)\b(?:(\d+)|(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen))\s+(?:(fiscal|calendar)\s+)?(year|month|week|day)s?\b`)
)

// Trigger patterns, most specific first: "3 fiscal years after audit" is
// audit-completion, not fiscal-year-end.
var triggerRules = []struct {
	trigger series.TriggerEvent
	pattern *regexp.Regexp
}{
	{series.TriggerAuditCompletion, regexp.MustCompile(`(?i)\bafter\s+(?:completion\s+of\s+(?:the\s+)?)?audit\b|\baudit\s+(?:completion|is\s+completed)\b|\buntil\s+audited\b|\bafter\s+audited\b`)},
	{series.TriggerSuperseded, regexp.MustCompile(`(?i)\b(?:until|when|upon|after)\s+superseded\b|\bsupersession\b|\buntil\s+replaced\b|\buntil\s+obsolete\b`)},
	{series.TriggerFiscalYearEnd, regexp.MustCompile(`(?i)\b(?:end|close)\s+of\s+(?:the\s+)?fiscal\s+year\b|\bfiscal\s+year[-\s]end\b`)},
	{series.TriggerCreation, regexp.MustCompile(`(?i)\b(?:from|after|of)\s+(?:the\s+)?(?:date\s+of\s+)?creation\b|\bafter\s+created\b|\bfrom\s+(?:the\s+)?date\s+created\b|\bfrom\s+date\s+of\s+record\b`)},
	{series.TriggerEventOccurrence, regexp.MustCompile(`(?i)\b(?:after|upon|following)\s+(?:final\s+|the\s+)?(?:termination|separation|expiration|completion|closure|close|settlement|disposal|discharge|graduation|resolution|payment|sale|end\s+of)\b`)},
}

// ParseRetention maps a retention statement to a structured period and
// trigger. Unmatched phrasing yields unspecified values.
func ParseRetention(text string) (series.RetentionPeriod, series.TriggerEvent) {
	period := series.RetentionPeriod{Kind: series.PeriodUnspecified}
	if strings.TrimSpace(text) == "" {
		return period, series.TriggerUnspecified
	}

	if match := durationRe.FindStringSubmatch(text); match != nil {
		amount := 0
		if match[1] != "" {
			amount, _ = strconv.Atoi(match[1])
		} else {
			amount = wordNumbers[strings.ToLower(match[2])]
		}

		if amount > 0 {
			period = series.RetentionPeriod{
				Kind:   series.PeriodDuration,
				Amount: amount,
				Unit:   periodUnit(match[3], match[4]),
			}
		}
	}

	// Permanence outranks a duration mentioned in passing ("permanent;
	// microfilm after 10 years")
	if permanentRe.MatchString(text) {
		period = series.RetentionPeriod{Kind: series.PeriodPermanent}
	}

	return period, parseTrigger(text)
}

func periodUnit(qualifier, unit string) series.PeriodUnit {
	switch strings.ToLower(unit) {
	case "year":
		if strings.EqualFold(qualifier, "fiscal") {
			return series.UnitFiscalYears
		}
		return series.UnitYears
	case "month":
		return series.UnitMonths
	case "week":
		return series.UnitWeeks
	default:
		return series.UnitDays
	}
}

func parseTrigger(text string) series.TriggerEvent {
	for _, rule := range triggerRules {
		if rule.pattern.MatchString(text) {
			return rule.trigger
		}
	}
	return series.TriggerUnspecified
}
