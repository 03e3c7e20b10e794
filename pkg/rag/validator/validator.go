// Package validator scores generated answers with fixed, local heuristics.
package validator

import (
	"strings"
	"unicode/utf8"

	"ai-policydesk-be/pkg/store"
)

// Reasons returned with a Verdict.
const (
	ReasonNoInformation = "appropriate — no information found."
	ReasonNoCitations   = "lacks source citations."
	ReasonTooBrief      = "too brief."
	ReasonNotRelevant   = "not relevant."
	ReasonQuality       = "meets quality criteria."
)

const (
	// InlineCitationMarker is the marker grounded answers use to cite a source.
	InlineCitationMarker = "[Source:"

	minAnswerLength = 50
	minOverlap      = 2
)

// UncertaintyPhrases are matched case-sensitively as substrings.
var UncertaintyPhrases = []string{
	"I don't have enough information",
	"I couldn't find",
	"I'm not sure",
}

type Verdict struct {
	IsValid bool
	Reason  string
}

// Validate applies the checks in priority order; the first match decides.
// It is total and side-effect free.
//
// The relevance check counts stop-words too, so short correct answers can be
// flagged as not relevant. That threshold drives retries and is kept as is.
func Validate(answer string, citations []store.Citation, question string) Verdict {
	if hasUncertainty(answer) && len(citations) == 0 {
		return Verdict{IsValid: true, Reason: ReasonNoInformation}
	}

	if len(citations) == 0 && !strings.Contains(answer, InlineCitationMarker) {
		return Verdict{IsValid: false, Reason: ReasonNoCitations}
	}

	if utf8.RuneCountInString(strings.TrimSpace(answer)) <= minAnswerLength {
		return Verdict{IsValid: false, Reason: ReasonTooBrief}
	}

	if KeywordOverlap(question, answer) <= minOverlap {
		return Verdict{IsValid: false, Reason: ReasonNotRelevant}
	}

	return Verdict{IsValid: true, Reason: ReasonQuality}
}

func hasUncertainty(answer string) bool {
	for _, phrase := range UncertaintyPhrases {
		if strings.Contains(answer, phrase) {
			return true
		}
	}
	return false
}

// KeywordOverlap counts distinct lower-cased whitespace tokens shared by a and b.
func KeywordOverlap(a, b string) int {
	left := tokenSet(a)
	overlap := 0
	for token := range tokenSet(b) {
		if _, ok := left[token]; ok {
			overlap++
		}
	}
	return overlap
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
