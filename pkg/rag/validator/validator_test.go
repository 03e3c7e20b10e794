package validator

import (
	"testing"

	"ai-policydesk-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

var oneCitation = []store.Citation{{SourceDocument: "leave.md", PageNumber: 1, Rank: 1, Preview: "..."}}

func TestValidatePriority(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		citations []store.Citation
		question  string
		want      Verdict
	}{
		{
			name:     "uncertain and uncited is valid even when short",
			answer:   "I'm not sure",
			question: "how many sick days do I get",
			want:     Verdict{IsValid: true, Reason: ReasonNoInformation},
		},
		{
			name:     "no information answer",
			answer:   "[HR Agent] I couldn't find relevant information in the policy documents.",
			question: "what is the parental leave policy",
			want:     Verdict{IsValid: true, Reason: ReasonNoInformation},
		},
		{
			name:     "uncited confident answer",
			answer:   "You get twenty days of annual leave every calendar year, accrued monthly.",
			question: "how many days of annual leave do I get",
			want:     Verdict{IsValid: false, Reason: ReasonNoCitations},
		},
		{
			name:     "inline marker counts as citation",
			answer:   "Short [Source: a.md]",
			question: "anything",
			want:     Verdict{IsValid: false, Reason: ReasonTooBrief},
		},
		{
			name:      "uncertain but cited falls through to later checks",
			answer:    "I'm not sure",
			citations: oneCitation,
			question:  "how many sick days",
			want:      Verdict{IsValid: false, Reason: ReasonTooBrief},
		},
		{
			name:      "exactly fifty characters is too brief",
			answer:    "  " + "12345678901234567890123456789012345678901234567890" + "  ",
			citations: oneCitation,
			question:  "x",
			want:      Verdict{IsValid: false, Reason: ReasonTooBrief},
		},
		{
			name:      "low overlap is not relevant",
			answer:    "Employees receive twenty paid days each calendar year per the handbook.",
			citations: oneCitation,
			question:  "What about VPN access?",
			want:      Verdict{IsValid: false, Reason: ReasonNotRelevant},
		},
		{
			name:      "two shared tokens is not relevant",
			answer:    "Your line manager approves remote arrangements after checking team coverage for that week.",
			citations: oneCitation,
			question:  "Who approves remote work requests?",
			want:      Verdict{IsValid: false, Reason: ReasonNotRelevant},
		},
		{
			name:      "three shared tokens meets quality",
			answer:    "Your line manager approves remote work arrangements after checking team coverage for that week.",
			citations: oneCitation,
			question:  "Who approves remote work requests?",
			want:      Verdict{IsValid: true, Reason: ReasonQuality},
		},
		{
			name:      "good answer",
			answer:    "The annual leave policy gives you 20 days of annual leave per year [Source: leave.md, Page 1].",
			citations: oneCitation,
			question:  "What is the annual leave policy?",
			want:      Verdict{IsValid: true, Reason: ReasonQuality},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.answer, tt.citations, tt.question)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	answer := "The annual leave policy gives you 20 days of annual leave per year."
	question := "What is the annual leave policy?"

	first := Validate(answer, oneCitation, question)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(answer, oneCitation, question))
	}
}

func TestUncertaintyIsCaseSensitive(t *testing.T) {
	got := Validate("i'm not sure", nil, "anything")
	assert.Equal(t, ReasonNoCitations, got.Reason)
}

func TestKeywordOverlap(t *testing.T) {
	assert.Equal(t, 0, KeywordOverlap("", "anything at all"))
	assert.Equal(t, 4, KeywordOverlap("What is the policy", "the POLICY is what it is"))
	// stop-words count, punctuation is part of the token
	assert.Equal(t, 1, KeywordOverlap("leave?", "leave? leave"))
}

// A correct, cited answer that shares only "days" with the question is still
// rejected as not relevant.
func TestShortCorrectAnswerCanBeFlaggedNotRelevant(t *testing.T) {
	answer := "Employees receive twenty days per year, accrued monthly from their start date."
	question := "How many days of annual leave do I get?"

	assert.Equal(t, 1, KeywordOverlap(question, answer))
	assert.Equal(t, Verdict{IsValid: false, Reason: ReasonNotRelevant}, Validate(answer, oneCitation, question))
}

func TestKeywordOverlapAtThreshold(t *testing.T) {
	question := "Who approves remote work requests?"

	assert.Equal(t, minOverlap, KeywordOverlap(question, "Your line manager approves remote arrangements after checking team coverage for that week."))
	assert.Equal(t, minOverlap+1, KeywordOverlap(question, "Your line manager approves remote work arrangements after checking team coverage for that week."))
}
