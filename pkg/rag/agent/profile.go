package agent

import "strings"

// Kind identifies which agent owns a conversation.
type Kind string

const (
	General Kind = "personal"
	HR      Kind = "hr"
	IT      Kind = "it"
)

// Category constants used to partition the policy corpus
const (
	CategoryHR         = "HR"
	CategoryLeave      = "Leave"
	CategoryIT         = "IT"
	CategoryCompliance = "Compliance"
	CategoryGeneral    = "General"
)

// Parse maps a wire name ("hr", "IT", "personal", "") to a Kind.
// Empty input resolves to General.
func Parse(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "personal", "general":
		return General, true
	case "hr":
		return HR, true
	case "it":
		return IT, true
	default:
		return "", false
	}
}

func (k Kind) IsSpecialist() bool {
	return k == HR || k == IT
}

func (k Kind) String() string {
	return string(k)
}

// Profile holds everything that differs between the two specialists.
type Profile struct {
	Kind            Kind
	Short           string
	Name            string
	Label           string
	Categories      [2]string
	PrimaryCategory string
	Domain          string
	ClarifyReason   string
	DeclineText     string
	FallbackText    string

	// Only IT answers troubleshooting and follow-up issues without retrieval.
	SupportsTroubleshooting bool
}

var profiles = map[Kind]Profile{
	HR: {
		Kind:            HR,
		Short:           "HR",
		Name:            "HR Agent",
		Label:           "[HR Agent] ",
		Categories:      [2]string{CategoryHR, CategoryLeave},
		PrimaryCategory: CategoryHR,
		Domain:          "HR and Leave policies (hiring, termination, probation, annual leave, sick leave, maternity leave)",
		ClarifyReason:   "Your question about HR policies needs more detail",
		DeclineText: "I specialize in HR and Leave policies (hiring, termination, probation, " +
			"annual leave, sick leave, maternity leave, etc.). " +
			"Your question seems outside my area of expertise.\n\n" +
			"If you need help with another topic, please ask the Personal Assistant " +
			"to connect you to the right specialist.",
		FallbackText: "I apologize, but I'm having trouble providing a confident answer to your question. " +
			"This might be because:\n" +
			"- The information is not in our HR policy documents\n" +
			"- The question needs to be more specific\n" +
			"- Multiple policies may apply\n\n" +
			"Please try rephrasing your question or contact HR directly for assistance.",
	},
	IT: {
		Kind:            IT,
		Short:           "IT",
		Name:            "IT Support",
		Label:           "[IT Support] ",
		Categories:      [2]string{CategoryIT, CategoryCompliance},
		PrimaryCategory: CategoryIT,
		Domain:          "IT Security and Compliance policies (device security, passwords, VPN, data privacy, code of conduct)",
		ClarifyReason:   "Your question about IT policies needs more detail",
		DeclineText: "I specialize in IT Security and Compliance policies (device security, " +
			"passwords, VPN, data privacy, code of conduct, etc.). " +
			"Your question seems outside my area of expertise.\n\n" +
			"If you need help with another topic, please ask the Personal Assistant " +
			"to connect you to the right specialist.",
		FallbackText: "I apologize, but I'm having trouble providing a confident answer to your question. " +
			"This might be because:\n" +
			"- The information is not in our IT policy documents\n" +
			"- The question needs to be more specific\n" +
			"- Multiple policies may apply\n\n" +
			"Please try rephrasing your question or contact IT Support directly for assistance.",
		SupportsTroubleshooting: true,
	},
}

// ProfileFor returns the specialist profile for k. General has no profile.
func ProfileFor(k Kind) (Profile, bool) {
	p, ok := profiles[k]
	return p, ok
}

// Specialists lists the specialist kinds in a stable order.
func Specialists() []Kind {
	return []Kind{HR, IT}
}

// OwnsCategory reports whether category is one of the two owned by p.
// Comparison is case-insensitive.
func (p Profile) OwnsCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ClampCategory returns the canonical owned category matching category,
// or the primary category when category belongs to someone else.
func (p Profile) ClampCategory(category string) string {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return p.PrimaryCategory
}

// CanonicalCategory returns the known spelling of category ("leave" → "Leave").
// Unknown categories are returned unchanged.
func CanonicalCategory(category string) string {
	for _, c := range []string{CategoryHR, CategoryLeave, CategoryIT, CategoryCompliance, CategoryGeneral} {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return category
}
