// Package classifier maps user messages to workflow intents with an LLM.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/rag/workflow"
)

// LLMClassifier asks the model for a fixed "KEY: value" reply and parses it.
type LLMClassifier struct {
	llmProvider llm.LLMProvider
}

func NewLLMClassifier(llmProvider llm.LLMProvider) *LLMClassifier {
	return &LLMClassifier{llmProvider: llmProvider}
}

var _ workflow.Classifier = (*LLMClassifier)(nil)

func (c *LLMClassifier) ClassifyGeneral(ctx context.Context, message string) (workflow.Classification, error) {
	reply, err := c.ask(ctx, generalPrompt(), message)
	if err != nil {
		return workflow.Classification{}, err
	}
	return ParseGeneral(reply), nil
}

func (c *LLMClassifier) ClassifySpecialist(ctx context.Context, specialist agent.Kind, message string) (workflow.Classification, error) {
	profile, ok := agent.ProfileFor(specialist)
	if !ok {
		return workflow.Classification{}, fmt.Errorf("classifier: %q is not a specialist", specialist)
	}

	reply, err := c.ask(ctx, specialistPrompt(profile), message)
	if err != nil {
		return workflow.Classification{}, err
	}
	return ParseSpecialist(reply), nil
}

func (c *LLMClassifier) ask(ctx context.Context, system, message string) (string, error) {
	// Temperature 0 for deterministic labels
	return c.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: message},
	}, llm.WithTemperature(0.0))
}

// ParseGeneral reads INTENT and TARGET lines. Unknown intents become
// general_query; a target other than hr or it becomes "none".
func ParseGeneral(reply string) workflow.Classification {
	fields := parseFields(reply)

	result := workflow.Classification{Intent: workflow.IntentGeneralQuery, Target: "none"}

	switch intent := strings.ToLower(fields["INTENT"]); intent {
	case workflow.IntentGreeting, workflow.IntentTransferRequest, workflow.IntentGeneralQuery, workflow.IntentOutOfScope:
		result.Intent = intent
	}

	if target, ok := agent.Parse(fields["TARGET"]); ok && target.IsSpecialist() {
		result.Target = string(target)
	}
	return result
}

// ParseSpecialist reads INTENT and CATEGORY lines. Missing values default to
// policy_query and General. Intents the specialist cannot serve are passed
// through; the workflow declines them.
func ParseSpecialist(reply string) workflow.Classification {
	fields := parseFields(reply)

	result := workflow.Classification{Intent: workflow.IntentPolicyQuery, Category: agent.CategoryGeneral}
	if intent := strings.ToLower(fields["INTENT"]); intent != "" {
		result.Intent = intent
	}
	if category := fields["CATEGORY"]; category != "" {
		result.Category = agent.CanonicalCategory(category)
	}
	return result
}

// parseFields collects "KEY: value" lines, first occurrence wins.
func parseFields(reply string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = strings.Trim(strings.TrimSpace(value), `"'.`)
	}
	return fields
}
