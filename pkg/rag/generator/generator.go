// Package generator turns workflow generation requests into LLM calls.
package generator

import (
	"context"
	"fmt"
	"strings"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/rag/workflow"
	"ai-policydesk-be/pkg/store"
)

type LLMGenerator struct {
	llmProvider llm.LLMProvider
	options     []llm.Option
}

// NewLLMGenerator applies options to every call, e.g. llm.WithMaxTokens.
func NewLLMGenerator(llmProvider llm.LLMProvider, options ...llm.Option) *LLMGenerator {
	return &LLMGenerator{llmProvider: llmProvider, options: options}
}

var _ workflow.Generator = (*LLMGenerator)(nil)

func (g *LLMGenerator) Generate(ctx context.Context, req workflow.GenerationRequest) (string, error) {
	history, err := BuildMessages(req)
	if err != nil {
		return "", err
	}
	return g.llmProvider.Chat(ctx, history, g.options...)
}

func (g *LLMGenerator) GenerateStream(ctx context.Context, req workflow.GenerationRequest) (llm.Stream, error) {
	history, err := BuildMessages(req)
	if err != nil {
		return nil, err
	}
	return g.llmProvider.ChatStream(ctx, history, g.options...)
}

// BuildMessages renders the system and user messages for req.
func BuildMessages(req workflow.GenerationRequest) ([]llm.Message, error) {
	var system, user string

	switch req.Mode {
	case workflow.ModeGrounded:
		system, user = groundedPrompt(req.Passages), req.Query
	case workflow.ModeGeneral:
		system, user = generalPrompt(), req.Query
	case workflow.ModeClarify:
		system, user = clarifyPrompt(req.Query, req.Reason), "Generate clarification question:"
	case workflow.ModeTroubleshoot:
		system, user = troubleshootPrompt(req.Agent), req.Query
	default:
		return nil, fmt.Errorf("generator: unsupported mode %s", req.Mode)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

// FormatContext renders passages with the same source markers answers
// are asked to cite.
func FormatContext(passages []store.Passage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf("[Source: %s, Page %d]\n%s", p.SourceDocument, p.PageNumber, p.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func groundedPrompt(passages []store.Passage) string {
	var prompt strings.Builder

	prompt.WriteString("You are a helpful enterprise policy assistant.\n\n")
	prompt.WriteString("CRITICAL RULES:\n")
	prompt.WriteString("1. Answer ONLY using the provided context\n")
	prompt.WriteString("2. ALWAYS cite your sources using this format: [Source: filename, Page X]\n")
	prompt.WriteString("3. If the answer is not in the context, say \"I don't have enough information\"\n")
	prompt.WriteString("4. Be precise and factual\n")
	prompt.WriteString("5. If there are conflicting policies, mention both with their sources\n\n")
	prompt.WriteString("Context:\n")
	prompt.WriteString(FormatContext(passages))

	return prompt.String()
}

func generalPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("You are a friendly Personal Assistant for a company.\n\n")
	prompt.WriteString("Answer simple, general questions about the company in a helpful, concise way.\n\n")
	prompt.WriteString("If the user asks about specific policies (HR, Leave, IT Security, Compliance), tell them: ")
	prompt.WriteString("\"For detailed policy information, please ask me to connect you to our HR Agent or IT Support Agent.\"\n\n")
	prompt.WriteString("Keep responses brief (2-3 sentences) and friendly.")

	return prompt.String()
}

func clarifyPrompt(question, reason string) string {
	var prompt strings.Builder

	prompt.WriteString("Generate a helpful clarification question for the user.\n")
	prompt.WriteString("Keep it concise and specific. Offer 2-3 specific options if possible.\n\n")
	prompt.WriteString("Examples:\n")
	prompt.WriteString("- \"Could you clarify: are you asking about annual leave, sick leave, or maternity leave?\"\n")
	prompt.WriteString("- \"Do you mean personal devices or company-issued devices?\"\n")
	prompt.WriteString("- \"Is this for permanent employees or contractors?\"\n\n")
	prompt.WriteString("Original question: " + question + "\n")
	prompt.WriteString("Reason for clarification: " + reason)

	return prompt.String()
}

func troubleshootPrompt(k agent.Kind) string {
	name := "IT Support"
	if p, ok := agent.ProfileFor(k); ok {
		name = p.Name
	}

	var prompt strings.Builder

	prompt.WriteString("You are " + name + ", helping an employee fix a technical problem.\n\n")
	prompt.WriteString("Give clear, numbered troubleshooting steps the employee can follow on their own.\n")
	prompt.WriteString("Start with the simplest and most likely fixes.\n")
	prompt.WriteString("Do not ask for passwords or other secrets.\n")
	prompt.WriteString("Keep it under 8 steps.")

	return prompt.String()
}
