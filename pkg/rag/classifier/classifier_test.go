package classifier

import (
	"context"
	"errors"
	"testing"

	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	reply   string
	err     error
	history []llm.Message
	temp    float64
}

func (s *scriptedLLM) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.history = history
	s.temp = llm.Apply(llm.Options{Temperature: 1}, opts...).Temperature
	return s.reply, s.err
}

func (s *scriptedLLM) ChatStream(context.Context, []llm.Message, ...llm.Option) (llm.Stream, error) {
	return nil, errors.New("not used")
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func TestParseGeneral(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  workflow.Classification
	}{
		{"transfer hr", "INTENT: transfer_request\nTARGET: hr\nREASON: asked for HR",
			workflow.Classification{Intent: workflow.IntentTransferRequest, Target: "hr"}},
		{"upper case values", "INTENT: GREETING\nTARGET: NONE",
			workflow.Classification{Intent: workflow.IntentGreeting, Target: "none"}},
		{"unknown target", "INTENT: transfer_request\nTARGET: finance",
			workflow.Classification{Intent: workflow.IntentTransferRequest, Target: "none"}},
		{"unknown intent", "INTENT: chit_chat\nTARGET: it",
			workflow.Classification{Intent: workflow.IntentGeneralQuery, Target: "it"}},
		{"garbage", "sure, happy to help!",
			workflow.Classification{Intent: workflow.IntentGeneralQuery, Target: "none"}},
		{"indented and quoted", "  INTENT: \"out_of_scope\"\n  TARGET: none",
			workflow.Classification{Intent: workflow.IntentOutOfScope, Target: "none"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGeneral(tt.reply))
		})
	}
}

func TestParseSpecialist(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  workflow.Classification
	}{
		{"policy leave", "INTENT: policy_query\nCATEGORY: Leave\nREASON: sick leave",
			workflow.Classification{Intent: workflow.IntentPolicyQuery, Category: agent.CategoryLeave}},
		{"category case", "INTENT: Ambiguous\nCATEGORY: compliance",
			workflow.Classification{Intent: workflow.IntentAmbiguous, Category: agent.CategoryCompliance}},
		{"missing fields", "I think this is about leave",
			workflow.Classification{Intent: workflow.IntentPolicyQuery, Category: agent.CategoryGeneral}},
		{"first line wins", "INTENT: troubleshooting\nINTENT: policy_query\nCATEGORY: IT",
			workflow.Classification{Intent: workflow.IntentTroubleshooting, Category: agent.CategoryIT}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSpecialist(tt.reply))
		})
	}
}

func TestClassifySpecialist_UsesProfilePrompt(t *testing.T) {
	model := &scriptedLLM{reply: "INTENT: troubleshooting\nCATEGORY: IT"}
	c := NewLLMClassifier(model)

	got, err := c.ClassifySpecialist(context.Background(), agent.IT, "VPN keeps dropping")
	require.NoError(t, err)
	assert.Equal(t, workflow.IntentTroubleshooting, got.Intent)
	assert.Equal(t, 0.0, model.temp)
	require.Len(t, model.history, 2)
	assert.Contains(t, model.history[0].Content, "troubleshooting")
	assert.Equal(t, "VPN keeps dropping", model.history[1].Content)

	_, err = c.ClassifySpecialist(context.Background(), agent.HR, "VPN keeps dropping")
	require.NoError(t, err)
	assert.NotContains(t, model.history[0].Content, "follow_up_issue")

	_, err = c.ClassifySpecialist(context.Background(), agent.General, "hi")
	assert.Error(t, err)
}

func TestClassifyGeneral_PropagatesErrors(t *testing.T) {
	c := NewLLMClassifier(&scriptedLLM{err: errors.New("rate limited")})

	_, err := c.ClassifyGeneral(context.Background(), "hello")
	assert.Error(t, err)
}
