package workflow

import (
	"testing"

	"ai-policydesk-be/pkg/rag/agent"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	hrEntry := specialistState(PhaseEntrySpecialist, agent.HR)
	itEntry := specialistState(PhaseEntrySpecialist, agent.IT)

	tests := []struct {
		name    string
		current State
		ts      TurnState
		want    State
	}{
		{"general entry ends", State{Phase: PhaseEntryGeneral}, TurnState{}, Terminal},
		{"ambiguous clarifies", hrEntry, TurnState{SpecialistIntent: IntentAmbiguous}, specialistState(PhaseClarify, agent.HR)},
		{"policy retrieves", itEntry, TurnState{SpecialistIntent: IntentPolicyQuery}, specialistState(PhaseRetrieve, agent.IT)},
		{"it troubleshoots", itEntry, TurnState{SpecialistIntent: IntentTroubleshooting}, specialistState(PhaseTroubleshoot, agent.IT)},
		{"it follows up", itEntry, TurnState{SpecialistIntent: IntentFollowUpIssue}, specialistState(PhaseFollowUp, agent.IT)},
		{"hr declines troubleshooting", hrEntry, TurnState{SpecialistIntent: IntentTroubleshooting}, specialistState(PhaseOutOfScope, agent.HR)},
		{"hr declines follow up", hrEntry, TurnState{SpecialistIntent: IntentFollowUpIssue}, specialistState(PhaseOutOfScope, agent.HR)},
		{"unknown intent declines", hrEntry, TurnState{SpecialistIntent: "weather"}, specialistState(PhaseOutOfScope, agent.HR)},
		{"retrieve generates", specialistState(PhaseRetrieve, agent.HR), TurnState{}, specialistState(PhaseGenerate, agent.HR)},
		{"generate validates", specialistState(PhaseGenerate, agent.IT), TurnState{}, specialistState(PhaseValidate, agent.IT)},
		{"valid ends", specialistState(PhaseValidate, agent.HR), TurnState{IsValid: true}, Terminal},
		{"invalid retries", specialistState(PhaseValidate, agent.HR), TurnState{IsValid: false, RetryCount: 1}, specialistState(PhaseRetrieve, agent.HR)},
		{"clarify ends", specialistState(PhaseClarify, agent.IT), TurnState{}, Terminal},
		{"out of scope ends", specialistState(PhaseOutOfScope, agent.IT), TurnState{}, Terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextState(tt.current, tt.ts)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, checkTransition(tt.current, got))
		})
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"skip generate", specialistState(PhaseRetrieve, agent.HR), specialistState(PhaseValidate, agent.HR)},
		{"cross specialist", specialistState(PhaseRetrieve, agent.HR), specialistState(PhaseGenerate, agent.IT)},
		{"hr troubleshoot", specialistState(PhaseEntrySpecialist, agent.HR), specialistState(PhaseTroubleshoot, agent.HR)},
		{"general into retrieval", State{Phase: PhaseEntryGeneral}, specialistState(PhaseRetrieve, agent.HR)},
		{"out of terminal", Terminal, State{Phase: PhaseEntryGeneral}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, checkTransition(tt.from, tt.to), ErrInvalidTransition)
		})
	}
}

func TestEntryState(t *testing.T) {
	assert.Equal(t, State{Phase: PhaseEntryGeneral}, EntryState(agent.General))
	assert.Equal(t, State{Phase: PhaseEntryGeneral}, EntryState(""))
	assert.Equal(t, specialistState(PhaseEntrySpecialist, agent.IT), EntryState(agent.IT))
	assert.Equal(t, "RETRIEVE(hr)", specialistState(PhaseRetrieve, agent.HR).String())
	assert.Equal(t, "TERMINAL", Terminal.String())
}
