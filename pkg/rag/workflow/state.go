// Package workflow runs one conversation turn through the agent state machine.
package workflow

import (
	"fmt"

	"ai-policydesk-be/pkg/rag/agent"
)

type Phase int

const (
	PhaseEntryGeneral Phase = iota
	PhaseEntrySpecialist
	PhaseClarify
	PhaseRetrieve
	PhaseGenerate
	PhaseValidate
	PhaseOutOfScope
	PhaseTroubleshoot
	PhaseFollowUp
	PhaseTerminal
)

var phaseNames = map[Phase]string{
	PhaseEntryGeneral:    "ENTRY_GENERAL",
	PhaseEntrySpecialist: "ENTRY_SPECIALIST",
	PhaseClarify:         "CLARIFY",
	PhaseRetrieve:        "RETRIEVE",
	PhaseGenerate:        "GENERATE",
	PhaseValidate:        "VALIDATE",
	PhaseOutOfScope:      "OUT_OF_SCOPE",
	PhaseTroubleshoot:    "TROUBLESHOOT",
	PhaseFollowUp:        "FOLLOW_UP",
	PhaseTerminal:        "TERMINAL",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE(%d)", int(p))
}

// State is a phase bound to the specialist running it. ENTRY_GENERAL and
// TERMINAL carry no specialist.
type State struct {
	Phase Phase
	Agent agent.Kind
}

// Terminal ends every turn.
var Terminal = State{Phase: PhaseTerminal}

func (s State) String() string {
	if s.Phase == PhaseEntryGeneral || s.Phase == PhaseTerminal {
		return s.Phase.String()
	}
	return fmt.Sprintf("%s(%s)", s.Phase, s.Agent)
}

// EntryState picks where a turn starts. A session already handed to a
// specialist never goes back through the general agent.
func EntryState(active agent.Kind) State {
	if active.IsSpecialist() {
		return State{Phase: PhaseEntrySpecialist, Agent: active}
	}
	return State{Phase: PhaseEntryGeneral}
}

func specialistState(phase Phase, k agent.Kind) State {
	return State{Phase: phase, Agent: k}
}
