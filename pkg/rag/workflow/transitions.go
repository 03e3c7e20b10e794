package workflow

import (
	"errors"
	"fmt"

	"ai-policydesk-be/pkg/rag/agent"
)

var (
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrTransitionBudget  = errors.New("workflow transition budget exhausted")
	ErrPortFailure       = errors.New("port failure")
)

// TransitionTable lists the phases reachable from each phase.
type TransitionTable map[Phase][]Phase

var validTransitions = TransitionTable{
	PhaseEntryGeneral:    {PhaseTerminal},
	PhaseEntrySpecialist: {PhaseClarify, PhaseRetrieve, PhaseOutOfScope, PhaseTroubleshoot, PhaseFollowUp},
	PhaseClarify:         {PhaseTerminal},
	PhaseRetrieve:        {PhaseGenerate},
	PhaseGenerate:        {PhaseValidate},
	PhaseValidate:        {PhaseTerminal, PhaseRetrieve},
	PhaseOutOfScope:      {PhaseTerminal},
	PhaseTroubleshoot:    {PhaseTerminal},
	PhaseFollowUp:        {PhaseTerminal},
}

// nextState is the routing function of the machine. It only reads ts.
func nextState(current State, ts TurnState) State {
	switch current.Phase {
	case PhaseEntrySpecialist:
		return routeSpecialist(current.Agent, ts.SpecialistIntent)
	case PhaseRetrieve:
		return specialistState(PhaseGenerate, current.Agent)
	case PhaseGenerate:
		return specialistState(PhaseValidate, current.Agent)
	case PhaseValidate:
		// the validate step either forces IsValid or has budget left
		if ts.IsValid {
			return Terminal
		}
		return specialistState(PhaseRetrieve, current.Agent)
	default:
		return Terminal
	}
}

func routeSpecialist(k agent.Kind, intent string) State {
	profile, _ := agent.ProfileFor(k)

	switch intent {
	case IntentAmbiguous:
		return specialistState(PhaseClarify, k)
	case IntentPolicyQuery:
		return specialistState(PhaseRetrieve, k)
	case IntentTroubleshooting:
		if profile.SupportsTroubleshooting {
			return specialistState(PhaseTroubleshoot, k)
		}
	case IntentFollowUpIssue:
		if profile.SupportsTroubleshooting {
			return specialistState(PhaseFollowUp, k)
		}
	}
	return specialistState(PhaseOutOfScope, k)
}

// checkTransition rejects moves missing from the table and any move that
// would hand the turn to a different specialist.
func checkTransition(from, to State) error {
	allowed := false
	for _, p := range validTransitions[from.Phase] {
		if p == to.Phase {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if to.Phase != PhaseTerminal && to.Agent != from.Agent {
		return fmt.Errorf("%w: %s -> %s changes agent", ErrInvalidTransition, from, to)
	}

	if to.Phase == PhaseTroubleshoot || to.Phase == PhaseFollowUp {
		if profile, ok := agent.ProfileFor(to.Agent); !ok || !profile.SupportsTroubleshooting {
			return fmt.Errorf("%w: %s not supported for %s", ErrInvalidTransition, to.Phase, to.Agent)
		}
	}
	return nil
}
