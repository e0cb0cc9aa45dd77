package load

import (
	"fmt"
	"time"
)

// PhaseKind is the state of a load run.
type PhaseKind string

const (
	Idle        PhaseKind = "idle"
	RampingUp   PhaseKind = "ramping-up"
	Holding     PhaseKind = "holding"
	RampingDown PhaseKind = "ramping-down"
	// Drained means no VU is running any more, so no requests are in flight.
	Drained PhaseKind = "drained"
	// Completed means the threshold has been evaluated.
	Completed PhaseKind = "completed"
)

// Phase is a PhaseKind plus, for the three stage phases, the zero-based stage index.
type Phase struct {
	Kind  PhaseKind `json:"kind"`
	Stage int       `json:"stage,omitempty"`
}

func (p Phase) String() string {
	switch p.Kind {
	case RampingUp, Holding, RampingDown:
		return fmt.Sprintf("%s(%d)", p.Kind, p.Stage+1)
	default:
		return string(p.Kind)
	}
}

// stagePhase classifies a stage by comparing its target with the one before it.
func stagePhase(stages []Stage, index int) Phase {
	previous := 0
	if index > 0 {
		previous = stages[index-1].Target
	}
	switch target := stages[index].Target; {
	case target > previous:
		return Phase{Kind: RampingUp, Stage: index}
	case target < previous:
		return Phase{Kind: RampingDown, Stage: index}
	default:
		return Phase{Kind: Holding, Stage: index}
	}
}

// Transition records the moment a run entered a phase, as an offset from the run start.
type Transition struct {
	Phase Phase         `json:"phase"`
	At    time.Duration `json:"at"`
	VUs   int           `json:"vus"`
}

// Timeline is the ordered list of phase transitions of a run.
type Timeline []Transition

// Phases returns just the phases, in order.
func (t Timeline) Phases() []Phase {
	ret := make([]Phase, 0, len(t))
	for _, tr := range t {
		ret = append(ret, tr.Phase)
	}
	return ret
}
