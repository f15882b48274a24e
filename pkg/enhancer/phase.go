package enhancer

import (
	"fmt"
)

type Phase uint

const (
	PhaseRunning = Phase(iota)
	PhaseFlushing
	PhaseFlushed
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseFlushing:
		return "flushing"
	case PhaseFlushed:
		return "flushed"
	}
	return fmt.Sprintf("unknown_%d", uint(p))
}
