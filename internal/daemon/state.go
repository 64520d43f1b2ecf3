package daemon

// State is a step of the coordinator's lifetime. Values only increase
// during a run, except that any step may jump to StateFailed.
type State int

const (
	StateStart State = iota
	StateProbing
	StateAlreadyRunning
	StateBound
	StateResourceAcquired
	StateServing
	StateStopping
	StateResourceReleased
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateProbing:
		return "probing"
	case StateAlreadyRunning:
		return "already_running"
	case StateBound:
		return "bound"
	case StateResourceAcquired:
		return "resource_acquired"
	case StateServing:
		return "serving"
	case StateStopping:
		return "stopping"
	case StateResourceReleased:
		return "resource_released"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is how Run ended.
type Outcome int

const (
	// OutcomeFailed accompanies a non-nil error from Run.
	OutcomeFailed Outcome = iota
	// OutcomeAlreadyRunning means another live daemon owns the socket.
	OutcomeAlreadyRunning
	// OutcomeStopped means this process served and shut down.
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyRunning:
		return "already_running"
	case OutcomeStopped:
		return "stopped"
	default:
		return "failed"
	}
}
