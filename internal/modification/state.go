package modification

// State is a step of the modification handler.
type State int

// Handler states in execution order. Failed is reachable from any state.
const (
	StateIdle State = iota
	StateFormatChecking
	StatePrompting
	StateRecoveringJSON
	StateMerging
	StateTimestamping
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateFormatChecking: "format-checking",
	StatePrompting:      "prompting",
	StateRecoveringJSON: "recovering-json",
	StateMerging:        "merging",
	StateTimestamping:   "timestamping",
	StateDone:           "done",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// canTransition reports whether the handler may move from s to next.
func (s State) canTransition(next State) bool {
	if next == StateFailed {
		return s != StateDone && s != StateFailed
	}
	return next == s+1 && next <= StateDone
}
