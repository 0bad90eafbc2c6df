package core

// RunState identifies a phase of an agent run. A run moves from StateStart
// through one or more StateGenerating passes, interleaving StateToolDispatch
// while the model keeps requesting tools, and ends in exactly one of the two
// terminal states.
type RunState string

const (
	StateStart        RunState = "start"
	StateGenerating   RunState = "generating"
	StateToolDispatch RunState = "tool_dispatch"
	StateDone         RunState = "done"
	StateError        RunState = "error"
)

// Terminal reports whether the state ends the run.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateError
}
