package fsm

// Transition defines a state change rule.
//
// AnyState makes the rule match regardless of the current state (From is
// ignored). Internal marks a rule that runs its action without leaving the
// current state (To is ignored).
type Transition[S, E comparable] struct {
	From     S
	AnyState bool
	Event    E
	To       S
	Internal bool
	Action   func(ctx *Context[S, E]) // Optional: runs during transition
}

func (t *Transition[S, E]) matches(state S, event E) bool {
	return t.Event == event && (t.AnyState || t.From == state)
}

// TransitionOption is a functional option for configuring a Transition
type TransitionOption[S, E comparable] func(*Transition[S, E])

// WithAction sets an action to execute during the transition
func WithAction[S, E comparable](fn func(*Context[S, E])) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		t.Action = fn
	}
}
