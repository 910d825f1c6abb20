package types

// OutcomeState tags the result of a lookup that may fall back.
type OutcomeState string

const (
	OutcomeFound    OutcomeState = "found"
	OutcomeFellBack OutcomeState = "fell_back"
	OutcomeNotFound OutcomeState = "not_found"
)

// Outcome is the result of a lookup with a fallback chain. Reason explains
// a fallback or a miss; Value is the zero value when the state is NotFound.
type Outcome[T any] struct {
	State  OutcomeState `json:"state"`
	Reason string       `json:"reason,omitempty"`
	Value  T            `json:"value"`
}

// Found wraps a value located by the preferred path.
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{State: OutcomeFound, Value: v}
}

// FellBack wraps a value located by a secondary path.
func FellBack[T any](reason string, v T) Outcome[T] {
	return Outcome[T]{State: OutcomeFellBack, Reason: reason, Value: v}
}

// NotFound records a lookup that produced nothing.
func NotFound[T any](reason string) Outcome[T] {
	return Outcome[T]{State: OutcomeNotFound, Reason: reason}
}

// Ok reports whether a value is present.
func (o Outcome[T]) Ok() bool { return o.State != OutcomeNotFound }
