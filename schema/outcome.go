package schema

// Outcome reports whether a mutation changed state.
type Outcome string

const (
	// Applied means the mutation changed state and was published.
	Applied Outcome = "applied"
	// Ignored means the mutation did nothing.
	Ignored Outcome = "ignored"
)

// Result is embedded in every mutation response.
type Result struct {
	Outcome Outcome
	// Reason explains an Ignored outcome.
	Reason  error
	Effects []Effect
}

// Applied reports whether the mutation changed state.
func (r Result) Applied() bool {
	return r.Outcome == Applied
}

// AppliedResult builds an Applied result carrying effects.
func AppliedResult(effects ...Effect) Result {
	return Result{Outcome: Applied, Effects: effects}
}

// IgnoredResult builds an Ignored result.
func IgnoredResult(reason error) Result {
	return Result{Outcome: Ignored, Reason: reason}
}
