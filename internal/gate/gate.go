// Package gate owns the accept/retry/reject decision for an assembled
// document. The run moves through an explicit state machine with an
// externally observable attempt counter, so retry behavior is testable
// on its own rather than buried in orchestration control flow.
package gate

import "fmt"

// State is one phase of a run's quality lifecycle.
type State string

const (
	StatePending    State = "PENDING"
	StateGenerating State = "GENERATING"
	StateAssembled  State = "ASSEMBLED"
	StateEvaluating State = "EVALUATING"
	StateAccepted   State = "ACCEPTED"
	StateRetrying   State = "RETRYING"
	StateRejected   State = "REJECTED"
)

// EvaluationResult is the evaluator's verdict on one assembled document.
type EvaluationResult struct {
	Score   float64  `json:"score"`
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Gate tracks the quality state machine for a single run. The first
// generation is attempt 1; maxRetries bounds how many more generations may
// follow a failed evaluation.
type Gate struct {
	threshold  float64
	maxRetries int
	state      State
	attempt    int
}

// New creates a gate in StatePending.
func New(threshold float64, maxRetries int) *Gate {
	return &Gate{
		threshold:  threshold,
		maxRetries: maxRetries,
		state:      StatePending,
	}
}

// State returns the current state.
func (g *Gate) State() State { return g.state }

// Attempt returns the current generation attempt, starting at 1 after the
// first BeginGeneration.
func (g *Gate) Attempt() int { return g.attempt }

// Threshold returns the configured minimum accepted score.
func (g *Gate) Threshold() float64 { return g.threshold }

// BeginGeneration starts a generation attempt. Valid from PENDING (first
// attempt) and RETRYING (subsequent attempts).
func (g *Gate) BeginGeneration() error {
	if g.state != StatePending && g.state != StateRetrying {
		return fmt.Errorf("gate: cannot generate from state %s", g.state)
	}
	g.state = StateGenerating
	g.attempt++
	return nil
}

// MarkAssembled records that the fragments were assembled into one document.
func (g *Gate) MarkAssembled() error {
	if g.state != StateGenerating {
		return fmt.Errorf("gate: cannot assemble from state %s", g.state)
	}
	g.state = StateAssembled
	return nil
}

// BeginEvaluation moves the assembled document under evaluation.
func (g *Gate) BeginEvaluation() error {
	if g.state != StateAssembled {
		return fmt.Errorf("gate: cannot evaluate from state %s", g.state)
	}
	g.state = StateEvaluating
	return nil
}

// Decide applies the threshold to an evaluation score and advances the state
// machine: ACCEPTED on a passing score, RETRYING while retry budget remains,
// REJECTED once it is exhausted. The returned result carries the pass/fail
// verdict alongside the evaluator's score and reasons.
func (g *Gate) Decide(score float64, reasons []string) (EvaluationResult, error) {
	if g.state != StateEvaluating {
		return EvaluationResult{}, fmt.Errorf("gate: cannot decide from state %s", g.state)
	}

	result := EvaluationResult{
		Score:   score,
		Passed:  score >= g.threshold,
		Reasons: reasons,
	}
	g.state = g.nextState(result.Passed)
	return result, nil
}

// FailAttempt consumes the same retry budget for a generation-stage failure
// (collaborator timeout or transient error) as a low score would.
func (g *Gate) FailAttempt() error {
	if g.state != StateGenerating && g.state != StateAssembled && g.state != StateEvaluating {
		return fmt.Errorf("gate: cannot fail attempt from state %s", g.state)
	}
	g.state = g.nextState(false)
	return nil
}

// nextState resolves pass/fail into the terminal or retry state. Retries
// used so far equal attempt-1.
func (g *Gate) nextState(passed bool) State {
	if passed {
		return StateAccepted
	}
	if g.attempt-1 < g.maxRetries {
		return StateRetrying
	}
	return StateRejected
}

// Terminal reports whether the gate reached ACCEPTED or REJECTED.
func (g *Gate) Terminal() bool {
	return g.state == StateAccepted || g.state == StateRejected
}
