package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario *Scenario

	// Passed is true when every step ran and every expectation held.
	Passed bool

	// Failures lists expectation mismatches, prefixed by step number.
	Failures []string

	// Err is the error that aborted the scenario, if any.
	Err error

	// Steps is the number of steps executed.
	Steps int

	// Delivered is the number of messages delivered.
	Delivered int

	// SessionID identifies the run in protocol captures.
	SessionID string

	Duration time.Duration
}

// Runner executes scenarios.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run executes sc. Expectation mismatches do not stop the scenario; step
// errors do.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	start := time.Now()
	res := &Result{Scenario: sc}
	defer func() {
		res.Duration = time.Since(start)
		res.Passed = res.Err == nil && len(res.Failures) == 0
	}()

	env, err := Setup(sc, r.opts)
	if err != nil {
		res.Err = fmt.Errorf("setup: %w", err)
		return res
	}
	res.SessionID = env.Consist.SessionID()
	logger := r.logger.With("scenario", sc.ID, "session", res.SessionID)

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		logger.Debug("step", "n", i+1, "action", st.Action, "description", st.Description)

		if err := env.Apply(st); err != nil {
			res.Err = fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
			return res
		}
		res.Steps++
		for _, f := range env.Check(st.Expect) {
			res.Failures = append(res.Failures, fmt.Sprintf("step %d: %s", i+1, f))
		}
	}
	res.Delivered = env.Consist.Delivered()
	return res
}

// RunAll executes every scenario in order.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) []*Result {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, r.Run(ctx, sc))
	}
	return results
}
