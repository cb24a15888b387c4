package guard

import (
	"context"
	"fmt"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/expand"
)

// Violation is a failed structural check. Prune optionally names the
// ground-truth elements whose removal would clear the violation; an
// empty prune list means the violation is not prunable.
type Violation struct {
	Guard   string
	Message string
	Prune   []string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("guard '%s' violated: %s", v.Guard, v.Message)
}

// Func checks one structural invariant over a ground truth. A nil
// return means the check passed.
type Func func(gt *expand.GroundTruth) *Violation

// Named pairs a guard with the name it was registered under, so
// violations and logs can identify which check fired.
type Named struct {
	Name  string
	Check Func
}

// Mode selects how the runner recovers from a violation.
type Mode string

const (
	// ModeReject aborts on the first violation.
	ModeReject Mode = "reject"
	// ModeRetry discards the expansion, bumps the seed, and re-expands
	// up to MaxAttempts times.
	ModeRetry Mode = "retry"
	// ModePrune removes the violation's prune list from the ground
	// truth and rechecks.
	ModePrune Mode = "prune"
)

// RetryExhaustedError reports that retry mode ran out of attempts. It
// is distinct from a single Violation so callers can tell "guard is too
// strict" apart from "ran out of seeds".
type RetryExhaustedError struct {
	Attempts int
	Last     *Violation
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("guard validation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// ExpandFunc re-runs the expansion being validated at a given seed.
// Retry mode calls it once per attempt; the other modes call it once.
type ExpandFunc func(seed int64) (*expand.GroundTruth, error)

// Runner applies a guard set to an expansion under one recovery mode.
type Runner struct {
	Guards      []Named
	Mode        Mode
	MaxAttempts int   // retry mode bound; defaults to 10
	RetryStride int64 // seed increment per retry; defaults to 1
}

// Prune-mode rechecks are bounded: pruning one violation can surface
// another, and an unbounded loop here could oscillate.
const maxPrunePasses = 3

// Run expands at the given seed and validates the result, applying the
// configured recovery mode on violation.
func (r *Runner) Run(ctx context.Context, expandAt ExpandFunc, seed int64) (*expand.GroundTruth, error) {
	logger := ctxlog.FromContext(ctx)

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	stride := r.RetryStride
	if stride == 0 {
		stride = 1
	}

	currentSeed := seed
	var last *Violation
	for attempt := 0; attempt < maxAttempts; attempt++ {
		gt, err := expandAt(currentSeed)
		if err != nil {
			return nil, err
		}

		v := r.check(gt)
		if v == nil {
			return gt, nil
		}
		last = v

		switch r.Mode {
		case ModeReject, "":
			return nil, v
		case ModeRetry:
			logger.Debug("Guard violated, retrying with a new seed.",
				"guard", v.Guard, "attempt", attempt, "next_seed", currentSeed+stride)
			currentSeed += stride
			continue
		case ModePrune:
			return r.pruneAndRecheck(ctx, gt, v)
		default:
			return nil, fmt.Errorf("unknown guard mode: '%s'", r.Mode)
		}
	}
	return nil, &RetryExhaustedError{Attempts: maxAttempts, Last: last}
}

// Check validates a ground truth without any recovery. Used where the
// pipeline has nothing to re-expand.
func (r *Runner) Check(gt *expand.GroundTruth) error {
	if v := r.check(gt); v != nil {
		return v
	}
	return nil
}

func (r *Runner) check(gt *expand.GroundTruth) *Violation {
	for _, g := range r.Guards {
		if v := g.Check(gt); v != nil {
			return v
		}
	}
	return nil
}

func (r *Runner) pruneAndRecheck(ctx context.Context, gt *expand.GroundTruth, v *Violation) (*expand.GroundTruth, error) {
	logger := ctxlog.FromContext(ctx)

	for pass := 0; pass < maxPrunePasses; pass++ {
		if len(v.Prune) == 0 {
			return nil, v
		}
		logger.Debug("Pruning violating elements.", "guard", v.Guard, "count", len(v.Prune))
		for _, name := range v.Prune {
			gt.Remove(name)
		}
		v = r.check(gt)
		if v == nil {
			return gt, nil
		}
	}
	// Fail closed: pruning kept surfacing new violations.
	return nil, v
}
