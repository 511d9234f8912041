// Package fallback implements the sequential candidate cascade shared
// by every capability resolver: try candidates strictly in order under
// a per-attempt timeout, short-circuit on the first success, and turn
// total exhaustion into a sentinel the caller maps to a soft
// "unavailable" response.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrExhausted is returned when every candidate failed. It is never a
// hard error at the API boundary; resolvers map it to available:false.
var ErrExhausted = errors.New("all candidates exhausted")

// Candidate is a single strategy for producing a T. Timeout of zero
// means the attempt runs under the caller's context alone, which is
// what in-process parse attempts use.
type Candidate[T any] struct {
	Name    string
	Timeout time.Duration
	Fn      func(ctx context.Context) (T, error)
}

// Run walks candidates in order. Attempts are never run in parallel:
// a second attempt starts only after the previous one has failed or
// timed out, so a slow mirror is abandoned, not raced.
func Run[T any](ctx context.Context, capability string, candidates []Candidate[T]) (T, error) {
	var zero T
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attemptCtx := ctx
		cancel := func() {}
		if cand.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cand.Timeout)
		}

		result, err := cand.Fn(attemptCtx)
		cancel()
		if err != nil {
			log.Printf("[WARN]: %s: candidate %q failed: %v", capability, cand.Name, err)
			continue
		}

		return result, nil
	}

	return zero, fmt.Errorf("%s: %w", capability, ErrExhausted)
}
