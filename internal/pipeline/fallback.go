package pipeline

import (
	"context"
	"fmt"

	"github.com/gameview/reconstruct/internal/engine"
)

// FallbackEngine is one reconstruction engine in a primary/secondary pair.
type FallbackEngine struct {
	Name   string
	Invoke func(ctx context.Context) engine.Result
}

// Attempt records one engine invocation within a fallback sequence.
type Attempt struct {
	Engine string
	Result engine.Result
}

// FallbackOutcome is the terminal outcome of a fallback sequence: one or
// two attempts, of which at most one is accepted.
type FallbackOutcome struct {
	Attempts []Attempt
	Accepted int // index into Attempts, -1 when both failed
}

func (o FallbackOutcome) Succeeded() bool { return o.Accepted >= 0 }

// FailureDetail carries the most recent attempt's error, which is the
// secondary's when both engines ran.
func (o FallbackOutcome) FailureDetail() string {
	if len(o.Attempts) == 0 {
		return "no engine was invoked"
	}
	last := o.Attempts[len(o.Attempts)-1]
	return fmt.Sprintf("%s: %s", last.Engine, failDetail(last.Result))
}

// Coordinator runs the primary engine and, only on demonstrated failure,
// the secondary. This is a strict short-circuit, never a race: the
// secondary is the slower, more expensive method, so invoking it is the
// stage's accepted inferior outcome, not a parallel hedge.
type Coordinator struct {
	Primary   FallbackEngine
	Secondary FallbackEngine

	// OnFallback fires between the failed primary attempt and the
	// secondary invocation, for progress checkpointing.
	OnFallback func(primary Attempt)
}

func (c Coordinator) Run(ctx context.Context) FallbackOutcome {
	out := FallbackOutcome{Accepted: -1}

	first := Attempt{Engine: c.Primary.Name, Result: c.Primary.Invoke(ctx)}
	out.Attempts = append(out.Attempts, first)
	if first.Result.Succeeded {
		out.Accepted = 0
		return out
	}

	if c.Secondary.Invoke == nil {
		return out
	}
	if c.OnFallback != nil {
		c.OnFallback(first)
	}

	second := Attempt{Engine: c.Secondary.Name, Result: c.Secondary.Invoke(ctx)}
	out.Attempts = append(out.Attempts, second)
	if second.Result.Succeeded {
		out.Accepted = 1
	}
	return out
}
