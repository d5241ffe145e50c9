package store

import "context"

// Step is one fallible stage of a Pipeline
type Step struct {
	Name string
	Run  func(ctx context.Context) (Command, error)
}

// Pipeline runs dependent steps in order
type Pipeline []Step

// Run executes the steps in order and stops at the first failure. The result
// holds the command of every step that succeeded, followed by a Failed
// command naming the step that broke the chain, if any. Steps after a
// failure never run.
func (p Pipeline) Run(ctx context.Context) Batch {
	out := make(Batch, 0, len(p))
	for _, step := range p {
		if err := ctx.Err(); err != nil {
			return append(out, Failed{Op: step.Name, Err: err})
		}
		cmd, err := step.Run(ctx)
		if err != nil {
			return append(out, Failed{Op: step.Name, Err: err})
		}
		if cmd != nil {
			out = append(out, cmd)
		}
	}
	return out
}

// Failure returns the Failed command of a pipeline result, if any
func (b Batch) Failure() (Failed, bool) {
	for _, c := range b {
		if f, ok := c.(Failed); ok {
			return f, true
		}
	}
	return Failed{}, false
}
