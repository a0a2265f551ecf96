// Package oracle wraps the structured-extraction model behind a narrow
// capability interface. The model is treated as untrusted: high latency,
// occasionally malformed, non-deterministic. All validation happens in the
// callers; this package only moves text in and out and repairs the most
// common JSON damage.
package oracle

import "context"

// Oracle converts extraction instructions plus page text into a raw model
// response. Implementations make no guarantee about the response structure.
type Oracle interface {
	Infer(ctx context.Context, instructions, input string) (string, error)
}

// Func adapts a plain function to the Oracle interface. Used by tests to
// script deterministic responses.
type Func func(ctx context.Context, instructions, input string) (string, error)

// Infer implements Oracle.
func (f Func) Infer(ctx context.Context, instructions, input string) (string, error) {
	return f(ctx, instructions, input)
}
