package dd

import "context"

// Tester evaluates a single config and reports whether it reproduces
// the interesting behavior being reduced. Implementations must be
// deterministic with respect to config (outside of the assert
// re-check, the engine assumes calling Test twice on the same config
// yields the same Outcome) and must not mutate config.
//
// id identifies this particular test within the reduction (its
// position in the iteration order, plus any "assert" tag) and is
// typically used to name a scratch work directory.
type Tester interface {
	Test(ctx context.Context, config Config, id ConfigID) (Outcome, error)
}

// TesterFunc adapts a plain function to a Tester.
type TesterFunc func(ctx context.Context, config Config, id ConfigID) (Outcome, error)

func (f TesterFunc) Test(ctx context.Context, config Config, id ConfigID) (Outcome, error) {
	return f(ctx, config, id)
}
