package explain

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Assembler turns ranked evidence into a display explanation. With no
// provider configured, or when the provider fails, it falls back to the
// deterministic local template; explanation failures never propagate.
type Assembler struct {
	provider Provider // nil = always use the fallback template
	verbose  bool
}

// NewAssembler creates a new explanation assembler
func NewAssembler(provider Provider, verbose bool) *Assembler {
	return &Assembler{provider: provider, verbose: verbose}
}

// Explain produces the explanation string for a verdict
func (a *Assembler) Explain(ctx context.Context, req Request) string {
	if a.provider != nil {
		text, err := a.provider.Generate(ctx, BuildPrompt(req))
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil && a.verbose {
			fmt.Fprintf(os.Stderr, "Warning: %s explanation failed, using fallback: %v\n", a.provider.Name(), err)
		}
	}

	return FallbackExplanation(req)
}
