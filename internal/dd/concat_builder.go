package dd

import "strings"

// ConcatTestBuilder renders a config into a single artifact by
// concatenating the atoms (chars or lines of the original input) it
// references, in config order.
type ConcatTestBuilder struct {
	content []string
}

// NewConcatTestBuilder builds a ConcatTestBuilder over content, the
// atoms the original input was split into.
func NewConcatTestBuilder(content []string) *ConcatTestBuilder {
	return &ConcatTestBuilder{content: content}
}

func (b *ConcatTestBuilder) Build(config Config) string {
	var sb strings.Builder
	for _, atom := range config {
		sb.WriteString(b.content[atom])
	}

	return sb.String()
}
