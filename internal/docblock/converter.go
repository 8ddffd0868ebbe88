// Package docblock turns raw documentation comments into Markdown fragments.
//
// A comment runs through a fixed, ordered list of string rewrites: delimiter
// stripping, paragraph normalization, @param and @return headings,
// continuation-marker removal, inline markup unwrapping, field label bullets
// and blank-line cleanup. Conversion never fails; text that no stage
// recognizes is emitted as written.
package docblock

import "strings"

// Converter renders member docblocks. It holds no mutable state and is safe
// for concurrent use.
type Converter struct {
	vocabulary Vocabulary
	pipeline   Pipeline
}

// Option configures a Converter.
type Option func(*Converter)

// WithVocabulary replaces the field label vocabulary. A nil or empty
// vocabulary disables label formatting.
func WithVocabulary(v Vocabulary) Option {
	return func(c *Converter) {
		c.vocabulary = v.Clone()
	}
}

// NewConverter builds a converter using the default label vocabulary unless
// overridden.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{vocabulary: DefaultVocabulary()}
	for _, opt := range opts {
		opt(c)
	}
	c.pipeline = Pipeline{
		{Name: "strip-delimiters", Apply: StripDelimiters},
		{Name: "paragraphs", Apply: Paragraphs},
		{Name: "params", Apply: RewriteParams},
		{Name: "returns", Apply: RewriteReturns},
		{Name: "continuation", Apply: StripContinuation},
		{Name: "paragraph-tags", Apply: UnwrapParagraphTags},
		{Name: "field-labels", Apply: FieldLabels(c.vocabulary)},
		{Name: "empty-fences", Apply: RemoveEmptyFences},
		{Name: "collapse", Apply: CollapseBlankLines},
		{Name: "terminate", Apply: Terminate},
	}
	return c
}

// Stages lists the body stage names in execution order.
func (c *Converter) Stages() []string {
	names := make([]string, len(c.pipeline))
	for i, st := range c.pipeline {
		names[i] = st.Name
	}
	return names
}

// Convert renders the docblock of the member called name. An empty rawDoc
// means the member is undocumented and yields the heading alone.
func (c *Converter) Convert(name, rawDoc string) string {
	return Heading(name) + c.pipeline.Run(rawDoc)
}

// Heading is the level-2 heading that opens every fragment, followed by its
// blank separator line.
func Heading(name string) string {
	return "## " + name + "\n\n"
}

// Assemble joins fragments in the given order with one blank line between
// them. Trailing newlines of each fragment are trimmed first; nothing else
// in a fragment is changed.
func Assemble(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = strings.TrimRight(f, "\n")
	}
	return strings.Join(parts, "\n\n") + "\n"
}
