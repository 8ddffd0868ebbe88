package docblock

import (
	"regexp"
	"strings"
)

// Stage is a single rewrite pass over the working comment text.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline runs its stages left to right, feeding each the previous output.
type Pipeline []Stage

func (p Pipeline) Run(s string) string {
	for _, st := range p {
		s = st.Apply(s)
	}
	return s
}

var (
	openDelimiter  = regexp.MustCompile(`^/\*\*?`)
	closeDelimiter = regexp.MustCompile(`\*/$`)

	paramTag  = regexp.MustCompile(`@param[ \t]+(\S+)[ \t]+\$(\S+)(?:[ \t]+(.*))?`)
	returnTag = regexp.MustCompile(`@return[ \t]+(\S+)(?:[ \t]+(.*))?`)

	continuationMarker = regexp.MustCompile(`(?m)^[ \t]*(?:\*|//)(?:[ \t]+|$)`)
	paragraphTag       = regexp.MustCompile(`<p>(.*?)</p>`)
	emptyFence         = regexp.MustCompile("```\\s*```")
	blankRun           = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	trailingSpace      = regexp.MustCompile(`(?m)[ \t]+$`)
)

// StripDelimiters removes the opening "/**" (or "/*") and the closing "*/".
// Either may be missing.
func StripDelimiters(s string) string {
	s = strings.TrimSpace(s)
	s = openDelimiter.ReplaceAllString(s, "")
	s = closeDelimiter.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Paragraphs turns every line break into a paragraph break so that the tag
// rewrites below always see one logical line at a time.
func Paragraphs(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\n\n")
}

// RewriteParams renders each "@param <type> $<name> <description>" as a
// level-3 heading.
func RewriteParams(s string) string {
	return paramTag.ReplaceAllStringFunc(s, func(m string) string {
		sub := paramTag.FindStringSubmatch(m)
		return subsection("`$"+sub[2]+"`", sub[1], sub[3])
	})
}

// RewriteReturns renders each "@return <type> <description>" as a level-3
// heading.
func RewriteReturns(s string) string {
	return returnTag.ReplaceAllStringFunc(s, func(m string) string {
		sub := returnTag.FindStringSubmatch(m)
		return subsection("Return", sub[1], sub[2])
	})
}

func subsection(title, typ, desc string) string {
	h := "### " + title + " (" + typ + ")"
	if desc = strings.TrimSpace(desc); desc != "" {
		h += ": " + desc
	}
	return h + "\n\n"
}

// StripContinuation drops the leading "*" or "//" of comment body lines.
func StripContinuation(s string) string {
	return continuationMarker.ReplaceAllString(s, "")
}

// UnwrapParagraphTags keeps the text of <p>...</p> and drops the markup.
func UnwrapParagraphTags(s string) string {
	return paragraphTag.ReplaceAllString(s, "$1")
}

// RemoveEmptyFences drops code fences with nothing between them.
func RemoveEmptyFences(s string) string {
	return emptyFence.ReplaceAllString(s, "")
}

// CollapseBlankLines reduces every run of blank lines to a single one.
func CollapseBlankLines(s string) string {
	return blankRun.ReplaceAllString(s, "\n\n")
}

// Terminate trims the body and ends it with exactly one newline. An empty
// body stays empty.
func Terminate(s string) string {
	s = strings.TrimSpace(trailingSpace.ReplaceAllString(s, ""))
	if s == "" {
		return ""
	}
	return s + "\n"
}
