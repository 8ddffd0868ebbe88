package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"documentor/internal/docblock"
	"documentor/internal/resolver"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MemberSource is the type introspection the generator needs.
type MemberSource interface {
	Resolve(ctx context.Context, typeName string) (*resolver.Type, error)
	ListMembers(t *resolver.Type) []string
	RawDoc(t *resolver.Type, member string) (string, bool)
}

// MarkdownGenerator produces documentation in Markdown format.
type MarkdownGenerator struct {
	source    MemberSource
	converter *docblock.Converter
	workers   int
	toc       bool
	log       logrus.FieldLogger
}

// Option configures a MarkdownGenerator.
type Option func(*MarkdownGenerator)

// WithConverter replaces the default docblock converter.
func WithConverter(c *docblock.Converter) Option {
	return func(g *MarkdownGenerator) { g.converter = c }
}

// WithWorkers bounds how many members are converted at once.
func WithWorkers(n int) Option {
	return func(g *MarkdownGenerator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithTOC prepends a list of links to every member section.
func WithTOC(enabled bool) Option {
	return func(g *MarkdownGenerator) { g.toc = enabled }
}

// WithLogger sets the logger; by default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *MarkdownGenerator) {
		if l != nil {
			g.log = l
		}
	}
}

func NewMarkdownGenerator(src MemberSource, opts ...Option) *MarkdownGenerator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	g := &MarkdownGenerator{
		source:    src,
		converter: docblock.NewConverter(),
		workers:   4,
		log:       quiet,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the docblocks of every member of typeName, in the order
// the source lists them. Resolution errors are returned as is, before any
// member is converted.
func (g *MarkdownGenerator) Generate(ctx context.Context, typeName string) (string, error) {
	start := time.Now()
	t, err := g.source.Resolve(ctx, typeName)
	if err != nil {
		return "", err
	}

	members := g.source.ListMembers(t)
	fragments := make([]string, len(members))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, name := range members {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, _ := g.source.RawDoc(t, name)
			fragments[i] = g.converter.Convert(name, raw)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}

	doc := docblock.Assemble(fragments)
	if g.toc && doc != "" {
		doc = TableOfContents(memberHeadings(Outline(doc), fragments), 2) + "\n" + doc
	}

	g.log.WithFields(logrus.Fields{
		"type":     t.Name,
		"members":  len(members),
		"duration": time.Since(start),
	}).Debug("generated type documentation")
	return doc, nil
}

// memberHeadings keeps the headings that open a fragment, dropping any
// heading written inside a docblock. Fragment starts are counted the way
// docblock.Assemble lays fragments out.
func memberHeadings(headings []Heading, fragments []string) []Heading {
	starts := make(map[int]bool, len(fragments))
	line := 1
	for _, f := range fragments {
		starts[line] = true
		line += strings.Count(strings.TrimRight(f, "\n"), "\n") + 2
	}

	var out []Heading
	for _, h := range headings {
		if starts[h.Line] {
			out = append(out, h)
		}
	}
	return out
}

// GenerateDocs writes the documentation of typeName to outputDir and
// returns the path of the written file.
func (g *MarkdownGenerator) GenerateDocs(ctx context.Context, typeName, outputDir string) (string, error) {
	doc, err := g.Generate(ctx, typeName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(outputDir, FileName(typeName))
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	g.log.WithField("path", path).Info("wrote documentation")
	return path, nil
}

var fileNameReplacer = strings.NewReplacer(`\`, ".", "/", ".", " ", "_")

// FileName maps a type name to the Markdown file it is written to.
func FileName(typeName string) string {
	name := fileNameReplacer.Replace(strings.TrimPrefix(strings.TrimSpace(typeName), `\`))
	return name + ".md"
}
