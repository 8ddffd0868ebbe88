package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"documentor/internal/extractor"
	"documentor/internal/graph"
	"documentor/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooSource = `<?php
namespace Shop;

class Foo
{
    /** Adds two numbers.
@param int $a first
@param int $b second
@return int sum */
    public function bar(int $a, int $b): int { return $a + $b; }

    public function baz() {}
}
`

const fooDoc = "## bar\n\n" +
	"Adds two numbers.\n\n" +
	"### `$a` (int): first\n\n" +
	"### `$b` (int): second\n\n" +
	"### Return (int): sum\n\n" +
	"## baz\n"

func newResolver(t *testing.T, src string) *resolver.Resolver {
	t.Helper()

	ext, err := extractor.NewExtractor(extractor.LangPHP)
	require.NoError(t, err)
	units, err := ext.ExtractFromSource(context.Background(), "Foo.php", []byte(src))
	require.NoError(t, err)

	g := graph.NewGraph()
	for _, u := range units {
		g.AddUnit(u)
	}
	g.LinkRelations()
	return resolver.New(g)
}

// countingSource records how many docblocks were requested.
type countingSource struct {
	MemberSource
	lookups atomic.Int32
}

func (s *countingSource) RawDoc(t *resolver.Type, member string) (string, bool) {
	s.lookups.Add(1)
	return s.MemberSource.RawDoc(t, member)
}

func TestMarkdownGenerator_Generate(t *testing.T) {
	gen := NewMarkdownGenerator(newResolver(t, fooSource))

	doc, err := gen.Generate(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, fooDoc, doc)

	again, err := gen.Generate(context.Background(), `Shop\Foo`)
	require.NoError(t, err)
	assert.Equal(t, doc, again, "output is deterministic")
}

func TestMarkdownGenerator_WorkerCountDoesNotChangeOrder(t *testing.T) {
	r := newResolver(t, fooSource)
	for _, workers := range []int{1, 2, 16} {
		doc, err := NewMarkdownGenerator(r, WithWorkers(workers)).Generate(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, fooDoc, doc, "workers=%d", workers)
	}
}

func TestMarkdownGenerator_NotFound(t *testing.T) {
	src := &countingSource{MemberSource: newResolver(t, fooSource)}
	gen := NewMarkdownGenerator(src)

	doc, err := gen.Generate(context.Background(), "Nope")
	require.Error(t, err)
	assert.Empty(t, doc)
	assert.Zero(t, src.lookups.Load(), "no member is converted")

	var nf *resolver.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Nope", nf.Name)
}

func TestMarkdownGenerator_NoMembers(t *testing.T) {
	gen := NewMarkdownGenerator(newResolver(t, "<?php\nclass Blank {}\n"))

	doc, err := gen.Generate(context.Background(), "Blank")
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestMarkdownGenerator_TableOfContents(t *testing.T) {
	gen := NewMarkdownGenerator(newResolver(t, fooSource), WithTOC(true))

	doc, err := gen.Generate(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, "- [bar](#bar)\n- [baz](#baz)\n\n"+fooDoc, doc)
}

const headingInDocSource = `<?php
class Foo
{
    /** Intro.
## baz
More. */
    public function bar() {}

    public function baz() {}
}
`

func TestMarkdownGenerator_TableOfContentsSkipsHeadingsInDocblocks(t *testing.T) {
	gen := NewMarkdownGenerator(newResolver(t, headingInDocSource), WithTOC(true))

	doc, err := gen.Generate(context.Background(), "Foo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "- [bar](#bar)\n- [baz](#baz-1)\n\n## bar\n"), doc)
	assert.Contains(t, doc, "Intro.\n\n## baz\n\nMore.")
}

func TestMemberHeadings(t *testing.T) {
	fragments := []string{"## a\n\nText.\n\n## inner\n", "## b\n\n"}
	headings := []Heading{
		{Level: 2, Title: "a", ID: "a", Line: 1},
		{Level: 2, Title: "inner", ID: "inner", Line: 5},
		{Level: 2, Title: "b", ID: "b", Line: 7},
	}
	assert.Equal(t, []Heading{headings[0], headings[2]}, memberHeadings(headings, fragments))
}

func TestMarkdownGenerator_GenerateDocs(t *testing.T) {
	gen := NewMarkdownGenerator(newResolver(t, fooSource))
	dir := filepath.Join(t.TempDir(), "docs")

	path, err := gen.GenerateDocs(context.Background(), `Shop\Foo`, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Shop.Foo.md"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fooDoc, string(written))

	_, err = gen.GenerateDocs(context.Background(), "Missing", dir)
	assert.ErrorIs(t, err, resolver.ErrNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "Missing.md"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Shop.Foo.md", FileName(`\Shop\Foo`))
	assert.Equal(t, "app.Handler.md", FileName("app.Handler"))
	assert.Equal(t, "Foo.md", FileName(" Foo "))
}
