// Package resolver answers "which members does this type have, and what is
// written above each of them" from a scanned type graph.
package resolver

import (
	"context"
	"sort"
	"strings"

	"documentor/internal/extractor"
	"documentor/internal/graph"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is how many resolved types a Resolver keeps.
const DefaultCacheSize = 256

// Member is one callable unit of a resolved type.
type Member struct {
	Name      string
	RawDoc    string // verbatim comment, empty when undocumented
	Declared  string // qualified name of the type that declares it
	Signature string
	Filepath  string
	Line      int
}

// Type is a resolved type with its own and inherited members.
type Type struct {
	Name     string // qualified
	Kind     string
	Language string
	Filepath string

	members []Member
	byName  map[string]int
}

// Resolver looks types up in a graph. The graph must not be modified while
// a Resolver is in use; within that constraint it is safe for concurrent use
// and is meant to be built once and reused.
type Resolver struct {
	graph *graph.Graph
	cache *lru.Cache[string, *Type]
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize bounds the number of resolved types kept between calls.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New returns a resolver over g. g must already be linked.
func New(g *graph.Graph, opts ...Option) *Resolver {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, *Type](o.cacheSize)
	return &Resolver{graph: g, cache: cache}
}

// Resolve finds the type called name. Qualified names ("App\Cart",
// "pkg.Type") match exactly; a short name matches when it is unique.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, &NotFoundError{Name: name}
	}

	nodes := r.graph.LookupType(name)
	switch len(nodes) {
	case 0:
		return nil, &NotFoundError{Name: name}
	case 1:
		id := nodes[0].Unit.ID
		if t, ok := r.cache.Get(id); ok {
			return t, nil
		}
		t := r.build(nodes[0])
		r.cache.Add(id, t)
		return t, nil
	default:
		candidates := make([]string, 0, len(nodes))
		for _, n := range nodes {
			candidates = append(candidates, n.Unit.QualifiedName()+" ("+n.Unit.Filepath+")")
		}
		return nil, &AmbiguousError{Name: name, Candidates: candidates}
	}
}

func (r *Resolver) build(n *graph.Node) *Type {
	t := &Type{
		Name:     n.Unit.QualifiedName(),
		Kind:     n.Unit.UnitType,
		Language: n.Unit.Language,
		Filepath: n.Unit.Filepath,
		byName:   make(map[string]int),
	}
	if t.Language == extractor.LangGo {
		r.promote(t, n)
	} else {
		r.inherit(t, n, map[string]bool{})
	}
	return t
}

func (t *Type) add(m *extractor.CodeUnit, declared *graph.Node) {
	t.byName[memberKey(t.Language, m.Name)] = len(t.members)
	t.members = append(t.members, Member{
		Name:      m.Name,
		RawDoc:    m.RawDoc,
		Declared:  declared.Unit.QualifiedName(),
		Signature: m.Signature,
		Filepath:  m.Filepath,
		Line:      m.StartLine,
	})
}

func (t *Type) has(name string) bool {
	_, ok := t.byName[memberKey(t.Language, name)]
	return ok
}

// phpRank orders PHP parents the way method lookup visits them: used
// traits, then the extended class, then interfaces.
var phpRank = map[string]int{
	extractor.UnitTrait:     0,
	extractor.UnitClass:     1,
	extractor.UnitInterface: 2,
}

// inherit adds n's members, then those of its parents in lookup order. The
// first declaration of a name wins.
func (r *Resolver) inherit(t *Type, n *graph.Node, visited map[string]bool) {
	if visited[n.Unit.ID] {
		return
	}
	visited[n.Unit.ID] = true
	for _, m := range n.Members {
		if !t.has(m.Name) {
			t.add(m, n)
		}
	}

	parents := r.graph.Parents(n.Unit.ID)
	sort.SliceStable(parents, func(i, j int) bool {
		return phpRank[parents[i].Unit.UnitType] < phpRank[parents[j].Unit.UnitType]
	})
	for _, parent := range parents {
		r.inherit(t, parent, visited)
	}
}

// embedding is a type reached through embedded fields, with the number of
// distinct embedding paths that reach it at the current depth.
type embedding struct {
	node  *graph.Node
	paths int
}

// promote applies Go's selector rule: a method promoted from an embedded
// type is visible only if it is the single one of that name at the
// shallowest embedding depth. Names declared more than once at that depth
// are dropped, and they also hide deeper declarations.
func (r *Resolver) promote(t *Type, root *graph.Node) {
	for _, m := range root.Members {
		if !t.has(m.Name) {
			t.add(m, root)
		}
	}

	visited := map[string]bool{root.Unit.ID: true}
	blocked := map[string]bool{}
	level := r.nextLevel([]embedding{{node: root, paths: 1}}, visited)

	for len(level) > 0 {
		paths := map[string]int{}
		owners := map[string]embedding{}
		var order []string
		for _, e := range level {
			for _, m := range e.node.Members {
				if t.has(m.Name) || blocked[m.Name] {
					continue
				}
				if paths[m.Name] == 0 {
					order = append(order, m.Name)
					owners[m.Name] = e
				}
				paths[m.Name] += e.paths
			}
		}
		for _, name := range order {
			if paths[name] > 1 {
				blocked[name] = true
				continue
			}
			owner := owners[name].node
			for _, m := range owner.Members {
				if m.Name == name {
					t.add(m, owner)
					break
				}
			}
		}
		level = r.nextLevel(level, visited)
	}
}

// nextLevel returns the types embedded one level below level, skipping
// those already seen at a shallower depth.
func (r *Resolver) nextLevel(level []embedding, visited map[string]bool) []embedding {
	var next []embedding
	index := map[string]int{}
	for _, e := range level {
		for _, p := range r.graph.Parents(e.node.Unit.ID) {
			id := p.Unit.ID
			if visited[id] {
				continue
			}
			if i, ok := index[id]; ok {
				next[i].paths += e.paths
				continue
			}
			index[id] = len(next)
			next = append(next, embedding{node: p, paths: e.paths})
		}
	}
	for id := range index {
		visited[id] = true
	}
	return next
}

// PHP method names are case-insensitive, so an override may differ in case.
func memberKey(lang, name string) string {
	if lang == extractor.LangPHP {
		return strings.ToLower(name)
	}
	return name
}

// ListMembers returns member names in declaration order, own members first,
// then members inherited from parents that were not overridden. PHP types
// take members from used traits before the extended class and interfaces;
// Go types take promoted methods by embedding depth.
func (r *Resolver) ListMembers(t *Type) []string {
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.Name
	}
	return names
}

// RawDoc returns the comment attached to a member. ok is false when the
// member has none or does not exist.
func (r *Resolver) RawDoc(t *Type, member string) (doc string, ok bool) {
	m, err := r.Member(t, member)
	if err != nil || m.RawDoc == "" {
		return "", false
	}
	return m.RawDoc, true
}

// Member returns the named member, or ErrMemberNotFound.
func (r *Resolver) Member(t *Type, name string) (Member, error) {
	i, ok := t.byName[memberKey(t.Language, name)]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return t.members[i], nil
}
