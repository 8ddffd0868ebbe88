package graph

import (
	"sort"
	"strings"

	"documentor/internal/extractor"
)

// Graph holds the scanned types, their members, and the inheritance edges
// between types.
type Graph struct {
	Nodes      map[string]*Node `json:"nodes"`
	Edges      []Edge           `json:"edges"`
	Unresolved []Unresolved     `json:"unresolved,omitempty"`

	// Qualified name -> type IDs, and short name -> type IDs.
	qualifiedIndex map[string][]string
	nameIndex      map[string][]string
	orphans        int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:          make(map[string]*Node),
		Edges:          []Edge{},
		qualifiedIndex: make(map[string][]string),
		nameIndex:      make(map[string][]string),
	}
}

// AddUnit adds a CodeUnit as a node and indexes it.
func (g *Graph) AddUnit(unit *extractor.CodeUnit) {
	if unit == nil {
		return
	}
	g.Nodes[unit.ID] = &Node{Unit: unit}
	if unit.IsType() {
		g.index(unit)
	}
}

func (g *Graph) index(unit *extractor.CodeUnit) {
	q := unit.QualifiedName()
	g.qualifiedIndex[q] = append(g.qualifiedIndex[q], unit.ID)
	g.nameIndex[unit.Name] = append(g.nameIndex[unit.Name], unit.ID)
}

// RebuildIndices restores the lookup indices after Nodes was replaced or
// edited directly, e.g. after decoding.
func (g *Graph) RebuildIndices() {
	g.qualifiedIndex = make(map[string][]string)
	g.nameIndex = make(map[string][]string)
	for _, id := range g.sortedIDs() {
		if n := g.Nodes[id]; n.Unit.IsType() {
			g.index(n.Unit)
		}
	}
}

// RemoveFile drops every node extracted from path. Call LinkRelations
// afterwards.
func (g *Graph) RemoveFile(path string) int {
	removed := 0
	for id, n := range g.Nodes {
		if n.Unit.Filepath == path {
			delete(g.Nodes, id)
			removed++
		}
	}
	if removed > 0 {
		g.RebuildIndices()
	}
	return removed
}

// LinkRelations attaches members to their owner types and resolves parent
// names to inheritance edges.
func (g *Graph) LinkRelations() {
	g.Edges = []Edge{}
	g.Unresolved = nil
	g.orphans = 0

	ids := g.sortedIDs()
	for _, id := range ids {
		if n := g.Nodes[id]; n.Unit.IsType() {
			n.Members = nil
		}
	}

	for _, id := range ids {
		member := g.Nodes[id].Unit
		if member.IsType() {
			continue
		}
		owners := g.ownersOf(member)
		if len(owners) == 0 {
			g.orphans++
			continue
		}
		for _, owner := range owners {
			owner.Members = append(owner.Members, member)
		}
	}

	for _, id := range ids {
		n := g.Nodes[id]
		if !n.Unit.IsType() {
			continue
		}
		sort.SliceStable(n.Members, func(i, j int) bool {
			a, b := n.Members[i], n.Members[j]
			if a.Filepath != b.Filepath {
				return a.Filepath < b.Filepath
			}
			return a.StartLine < b.StartLine
		})

		for _, parent := range n.Unit.Parents {
			targets := g.resolveTarget(parent, n.Unit)
			switch len(targets) {
			case 0:
				g.Unresolved = append(g.Unresolved, Unresolved{From: id, Target: parent, Reason: ReasonNoCandidate})
			case 1:
				g.Edges = append(g.Edges, Edge{From: id, To: targets[0], Kind: RelationInherits})
			default:
				g.Unresolved = append(g.Unresolved, Unresolved{From: id, Target: parent, Reason: ReasonAmbiguous})
			}
		}
	}
}

func (g *Graph) ownersOf(member *extractor.CodeUnit) []*Node {
	var owners []*Node
	for _, id := range g.qualifiedIndex[member.Owner] {
		n := g.Nodes[id]
		if n.Unit.Language == member.Language && n.Unit.Scope == member.Scope {
			owners = append(owners, n)
		}
	}
	return owners
}

// resolveTarget finds the type a parent name written in source refers to.
// Names relative to the declaring package or namespace win over absolute
// ones, and a bare short name is used only when it is unique.
func (g *Graph) resolveTarget(targetName string, from *extractor.CodeUnit) []string {
	clean := strings.TrimPrefix(strings.TrimPrefix(targetName, "*"), `\`)
	relative := !strings.HasPrefix(targetName, `\`)

	if relative {
		local := extractor.Qualify(from.Language, from.Package, clean)
		if ids := g.sameScope(g.qualifiedIndex[local], from); len(ids) > 0 {
			return ids
		}
	}
	if ids := g.sameLanguage(g.qualifiedIndex[clean], from); len(ids) > 0 {
		return ids
	}

	if from.Language == extractor.LangGo && strings.Contains(clean, ".") {
		return nil
	}
	short := clean
	if i := strings.LastIndexAny(short, `\.`); i >= 0 {
		short = short[i+1:]
	}
	return g.sameLanguage(g.nameIndex[short], from)
}

func (g *Graph) sameScope(ids []string, from *extractor.CodeUnit) []string {
	var out []string
	for _, id := range ids {
		if u := g.Nodes[id].Unit; u.Language == from.Language && u.Scope == from.Scope && id != from.ID {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) sameLanguage(ids []string, from *extractor.CodeUnit) []string {
	var out []string
	for _, id := range ids {
		if u := g.Nodes[id].Unit; u.Language == from.Language && id != from.ID {
			out = append(out, id)
		}
	}
	return out
}

// LookupType returns the type nodes a name refers to: exact qualified
// matches if there are any, otherwise every type with that short name.
func (g *Graph) LookupType(name string) []*Node {
	name = strings.TrimPrefix(strings.TrimSpace(name), `\`)
	ids := g.qualifiedIndex[name]
	if len(ids) == 0 {
		ids = g.nameIndex[name]
	}
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Nodes[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit.Filepath < out[j].Unit.Filepath })
	return out
}

// Parents returns the resolved parent type nodes of a type, in the order
// they were declared.
func (g *Graph) Parents(id string) []*Node {
	var parents []*Node
	for _, edge := range g.Edges {
		if edge.From == id && edge.Kind == RelationInherits {
			if node, ok := g.Nodes[edge.To]; ok {
				parents = append(parents, node)
			}
		}
	}
	return parents
}

// GetDependents returns all types that inherit from the given type.
func (g *Graph) GetDependents(id string) []*Node {
	var deps []*Node
	for _, edge := range g.Edges {
		if edge.To == id {
			if node, ok := g.Nodes[edge.From]; ok {
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// Types returns every type node ordered by qualified name.
func (g *Graph) Types() []*Node {
	var types []*Node
	for _, n := range g.Nodes {
		if n.Unit.IsType() {
			types = append(types, n)
		}
	}
	sort.Slice(types, func(i, j int) bool {
		a, b := types[i].Unit, types[j].Unit
		if qa, qb := a.QualifiedName(), b.QualifiedName(); qa != qb {
			return qa < qb
		}
		return a.Filepath < b.Filepath
	})
	return types
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
