package graph

import "documentor/internal/extractor"

type RelationKind string

const (
	RelationInherits RelationKind = "inherits"
)

type UnresolvedReason string

const (
	ReasonNoCandidate UnresolvedReason = "no_candidate"
	ReasonAmbiguous   UnresolvedReason = "ambiguous"
)

// Node is a type or member in the graph. Members are only set on type nodes
// and are rebuilt by LinkRelations.
type Node struct {
	Unit    *extractor.CodeUnit   `json:"unit"`
	Members []*extractor.CodeUnit `json:"-"`
}

// Edge represents a directed relationship between two type nodes.
type Edge struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Kind RelationKind `json:"kind"`
}

// Unresolved records a parent name that matched no single scanned type.
type Unresolved struct {
	From   string           `json:"from"`
	Target string           `json:"target"`
	Reason UnresolvedReason `json:"reason"`
}
