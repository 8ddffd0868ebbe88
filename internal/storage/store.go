package storage

import (
	"context"

	"documentor/internal/extractor"
	"documentor/internal/graph"
)

// Store combines unit persistence and scan bookkeeping.
type Store interface {
	UnitStore
	MetaStore
	Close() error
}

// UnitStore defines operations for persisting extracted code units. Edges
// and member lists are derived again on load.
type UnitStore interface {
	// SaveGraph replaces the stored units with the graph's nodes.
	SaveGraph(ctx context.Context, g *graph.Graph) error

	// LoadGraph rebuilds a linked graph from the stored units.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// ReplaceFiles drops the units of paths and inserts units in their place.
	ReplaceFiles(ctx context.Context, paths []string, units []*extractor.CodeUnit) error

	// GetUnit retrieves a unit by its ID.
	GetUnit(ctx context.Context, id string) (*extractor.CodeUnit, error)

	// FindUnitsByFile retrieves all units extracted from a specific file.
	FindUnitsByFile(ctx context.Context, filepath string) ([]*extractor.CodeUnit, error)
}

// MetaStore keeps small key/value facts about the last scan, such as the
// commit it was taken at.
type MetaStore interface {
	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, bool, error)
}

// Meta keys.
const (
	MetaCommit = "commit"
	MetaRoots  = "roots"
)
