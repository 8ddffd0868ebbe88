package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"documentor/internal/crawler"
	"documentor/internal/extractor"
	"documentor/internal/graph"
)

// Indexer orchestrates source scanning and graph management.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// BuildGraph scans every root and constructs the linked type graph.
func (i *Indexer) BuildGraph(ctx context.Context, roots ...string) (*graph.Graph, error) {
	g := graph.NewGraph()

	for _, root := range roots {
		err := i.crawler.ScanProject(ctx, root, func(unit *extractor.CodeUnit) {
			g.AddUnit(unit)
		})
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", root, err)
		}
	}

	// Resolve relationships after all units are loaded
	g.LinkRelations()

	return g, nil
}

// UpdateFiles re-extracts the given files into g, dropping what they
// previously contributed. Paths that no longer exist are only dropped.
func (i *Indexer) UpdateFiles(ctx context.Context, g *graph.Graph, paths []string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.RemoveFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if extractor.LanguageForPath(path) == "" {
			continue
		}
		units, err := i.crawler.ExtractFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", path, err)
		}
		for _, u := range units {
			g.AddUnit(u)
		}
	}
	g.LinkRelations()
	return nil
}

// SaveGraph persists the graph to a JSON file.
func (i *Indexer) SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadGraph loads a graph from a JSON file.
func (i *Indexer) LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph()
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	// Indices and member lists are not serialized.
	g.RebuildIndices()
	g.LinkRelations()

	return g, nil
}
