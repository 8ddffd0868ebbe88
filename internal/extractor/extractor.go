package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Supported languages.
const (
	LangGo  = "go"
	LangPHP = "php"
)

var extensions = map[string]string{
	".go":  LangGo,
	".php": LangPHP,
}

// LanguageForPath returns the language of a source file, or "" when the file
// is not one the extractors understand. Go test files are skipped.
func LanguageForPath(path string) string {
	if strings.HasSuffix(path, "_test.go") {
		return ""
	}
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// SupportedExtensions lists the file extensions with an extractor, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case LangGo:
		langExt = &GoExtractor{}
	case LangPHP:
		langExt = &PHPExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Language returns the language this extractor parses.
func (e *Extractor) Language() string {
	return e.langName
}

// ExtractFromFile parses a single source file and extracts all relevant code units.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string) ([]*CodeUnit, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ExtractFromSource(ctx, path, sourceCode)
}

// ExtractFromSource extracts the units declared in sourceCode. path is only
// recorded on the units.
func (e *Extractor) ExtractFromSource(ctx context.Context, path string, sourceCode []byte) ([]*CodeUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	packageName := e.langExtractor.PackageName(tree.RootNode(), sourceCode)

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var codeUnits []*CodeUnit
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			units := e.langExtractor.ExtractUnits(captureName, c.Node, sourceCode, path, packageName)
			for _, unit := range units {
				unit.Language = e.langName
				if unit.Package == "" {
					unit.Package = packageName
				}
				unit.ID = StableID(unit)
				codeUnits = append(codeUnits, unit)
			}
		}
	}

	return codeUnits, nil
}

// precedingComments returns the comment nodes directly above node, oldest
// first. A blank line or any other node ends the run.
func precedingComments(node *sitter.Node) []*sitter.Node {
	var comments []*sitter.Node
	current := node
	for {
		prev := current.PrevSibling()
		if prev == nil || prev.Type() != "comment" {
			break
		}
		if current.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}
		comments = append([]*sitter.Node{prev}, comments...)
		current = prev
	}
	return comments
}

// signatureOf returns the declaration text up to its body, or the whole
// declaration when it has none.
func signatureOf(node *sitter.Node, sourceCode []byte) string {
	if body := node.ChildByFieldName("body"); body != nil {
		return strings.TrimSpace(string(sourceCode[node.StartByte():body.StartByte()]))
	}
	return strings.TrimSpace(node.Content(sourceCode))
}
