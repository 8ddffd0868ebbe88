package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Unit types produced by the language extractors.
const (
	UnitClass     = "class"
	UnitInterface = "interface"
	UnitTrait     = "trait"
	UnitStruct    = "struct"
	UnitType      = "type"
	UnitMethod    = "method"
)

// CodeUnit is one extracted declaration: either a type or a callable member
// of a type.
type CodeUnit struct {
	ID        string   `json:"id"`
	Filepath  string   `json:"filepath"`
	Package   string   `json:"package"` // Go package or PHP namespace
	Language  string   `json:"language"`
	Scope     string   `json:"scope,omitempty"` // types sharing a qualified name in different scopes are distinct
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	UnitType  string   `json:"unit_type"`
	Name      string   `json:"name"`
	Owner     string   `json:"owner,omitempty"`   // qualified owner type, methods only
	Parents   []string `json:"parents,omitempty"` // as written in source, types only
	Signature string   `json:"signature"`
	RawDoc    string   `json:"raw_doc,omitempty"` // verbatim, delimiters included
}

// IsType reports whether the unit declares a type rather than a member.
func (u *CodeUnit) IsType() bool {
	return u.UnitType != UnitMethod
}

// QualifiedName returns the name callers use to look the type up:
// "pkg.Type" for Go and "Ns\Class" for PHP.
func (u *CodeUnit) QualifiedName() string {
	return Qualify(u.Language, u.Package, u.Name)
}

// Qualify joins a package or namespace and a name with the separator the
// language uses.
func Qualify(lang, pkg, name string) string {
	if pkg == "" {
		return name
	}
	if lang == LangPHP {
		return pkg + `\` + name
	}
	return pkg + "." + name
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	PackageName(root *sitter.Node, sourceCode []byte) string
	ExtractUnits(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) []*CodeUnit
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// StableID derives a deterministic ID from the identity of the unit, so a
// re-scan of an unchanged file yields the same IDs.
func StableID(u *CodeUnit) string {
	fingerprint := strings.Join([]string{
		u.Language,
		u.Filepath,
		u.Scope,
		u.Package,
		u.UnitType,
		u.Owner,
		u.Name,
		canonicalize(u.Signature),
	}, "|")

	sum := sha256.Sum256([]byte(fingerprint))
	return fmt.Sprintf("%s/%s:%s:%s", u.Language, u.UnitType, u.Name, hex.EncodeToString(sum[:8]))
}

func canonicalize(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
