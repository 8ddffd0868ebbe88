package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// PHPExtractor implements LanguageExtractor for PHP classes, interfaces and
// traits. The first namespace declared in a file qualifies every type in it.
type PHPExtractor struct{}

var phpTypeDeclarations = map[string]string{
	"class_declaration":     UnitClass,
	"interface_declaration": UnitInterface,
	"trait_declaration":     UnitTrait,
}

func (p *PHPExtractor) GetLanguage() *sitter.Language {
	return php.GetLanguage()
}

func (p *PHPExtractor) GetQuery() string {
	return `
		(class_declaration) @type
		(interface_declaration) @type
		(trait_declaration) @type
		(method_declaration) @method
	`
}

// PackageName returns "": a PHP file may hold several namespaces, so each
// declaration is qualified by its own (see namespaceOf).
func (p *PHPExtractor) PackageName(root *sitter.Node, sourceCode []byte) string {
	return ""
}

// namespaceOf returns the namespace a declaration belongs to: the braced
// namespace enclosing it, or else the nearest "namespace X;" statement
// before it in the file.
func namespaceOf(node *sitter.Node, sourceCode []byte) string {
	top := node
	for n := node.Parent(); n != nil; n = n.Parent() {
		if n.Type() == "namespace_definition" {
			return namespaceName(n, sourceCode)
		}
		if n.Type() == "program" {
			break
		}
		top = n
	}
	for prev := top.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if prev.Type() == "namespace_definition" {
			return namespaceName(prev, sourceCode)
		}
	}
	return ""
}

func namespaceName(ns *sitter.Node, sourceCode []byte) string {
	if name := ns.ChildByFieldName("name"); name != nil {
		return strings.TrimPrefix(name.Content(sourceCode), `\`)
	}
	return ""
}

func (p *PHPExtractor) ExtractUnits(captureName string, node *sitter.Node, sourceCode []byte, path string, packageName string) []*CodeUnit {
	var unit *CodeUnit
	switch captureName {
	case "type":
		unit = p.extractTypeUnit(node, sourceCode, path)
	case "method":
		unit = p.extractMethodUnit(node, sourceCode, path)
	}
	if unit == nil {
		return nil
	}
	return []*CodeUnit{unit}
}

func (p *PHPExtractor) extractTypeUnit(node *sitter.Node, sourceCode []byte, path string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &CodeUnit{
		Filepath:  path,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		UnitType:  phpTypeDeclarations[node.Type()],
		Package:   namespaceOf(node, sourceCode),
		Name:      nameNode.Content(sourceCode),
		Parents:   p.parents(node, sourceCode),
		Signature: signatureOf(node, sourceCode),
		RawDoc:    phpDocComment(node, sourceCode),
	}
}

func (p *PHPExtractor) extractMethodUnit(node *sitter.Node, sourceCode []byte, path string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	owner := enclosingType(node)
	if owner == nil {
		return nil
	}
	ownerName := owner.ChildByFieldName("name")
	if ownerName == nil {
		return nil
	}
	namespace := namespaceOf(owner, sourceCode)
	return &CodeUnit{
		Filepath:  path,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		UnitType:  UnitMethod,
		Name:      nameNode.Content(sourceCode),
		Package:   namespace,
		Owner:     Qualify(LangPHP, namespace, ownerName.Content(sourceCode)),
		Signature: signatureOf(node, sourceCode),
		RawDoc:    phpDocComment(node, sourceCode),
	}
}

// enclosingType returns the named type declaring a method; methods of
// anonymous classes have none.
func enclosingType(node *sitter.Node) *sitter.Node {
	for n := node.Parent(); n != nil; n = n.Parent() {
		if _, ok := phpTypeDeclarations[n.Type()]; ok {
			return n
		}
		if n.Type() == "anonymous_class" || n.Type() == "object_creation_expression" {
			return nil
		}
	}
	return nil
}

// parents collects extends, implements and trait use names, in that order.
func (p *PHPExtractor) parents(node *sitter.Node, sourceCode []byte) []string {
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "base_clause", "class_interface_clause":
			out = append(out, typeNames(child, sourceCode)...)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			if child := body.NamedChild(i); child.Type() == "use_declaration" {
				out = append(out, typeNames(child, sourceCode)...)
			}
		}
	}
	return out
}

func typeNames(node *sitter.Node, sourceCode []byte) []string {
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "name", "qualified_name":
			names = append(names, child.Content(sourceCode))
		}
	}
	return names
}

// phpDocComment returns the "/** */" block directly above node, the same
// comment PHP reflection reports as the doc comment.
func phpDocComment(node *sitter.Node, sourceCode []byte) string {
	comments := precedingComments(node)
	if len(comments) == 0 {
		return ""
	}
	last := comments[len(comments)-1].Content(sourceCode)
	if !strings.HasPrefix(last, "/**") {
		return ""
	}
	return last
}
