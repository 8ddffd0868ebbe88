package extractor

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go. Types are qualified by
// package name and scoped to their directory; methods belong to the base
// type of their receiver.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(method_declaration) @method
		(type_spec) @type
	`
}

func (g *GoExtractor) PackageName(root *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "package_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if id := child.NamedChild(j); id.Type() == "package_identifier" {
				return id.Content(sourceCode)
			}
		}
	}
	return ""
}

func (g *GoExtractor) ExtractUnits(captureName string, node *sitter.Node, sourceCode []byte, path string, packageName string) []*CodeUnit {
	switch captureName {
	case "method":
		if unit := g.extractMethodUnit(node, sourceCode, path, packageName); unit != nil {
			return []*CodeUnit{unit}
		}
	case "type":
		return g.extractTypeUnits(node, sourceCode, path, packageName)
	}
	return nil
}

func (g *GoExtractor) extractMethodUnit(node *sitter.Node, sourceCode []byte, path, packageName string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	receiverNode := node.ChildByFieldName("receiver")
	if nameNode == nil || receiverNode == nil {
		return nil
	}
	owner := receiverTypeName(receiverNode, sourceCode)
	if owner == "" {
		return nil
	}

	return &CodeUnit{
		Filepath:  path,
		Scope:     filepath.Dir(path),
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		UnitType:  UnitMethod,
		Name:      nameNode.Content(sourceCode),
		Owner:     Qualify(LangGo, packageName, owner),
		Signature: signatureOf(node, sourceCode),
		RawDoc:    goDocComment(node, sourceCode),
	}
}

// receiverTypeName reduces "(s *Set[T])" to "Set".
func receiverTypeName(receiver *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			return ""
		}
		return baseTypeName(typeNode.Content(sourceCode))
	}
	return ""
}

func baseTypeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "*")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (g *GoExtractor) extractTypeUnits(node *sitter.Node, sourceCode []byte, path, packageName string) []*CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	doc := goDocComment(node, sourceCode)
	if parent := node.Parent(); doc == "" && parent != nil && parent.Type() == "type_declaration" {
		doc = goDocComment(parent, sourceCode)
	}

	unit := &CodeUnit{
		Filepath:  path,
		Scope:     filepath.Dir(path),
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		UnitType:  UnitType,
		Name:      name,
		Signature: "type " + strings.TrimSpace(node.Content(sourceCode)),
		RawDoc:    doc,
	}
	units := []*CodeUnit{unit}

	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return units
	}
	switch typeNode.Type() {
	case "struct_type":
		unit.UnitType = UnitStruct
		unit.Parents = g.embeddedFields(typeNode, sourceCode)
	case "interface_type":
		unit.UnitType = UnitInterface
		owner := Qualify(LangGo, packageName, name)
		for _, child := range interfaceElems(typeNode) {
			switch child.Type() {
			case "method_elem", "method_spec":
				if m := g.interfaceMethod(child, sourceCode, path, owner); m != nil {
					units = append(units, m)
				}
			case "type_elem", "constraint_elem":
				if embedded := strings.TrimSpace(child.Content(sourceCode)); embedded != "" && !strings.ContainsAny(embedded, "|~") {
					unit.Parents = append(unit.Parents, embedded)
				}
			}
		}
	}
	return units
}

func (g *GoExtractor) interfaceMethod(node *sitter.Node, sourceCode []byte, path, owner string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &CodeUnit{
		Filepath:  path,
		Scope:     filepath.Dir(path),
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		UnitType:  UnitMethod,
		Name:      nameNode.Content(sourceCode),
		Owner:     owner,
		Signature: strings.TrimSpace(node.Content(sourceCode)),
		RawDoc:    goDocComment(node, sourceCode),
	}
}

// interfaceElems lists the elements of an interface body. Older grammars
// wrap them in a method_spec_list.
func interfaceElems(iface *sitter.Node) []*sitter.Node {
	var elems []*sitter.Node
	for i := 0; i < int(iface.NamedChildCount()); i++ {
		child := iface.NamedChild(i)
		if child.Type() == "method_spec_list" {
			elems = append(elems, interfaceElems(child)...)
			continue
		}
		elems = append(elems, child)
	}
	return elems
}

// embeddedFields returns the types embedded in a struct, whose methods are
// promoted to it.
func (g *GoExtractor) embeddedFields(structNode *sitter.Node, sourceCode []byte) []string {
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.ChildCount()); i++ {
		if child := structNode.Child(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return nil
	}

	var embedded []string
	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" || fieldDecl.ChildByFieldName("name") != nil {
			continue
		}
		if typeNode := fieldDecl.ChildByFieldName("type"); typeNode != nil {
			embedded = append(embedded, baseTypeName(typeNode.Content(sourceCode)))
		}
	}
	return embedded
}

// goDocComment joins the comment lines directly above node verbatim.
func goDocComment(node *sitter.Node, sourceCode []byte) string {
	comments := precedingComments(node)
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, c.Content(sourceCode))
	}
	return strings.Join(lines, "\n")
}
