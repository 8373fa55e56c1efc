package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(function_declaration) @func
		(method_declaration) @func
		(type_spec) @type
		(const_spec) @const
		(var_spec) @var
	`
}

// PackageName reads the package clause of a Go file.
func (g *GoExtractor) PackageName(root *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		clause := root.NamedChild(i)
		if clause.Type() != "package_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			if id := clause.NamedChild(j); id.Type() == "package_identifier" {
				return id.Content(sourceCode)
			}
		}
	}
	return ""
}

// ExtractUnits converts a package-level declaration. Declarations inside function
// bodies are ignored.
func (g *GoExtractor) ExtractUnits(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) []*CodeUnit {
	if !packageLevel(node) {
		return nil
	}

	var units []*CodeUnit
	switch captureName {
	case "func":
		if u := g.extractFunctionUnit(node, sourceCode, filepath); u != nil {
			units = append(units, u)
		}
	case "type":
		if u := g.extractTypeUnit(node, sourceCode, filepath); u != nil {
			units = append(units, u)
		}
	case "const":
		units = g.extractValueUnits(node, sourceCode, filepath, "constant")
	case "var":
		units = g.extractValueUnits(node, sourceCode, filepath, "variable")
	}

	for _, u := range units {
		u.Package = packageName
		u.Language = "go"
	}
	return units
}

type GoFunctionDetails struct {
	Parameters []GoParam  `json:"parameters"`
	Returns    []GoReturn `json:"returns"`
	Signature  string     `json:"signature"`
}

type GoTypeDetails struct {
	Fields []GoField `json:"fields"`
}

type GoInterfaceDetails struct {
	Methods []string `json:"methods"`
}

type GoValueDetails struct {
	Value string `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`
}

type GoParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type GoReturn struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

type GoField struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Tag  string `json:"tag,omitempty"`
}

// packageLevel reports whether node is declared directly in the source file.
func packageLevel(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "source_file":
			return true
		case "block", "function_declaration", "method_declaration", "func_literal":
			return false
		}
	}
	return false
}

func (g *GoExtractor) extractTypeUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	parentNode := node.Parent()
	if parentNode == nil || parentNode.Type() != "type_declaration" {
		parentNode = node
	}
	docComment := extractDocComment(parentNode, sourceCode)
	if docComment == "" && parentNode != node {
		docComment = extractDocComment(node, sourceCode)
	}

	unitType := "type"
	var details interface{}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			unitType = "struct"
			details = extractStructDetails(typeNode, sourceCode)
		case "interface_type":
			unitType = "interface"
			details = extractInterfaceDetails(typeNode, sourceCode)
		}
	}

	return &CodeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(parentNode.StartPoint().Row + 1),
		EndLine:     int(parentNode.EndPoint().Row + 1),
		UnitType:    unitType,
		Name:        name,
		Description: docComment,
		Details:     details,
	}
}

func extractStructDetails(structNode *sitter.Node, sourceCode []byte) GoTypeDetails {
	fields := []GoField{}
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.ChildCount()); i++ {
		if child := structNode.Child(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return GoTypeDetails{Fields: fields}
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}

		var fieldType, fieldTag string
		if typeNode := fieldDecl.ChildByFieldName("type"); typeNode != nil {
			fieldType = typeNode.Content(sourceCode)
		}
		if tagNode := fieldDecl.ChildByFieldName("tag"); tagNode != nil {
			fieldTag = tagNode.Content(sourceCode)
		}

		foundNames := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			child := fieldDecl.NamedChild(j)
			if child.Type() == "field_identifier" {
				fields = append(fields, GoField{Name: child.Content(sourceCode), Type: fieldType, Tag: fieldTag})
				foundNames = true
			}
		}

		// embedded field: the name is the type's last element
		if !foundNames && fieldType != "" {
			decl := fieldDecl.Content(sourceCode)
			if fieldTag != "" {
				decl = strings.TrimSuffix(decl, fieldTag)
			}
			fieldType = strings.TrimSpace(decl)
			name := strings.TrimPrefix(fieldType, "*")
			if lastDot := strings.LastIndex(name, "."); lastDot != -1 {
				name = name[lastDot+1:]
			}
			fields = append(fields, GoField{Name: name, Type: fieldType, Tag: fieldTag})
		}
	}
	return GoTypeDetails{Fields: fields}
}

func extractInterfaceDetails(interfaceNode *sitter.Node, sourceCode []byte) GoInterfaceDetails {
	methods := []string{}
	for i := 0; i < int(interfaceNode.NamedChildCount()); i++ {
		elem := interfaceNode.NamedChild(i)
		switch elem.Type() {
		case "method_elem", "method_spec":
			if nameNode := elem.ChildByFieldName("name"); nameNode != nil {
				methods = append(methods, nameNode.Content(sourceCode))
			}
		}
	}
	return GoInterfaceDetails{Methods: methods}
}

func (g *GoExtractor) extractFunctionUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	unit := &CodeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		UnitType:    "function",
		Name:        name,
		Description: extractDocComment(node, sourceCode),
	}

	details := GoFunctionDetails{Parameters: []GoParam{}, Returns: []GoReturn{}}
	if node.Type() == "method_declaration" {
		unit.UnitType = "method"
		if receiverNode := node.ChildByFieldName("receiver"); receiverNode != nil {
			unit.Receiver = receiverTypeName(receiverNode, sourceCode)
			unit.ID = fmt.Sprintf("%s:%s.%s:%d", filepath, unit.Receiver, name, node.StartPoint().Row+1)
		}
	}
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		details.Parameters = extractParams(paramsNode, sourceCode)
	}
	if resultNode := node.ChildByFieldName("result"); resultNode != nil {
		details.Returns = extractReturns(resultNode, sourceCode)
	}
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		details.Signature = strings.TrimSpace(string(sourceCode[node.StartByte():bodyNode.StartByte()]))
	} else {
		details.Signature = node.Content(sourceCode)
	}
	unit.Details = details
	return unit
}

// receiverTypeName turns "(l *LCD)" or "(s Set[T])" into "LCD" or "Set".
func receiverTypeName(receiverNode *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(receiverNode.NamedChildCount()); i++ {
		param := receiverNode.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		name := strings.TrimPrefix(typeNode.Content(sourceCode), "*")
		if idx := strings.IndexByte(name, '['); idx != -1 {
			name = name[:idx]
		}
		return strings.TrimSpace(name)
	}
	return ""
}

// extractValueUnits reports every name of a const or var spec. In
// "const A, B = 1, 2" each name gets its own value; when the values do not line
// up with the names, as with "var a, b = f()", all names share the full list.
func (g *GoExtractor) extractValueUnits(node *sitter.Node, sourceCode []byte, filepath string, unitType string) []*CodeUnit {
	var names []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == "identifier" {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return nil
	}

	docComment := extractDocComment(node, sourceCode)
	if docComment == "" && node.Parent() != nil {
		docComment = extractDocComment(node.Parent(), sourceCode)
	}

	var valueType string
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		valueType = typeNode.Content(sourceCode)
	}
	var values []string
	if valueNode := node.ChildByFieldName("value"); valueNode != nil {
		for i := 0; i < int(valueNode.NamedChildCount()); i++ {
			if v := valueNode.NamedChild(i); v.Type() != "comment" {
				values = append(values, v.Content(sourceCode))
			}
		}
		if len(values) != len(names) {
			values = nil
			for range names {
				values = append(values, valueNode.Content(sourceCode))
			}
		}
	}

	units := make([]*CodeUnit, 0, len(names))
	for i, nameNode := range names {
		name := nameNode.Content(sourceCode)
		details := GoValueDetails{Type: valueType}
		if values != nil {
			details.Value = values[i]
		}
		units = append(units, &CodeUnit{
			ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
			Filepath:    filepath,
			StartLine:   int(node.StartPoint().Row + 1),
			EndLine:     int(node.EndPoint().Row + 1),
			UnitType:    unitType,
			Name:        name,
			Description: docComment,
			Details:     details,
		})
	}
	return units
}

func extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

func extractParams(paramsNode *sitter.Node, sourceCode []byte) []GoParam {
	params := []GoParam{}
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		pNode := paramsNode.NamedChild(i)
		if pNode.Type() != "parameter_declaration" && pNode.Type() != "variadic_parameter_declaration" {
			continue
		}
		pType := ""
		if tn := pNode.ChildByFieldName("type"); tn != nil {
			pType = tn.Content(sourceCode)
		}
		if pNode.Type() == "variadic_parameter_declaration" {
			pType = "..." + pType
		}

		var names []string
		for j := 0; j < int(pNode.NamedChildCount()); j++ {
			if c := pNode.NamedChild(j); c.Type() == "identifier" {
				names = append(names, c.Content(sourceCode))
			}
		}
		if len(names) == 0 {
			params = append(params, GoParam{Type: pType})
			continue
		}
		for _, n := range names {
			params = append(params, GoParam{Name: n, Type: pType})
		}
	}
	return params
}

func extractReturns(resultNode *sitter.Node, sourceCode []byte) []GoReturn {
	if resultNode.Type() != "parameter_list" {
		return []GoReturn{{Type: resultNode.Content(sourceCode)}}
	}
	returns := []GoReturn{}
	for _, p := range extractParams(resultNode, sourceCode) {
		returns = append(returns, GoReturn{Name: p.Name, Type: p.Type})
	}
	return returns
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}
