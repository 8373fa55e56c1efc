package extractor

import sitter "github.com/smacker/go-tree-sitter"

// CodeUnit is one declared symbol of a source file.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Package     string      `json:"package"`
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	UnitType    string      `json:"unit_type"` // "function", "method", "struct", "interface", "type", "constant", "variable"
	Name        string      `json:"name"`
	Receiver    string      `json:"receiver,omitempty"` // receiver type name for methods, without '*'
	Description string      `json:"description"`
	Details     interface{} `json:"details"`
}

// Exported reports whether the unit is visible outside its package.
func (u *CodeUnit) Exported() bool {
	if u.Name == "" {
		return false
	}
	c := u.Name[0]
	return c >= 'A' && c <= 'Z'
}

// QualifiedName is Name for plain symbols and Receiver.Name for methods.
func (u *CodeUnit) QualifiedName() string {
	if u.Receiver != "" {
		return u.Receiver + "." + u.Name
	}
	return u.Name
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	// PackageName returns the package the parsed file belongs to, or "".
	PackageName(root *sitter.Node, sourceCode []byte) string
	// ExtractUnits converts one query capture. A capture may declare several
	// symbols, or none worth reporting.
	ExtractUnits(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) []*CodeUnit
}
