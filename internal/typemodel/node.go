// Package typemodel defines the normalized type representation produced by the
// analyzer. A Node is a tagged variant: Kind selects which payload fields are
// meaningful, and the payload never changes kind after the node is finalized.
package typemodel

import "fmt"

// Kind discriminates the payload of a Node.
type Kind string

const (
	KindPrimitive     Kind = "primitive"
	KindInterface     Kind = "interface"
	KindObject        Kind = "object"
	KindEnum          Kind = "enum"
	KindEnumValue     Kind = "enum-value"
	KindFunction      Kind = "function"
	KindArray         Kind = "array"
	KindTypeReference Kind = "type-reference"
	KindTypeAlias     Kind = "type-alias"
	KindGenericParam  Kind = "generic-parameter"
	KindUnion         Kind = "union"
	KindIntersection  Kind = "intersection"
	KindUnknown       Kind = "unknown"
)

// Location records where a declaration or type expression came from.
// Package is set only for types that originate outside the scanned project
// (an npm module specifier or a synthetic lib.*.d.ts standard-library file).
type Location struct {
	File      string
	Package   string
	StartLine int // 1-based
	StartCol  int // 0-based, tree-sitter convention
	EndLine   int
	EndCol    int
}

// Member is a named property of an interface or object type.
type Member struct {
	Name     string
	Type     *Node
	Optional bool
}

// Param is one formal parameter of a function type.
type Param struct {
	Name     string
	Type     *Node
	Optional bool
	Rest     bool
}

// Node is one normalized type. Nodes are allocated empty, inserted into the
// extractor's memo map, and finalized in place; this reserve-then-fill order
// is what lets mutually-recursive type graphs terminate as back-references
// instead of infinite unfoldings.
type Node struct {
	Kind Kind

	// Text is the printable form of the type, valid for every kind.
	Text string

	// Name is set for primitive, interface, enum, enum-value, type-reference,
	// type-alias and generic-parameter nodes.
	Name string

	// Loc is the provenance of the declaration backing a named node, or of
	// the expression itself for structural nodes.
	Loc Location

	// Members: interface and object payloads.
	Members []Member

	// Params and Return: function payloads. Return may be nil for functions
	// declared without a return annotation.
	Params []Param
	Return *Node

	// Elem: array payloads.
	Elem *Node

	// TypeParams and TypeArgs: type-reference and type-alias payloads.
	// TypeParams holds the parameter names as declared on the referenced
	// declaration (or positional placeholders when unavailable).
	TypeParams []string
	TypeArgs   []*Node

	// Target: type-alias payloads; the aliased type.
	Target *Node

	// Values: enum payloads, one enum-value node per declared literal.
	Values []*Node

	// Value and Parent: enum-value payloads. Value is the literal rendered as
	// text (quoted for strings, normalized digits for numbers and bigints).
	Value  string
	Parent *Node

	// Elems: union and intersection payloads.
	Elems []*Node
}

// String returns the printable form of the node.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.Text != "" {
		return n.Text
	}
	return string(n.Kind)
}

// IsReferenceTo reports whether the node is a type-reference with the given
// name. Used by the client generator for the narrow, single-level
// deferred-wrapper unwrap: aliases and nested wrappers deliberately do not
// match.
func (n *Node) IsReferenceTo(name string) bool {
	return n != nil && n.Kind == KindTypeReference && n.Name == name
}

// GoString aids test failure output.
func (n *Node) GoString() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("typemodel.Node{Kind: %s, Text: %q}", n.Kind, n.Text)
}
