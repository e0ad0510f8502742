package analyzer

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// memoKey identifies a resolved type within one run. Named declarations are
// keyed by their declaration node, so every reference to the same declaration
// shares one Node instance.
type memoKey struct {
	file  string
	start uint
	end   uint
}

func keyOf(f *SourceFile, node *sitter.Node) memoKey {
	return memoKey{file: f.Path, start: node.StartByte(), end: node.EndByte()}
}

// Extractor converts resolved types into normalized Nodes. The memo map is
// scoped to one run; create a fresh Extractor per run and never share it
// across runs.
type Extractor struct {
	program *Program
	memo    map[memoKey]*typemodel.Node
}

// NewExtractor creates an extractor over the given program with an empty memo.
func NewExtractor(p *Program) *Extractor {
	return &Extractor{
		program: p,
		memo:    map[memoKey]*typemodel.Node{},
	}
}

// FunctionOf builds the function node for a callable declaration: a method
// definition, function declaration, arrow function or function expression.
func (e *Extractor) FunctionOf(f *SourceFile, name string, node *sitter.Node, scope []string) *typemodel.Node {
	return e.functionType(f, name, node, scope)
}

// TypeOf classifies one type expression. Classification is ordered and total:
// constructs that fit no case degrade to an unknown node, never an error.
// scope carries the generic parameter names visible at the expression site.
func (e *Extractor) TypeOf(f *SourceFile, node *sitter.Node, scope []string) *typemodel.Node {
	if node == nil {
		return &typemodel.Node{Kind: typemodel.KindUnknown, Loc: typemodel.Location{File: f.Path}}
	}

	// Unwrap annotation and grouping syntax.
	for node.Kind() == "type_annotation" || node.Kind() == "parenthesized_type" {
		inner := node.NamedChild(0)
		if inner == nil {
			break
		}
		node = inner
	}

	switch node.Kind() {
	case "predefined_type":
		return e.primitive(f, node)

	case "literal_type":
		if inner := node.NamedChild(0); inner != nil {
			switch inner.Kind() {
			case "null":
				return &typemodel.Node{Kind: typemodel.KindPrimitive, Name: "null", Text: "null", Loc: f.Location(node)}
			case "undefined":
				return &typemodel.Node{Kind: typemodel.KindPrimitive, Name: "undefined", Text: "undefined", Loc: f.Location(node)}
			}
		}
		return e.unknown(f, node)

	case "array_type":
		elem := node.NamedChild(0)
		return &typemodel.Node{
			Kind: typemodel.KindArray,
			Text: f.Text(node),
			Loc:  f.Location(node),
			Elem: e.TypeOf(f, elem, scope),
		}

	case "generic_type":
		return e.reference(f, node, scope)

	case "type_identifier":
		return e.named(f, node, f.Text(node), nil, scope)

	case "nested_type_identifier":
		return e.nested(f, node, scope)

	case "union_type":
		members := e.variantMembers(f, node, "union_type", scope)
		members = e.reconcileEnums(members)
		if len(members) == 1 {
			return members[0]
		}
		return &typemodel.Node{
			Kind:  typemodel.KindUnion,
			Text:  f.Text(node),
			Loc:   f.Location(node),
			Elems: members,
		}

	case "intersection_type":
		members := e.variantMembers(f, node, "intersection_type", scope)
		return &typemodel.Node{
			Kind:  typemodel.KindIntersection,
			Text:  f.Text(node),
			Loc:   f.Location(node),
			Elems: members,
		}

	case "function_type", "call_signature":
		return e.functionType(f, "", node, scope)

	case "object_type":
		if sig := findChildByKind(node, "call_signature"); sig != nil {
			return e.functionType(f, "", sig, scope)
		}
		return &typemodel.Node{
			Kind:    typemodel.KindObject,
			Text:    f.Text(node),
			Loc:     f.Location(node),
			Members: e.members(f, node, scope),
		}

	case "readonly_type":
		if inner := node.NamedChild(0); inner != nil {
			return e.TypeOf(f, inner, scope)
		}
		return e.unknown(f, node)

	default:
		return e.unknown(f, node)
	}
}

// unknown is the total-function fallback: printable text only.
func (e *Extractor) unknown(f *SourceFile, node *sitter.Node) *typemodel.Node {
	return &typemodel.Node{
		Kind: typemodel.KindUnknown,
		Text: f.Text(node),
		Loc:  f.Location(node),
	}
}

var primitiveNames = map[string]bool{
	"string":    true,
	"number":    true,
	"boolean":   true,
	"null":      true,
	"undefined": true,
	"void":      true,
	"any":       true,
	"bigint":    true,
	"symbol":    true,
}

func (e *Extractor) primitive(f *SourceFile, node *sitter.Node) *typemodel.Node {
	text := f.Text(node)
	if !primitiveNames[text] {
		// unknown / never / object keywords fall outside the primitive set.
		return e.unknown(f, node)
	}
	return &typemodel.Node{
		Kind: typemodel.KindPrimitive,
		Name: text,
		Text: text,
		Loc:  f.Location(node),
	}
}

// variantMembers flattens the nested binary parse of a union or intersection
// into its classified member list.
func (e *Extractor) variantMembers(f *SourceFile, node *sitter.Node, kind string, scope []string) []*typemodel.Node {
	var members []*typemodel.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child.Kind() == kind {
			members = append(members, e.variantMembers(f, child, kind, scope)...)
			continue
		}
		members = append(members, e.TypeOf(f, child, scope))
	}
	return members
}

// reconcileEnums collapses union members back into their parent enum when the
// union covers every literal of that enum. Partial coverage is left alone.
func (e *Extractor) reconcileEnums(members []*typemodel.Node) []*typemodel.Node {
	covered := map[*typemodel.Node]map[string]bool{}
	for _, m := range members {
		if m.Kind != typemodel.KindEnumValue || m.Parent == nil {
			continue
		}
		if covered[m.Parent] == nil {
			covered[m.Parent] = map[string]bool{}
		}
		covered[m.Parent][m.Name] = true
	}

	full := map[*typemodel.Node]bool{}
	for parent, names := range covered {
		if len(names) == len(parent.Values) && len(parent.Values) > 0 {
			full[parent] = true
		}
	}
	if len(full) == 0 {
		return members
	}

	var out []*typemodel.Node
	replaced := map[*typemodel.Node]bool{}
	for _, m := range members {
		if m.Kind == typemodel.KindEnumValue && full[m.Parent] {
			if !replaced[m.Parent] {
				replaced[m.Parent] = true
				out = append(out, m.Parent)
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// named resolves a bare type name: generic parameter in scope, project
// declaration, ambient standard-library type, imported external type, or a
// dangling reference.
func (e *Extractor) named(f *SourceFile, node *sitter.Node, name string, args []*typemodel.Node, scope []string) *typemodel.Node {
	if args == nil && inScope(scope, name) {
		return &typemodel.Node{
			Kind: typemodel.KindGenericParam,
			Name: name,
			Text: name,
			Loc:  f.Location(node),
		}
	}

	if decl, ok := e.program.Lookup(name); ok {
		return e.resolvedReference(f, node, decl, args)
	}

	if libFile, ok := BuiltinLibFile(name); ok {
		return e.externalReference(f, node, name, args, typemodel.Location{File: libFile})
	}

	if binding, ok := f.Imports[name]; ok {
		return e.externalReference(f, node, name, args, typemodel.Location{Package: binding.Module})
	}

	// Unresolvable name: keep it as a reference with no provenance so the
	// printable text survives; the import resolver skips it.
	return e.externalReference(f, node, name, args, typemodel.Location{})
}

// reference handles a parameterized type reference such as Name<A, B>.
func (e *Extractor) reference(f *SourceFile, node *sitter.Node, scope []string) *typemodel.Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = findChildByKind(node, "type_identifier")
	}
	if nameNode == nil {
		return e.unknown(f, node)
	}
	name := f.Text(nameNode)

	var args []*typemodel.Node
	if argList := node.ChildByFieldName("type_arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			args = append(args, e.TypeOf(f, argList.NamedChild(uint(i)), scope))
		}
	} else if argList := findChildByKind(node, "type_arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			args = append(args, e.TypeOf(f, argList.NamedChild(uint(i)), scope))
		}
	}

	// Array<T> is the array type in reference clothing.
	if name == "Array" && len(args) == 1 {
		return &typemodel.Node{
			Kind: typemodel.KindArray,
			Text: f.Text(node),
			Loc:  f.Location(node),
			Elem: args[0],
		}
	}

	if args == nil {
		args = []*typemodel.Node{}
	}
	return e.named(f, node, name, args, scope)
}

// resolvedReference classifies a reference to a declaration found in the
// scanned project.
func (e *Extractor) resolvedReference(f *SourceFile, node *sitter.Node, decl *TypeDecl, args []*typemodel.Node) *typemodel.Node {
	declNode := e.declNode(decl)

	switch decl.Kind {
	case DeclEnum:
		return declNode

	case DeclAlias:
		// An alias that turned out to be a union-of-literals enum keeps its
		// enum classification even when referenced.
		if declNode.Kind == typemodel.KindEnum {
			return declNode
		}
		if len(args) == 0 {
			return declNode
		}
		return &typemodel.Node{
			Kind:       typemodel.KindTypeAlias,
			Name:       decl.Name,
			Text:       instantiationText(decl.Name, declParamNames(decl, args)),
			Loc:        typemodel.Location{File: decl.File.Path},
			TypeParams: declParamNames(decl, args),
			TypeArgs:   args,
			Target:     declNode.Target,
		}

	default: // interface or class
		if len(args) == 0 {
			return declNode
		}
		return &typemodel.Node{
			Kind:       typemodel.KindTypeReference,
			Name:       decl.Name,
			Text:       instantiationText(decl.Name, declParamNames(decl, args)),
			Loc:        typemodel.Location{File: decl.File.Path},
			TypeParams: declParamNames(decl, args),
			TypeArgs:   args,
		}
	}
}

// externalReference builds a type-reference node for a type declared outside
// the scanned project (standard library, npm package, or unresolved).
func (e *Extractor) externalReference(f *SourceFile, node *sitter.Node, name string, args []*typemodel.Node, loc typemodel.Location) *typemodel.Node {
	params := positionalParams(len(args))
	text := name
	if len(args) > 0 {
		text = instantiationText(name, params)
	}
	return &typemodel.Node{
		Kind:       typemodel.KindTypeReference,
		Name:       name,
		Text:       text,
		Loc:        loc,
		TypeParams: params,
		TypeArgs:   args,
	}
}

// declParamNames recovers the originally declared type-parameter names, or
// synthesizes positional placeholders when the declaration has fewer than the
// supplied arguments.
func declParamNames(decl *TypeDecl, args []*typemodel.Node) []string {
	if len(decl.TypeParams) >= len(args) {
		return decl.TypeParams
	}
	return positionalParams(len(args))
}

func positionalParams(n int) []string {
	if n == 0 {
		return nil
	}
	params := make([]string, n)
	for i := range params {
		params[i] = "T" + strconv.Itoa(i)
	}
	return params
}

func instantiationText(name string, params []string) string {
	if len(params) == 0 {
		return name
	}
	return name + "<" + strings.Join(params, ", ") + ">"
}

// nested classifies a qualified name A.B: an enum member access resolves to
// the parent enum's value node, anything else degrades to unknown.
func (e *Extractor) nested(f *SourceFile, node *sitter.Node, scope []string) *typemodel.Node {
	moduleNode := node.ChildByFieldName("module")
	nameNode := node.ChildByFieldName("name")
	if moduleNode == nil || nameNode == nil {
		return e.unknown(f, node)
	}

	decl, ok := e.program.Lookup(f.Text(moduleNode))
	if !ok || decl.Kind != DeclEnum {
		return e.unknown(f, node)
	}

	parent := e.declNode(decl)
	member := f.Text(nameNode)
	for _, v := range parent.Values {
		if v.Name == member {
			return v
		}
	}
	return e.unknown(f, node)
}

// declNode extracts a declaration into its single per-run Node. The empty
// placeholder is inserted into the memo before any recursion so that
// mutually-recursive declarations resolve to a back-reference.
func (e *Extractor) declNode(decl *TypeDecl) *typemodel.Node {
	key := keyOf(decl.File, decl.Node)
	if n, ok := e.memo[key]; ok {
		return n
	}

	n := &typemodel.Node{}
	e.memo[key] = n

	switch decl.Kind {
	case DeclEnum:
		e.fillEnum(decl, n)
	case DeclAlias:
		e.fillAlias(decl, n)
	default:
		e.fillStructural(decl, n)
	}
	return n
}

// fillEnum finalizes an enum declaration node: name plus one enum-value per
// declared member, with implicit numeric values assigned TypeScript-style.
func (e *Extractor) fillEnum(decl *TypeDecl, n *typemodel.Node) {
	f := decl.File
	n.Kind = typemodel.KindEnum
	n.Name = decl.Name
	n.Text = decl.Name
	n.Loc = f.Location(decl.Node)

	body := decl.Node.ChildByFieldName("body")
	if body == nil {
		body = findChildByKind(decl.Node, "enum_body")
	}
	if body == nil {
		return
	}

	next := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(uint(i))

		var name, value string
		switch member.Kind() {
		case "enum_assignment":
			nameNode := member.ChildByFieldName("name")
			valueNode := member.ChildByFieldName("value")
			name = enumMemberName(f, nameNode)
			value = normalizeEnumValue(f.Text(valueNode))
			if num, err := strconv.Atoi(value); err == nil {
				next = num + 1
			}
		case "property_identifier", "string", "computed_property_name":
			name = enumMemberName(f, member)
			value = strconv.Itoa(next)
			next++
		default:
			continue
		}

		n.Values = append(n.Values, &typemodel.Node{
			Kind:   typemodel.KindEnumValue,
			Name:   name,
			Text:   decl.Name + "." + name,
			Value:  value,
			Loc:    f.Location(member),
			Parent: n,
		})
	}
}

func enumMemberName(f *SourceFile, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return unquote(f.Text(node))
}

// normalizeEnumValue renders an enum initializer as text: strings lose their
// quotes, big-integer literals lose their n suffix.
func normalizeEnumValue(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"' || text[0] == '`') {
		return text[1 : len(text)-1]
	}
	if strings.HasSuffix(text, "n") {
		digits := strings.TrimSuffix(text, "n")
		if _, err := strconv.ParseInt(digits, 10, 64); err == nil {
			return digits
		}
		if len(digits) > 0 && allDigits(digits) {
			return digits
		}
	}
	return text
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fillAlias finalizes a type alias node. An alias whose value is a union made
// entirely of literal types is classified as an enum instead.
func (e *Extractor) fillAlias(decl *TypeDecl, n *typemodel.Node) {
	f := decl.File
	value := decl.Node.ChildByFieldName("value")

	if value != nil && value.Kind() == "union_type" && unionOfLiterals(value) {
		n.Kind = typemodel.KindEnum
		n.Name = decl.Name
		n.Text = decl.Name
		n.Loc = f.Location(decl.Node)
		for _, lit := range literalUnionMembers(value) {
			memberText := normalizeEnumValue(f.Text(lit))
			n.Values = append(n.Values, &typemodel.Node{
				Kind:   typemodel.KindEnumValue,
				Name:   memberText,
				Text:   f.Text(lit),
				Value:  memberText,
				Loc:    f.Location(lit),
				Parent: n,
			})
		}
		return
	}

	n.Kind = typemodel.KindTypeAlias
	n.Name = decl.Name
	n.Text = decl.Name
	n.Loc = f.Location(decl.Node)
	n.TypeParams = decl.TypeParams
	n.Target = e.TypeOf(f, value, decl.TypeParams)
}

// unionOfLiterals reports whether every member of a union is a literal type.
func unionOfLiterals(node *sitter.Node) bool {
	members := literalUnionMembers(node)
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if m.Kind() != "literal_type" {
			return false
		}
		inner := m.NamedChild(0)
		if inner == nil {
			return false
		}
		switch inner.Kind() {
		case "string", "number":
		default:
			return false
		}
	}
	return true
}

// literalUnionMembers flattens the binary union parse into its leaf members.
func literalUnionMembers(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child.Kind() == "union_type" {
			out = append(out, literalUnionMembers(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

// fillStructural finalizes an interface or class declaration as a named
// structural type.
func (e *Extractor) fillStructural(decl *TypeDecl, n *typemodel.Node) {
	f := decl.File
	n.Kind = typemodel.KindInterface
	n.Name = decl.Name
	n.Text = decl.Name
	n.Loc = f.Location(decl.Node)
	n.TypeParams = decl.TypeParams

	body := decl.Node.ChildByFieldName("body")
	if body == nil {
		return
	}
	n.Members = e.members(f, body, decl.TypeParams)
}

// members collects the named members of an interface body, class body, or
// anonymous object type. Private and static class members are skipped.
func (e *Extractor) members(f *SourceFile, body *sitter.Node, scope []string) []typemodel.Member {
	var members []typemodel.Member
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(uint(i))

		switch m.Kind() {
		case "property_signature", "public_field_definition", "field_definition":
			if hasNonPublicModifier(f, m) {
				continue
			}
			nameNode := m.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			typeNode := m.ChildByFieldName("type")
			var t *typemodel.Node
			if typeNode != nil {
				t = e.TypeOf(f, typeNode, scope)
			} else {
				t = &typemodel.Node{Kind: typemodel.KindUnknown, Loc: f.Location(m)}
			}
			members = append(members, typemodel.Member{
				Name:     f.Text(nameNode),
				Type:     t,
				Optional: hasToken(f, m, "?"),
			})

		case "method_signature", "method_definition":
			if hasNonPublicModifier(f, m) {
				continue
			}
			nameNode := m.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := f.Text(nameNode)
			if name == "constructor" {
				continue
			}
			members = append(members, typemodel.Member{
				Name:     name,
				Type:     e.functionType(f, name, m, scope),
				Optional: hasToken(f, m, "?"),
			})
		}
	}
	return members
}

// functionType builds a function node from any callable syntax: function
// declarations, methods, method signatures, call signatures, function types,
// arrow functions and function expressions.
func (e *Extractor) functionType(f *SourceFile, name string, node *sitter.Node, scope []string) *typemodel.Node {
	scope = append(scope, declaredTypeParams(f, node)...)

	n := &typemodel.Node{
		Kind: typemodel.KindFunction,
		Name: name,
		Loc:  f.Location(node),
	}

	params := node.ChildByFieldName("parameters")
	if params == nil {
		params = findChildByKind(node, "formal_parameters")
	}
	if params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(uint(i))
			if p.Kind() != "required_parameter" && p.Kind() != "optional_parameter" {
				continue
			}
			n.Params = append(n.Params, e.param(f, p, scope))
		}
	}

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		n.Return = e.TypeOf(f, ret, scope)
	}

	n.Text = functionText(n)
	return n
}

// param extracts one formal parameter, capturing optional and rest markers.
func (e *Extractor) param(f *SourceFile, node *sitter.Node, scope []string) typemodel.Param {
	p := typemodel.Param{
		Optional: node.Kind() == "optional_parameter",
	}

	pattern := node.ChildByFieldName("pattern")
	if pattern != nil {
		if pattern.Kind() == "rest_pattern" {
			p.Rest = true
			if inner := pattern.NamedChild(0); inner != nil {
				p.Name = f.Text(inner)
			}
		} else {
			p.Name = f.Text(pattern)
		}
	}

	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.Type = e.TypeOf(f, typeNode, scope)
	} else {
		p.Type = &typemodel.Node{Kind: typemodel.KindUnknown, Loc: f.Location(node)}
	}
	return p
}

// functionText renders the printable form of a function node.
func functionText(n *typemodel.Node) string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString("(")
	for i, p := range n.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Rest {
			b.WriteString("...")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		if p.Type != nil && p.Type.Text != "" {
			b.WriteString(": ")
			b.WriteString(p.Type.Text)
		}
	}
	b.WriteString(")")
	if n.Return != nil {
		b.WriteString(": ")
		b.WriteString(n.Return.Text)
	}
	return b.String()
}

// hasToken reports whether the node has an anonymous child with the given text.
func hasToken(f *SourceFile, node *sitter.Node, token string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(uint(i))
		if !c.IsNamed() && f.Text(c) == token {
			return true
		}
	}
	return false
}

// hasNonPublicModifier reports whether a class member carries a private,
// protected or static modifier.
func hasNonPublicModifier(f *SourceFile, node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(uint(i))
		if c.Kind() == "accessibility_modifier" {
			if t := f.Text(c); t == "private" || t == "protected" {
				return true
			}
		}
		if !c.IsNamed() && f.Text(c) == "static" {
			return true
		}
	}
	return false
}

func inScope(scope []string, name string) bool {
	for _, s := range scope {
		if s == name {
			return true
		}
	}
	return false
}
