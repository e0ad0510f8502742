package analyzer

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// FunctionKind classifies how an exposed callable was declared.
type FunctionKind string

const (
	FunctionMethod FunctionKind = "method"
	FunctionFree   FunctionKind = "function"
	FunctionLambda FunctionKind = "lambda"
)

// ExposedFunction is one marker-annotated callable ready for generation.
type ExposedFunction struct {
	Kind      FunctionKind
	Name      string
	Owner     string // declaring class, methods only
	Func      *typemodel.Node
	Directive Directive
	Loc       typemodel.Location
}

// ScannerOptions toggles capability extensions.
type ScannerOptions struct {
	// AsyncStreams additionally accepts AsyncIterableIterator return
	// annotations on exposed functions.
	AsyncStreams bool
}

// namespacePattern is the convention rule for explicit namespace arguments.
var namespacePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// Scanner walks the program's files and collects exposed functions.
// Convention violations drop the function with a warning; they never abort
// the run.
type Scanner struct {
	program   *Program
	extractor *Extractor
	opts      ScannerOptions
	logger    *zap.Logger
	warnings  int
}

// NewScanner creates a scanner over the given program and extractor.
func NewScanner(p *Program, e *Extractor, opts ScannerOptions, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{program: p, extractor: e, opts: opts, logger: logger}
}

// Warnings returns the number of convention-violation warnings emitted so far.
func (s *Scanner) Warnings() int {
	return s.warnings
}

// Scan walks every file and returns the exposed functions in file order.
func (s *Scanner) Scan() []ExposedFunction {
	var out []ExposedFunction
	for _, f := range s.program.Files {
		out = append(out, s.scanFile(f)...)
	}
	return out
}

func (s *Scanner) scanFile(f *SourceFile) []ExposedFunction {
	var out []ExposedFunction

	root := f.Root
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(uint(i))

		// Comments on exported declarations attach to the export statement.
		commentHost := stmt
		decl := stmt
		if stmt.Kind() == "export_statement" {
			if inner := stmt.ChildByFieldName("declaration"); inner != nil {
				decl = inner
			}
		}

		switch decl.Kind() {
		case "class_declaration":
			out = append(out, s.scanClass(f, decl)...)

		case "function_declaration", "generator_function_declaration":
			if fn, ok := s.scanCallable(f, FunctionFree, "", decl, decl, commentHost, nil); ok {
				out = append(out, fn)
			}

		case "lexical_declaration", "variable_declaration":
			if fn, ok := s.scanBinding(f, decl, commentHost); ok {
				out = append(out, fn)
			}
		}
	}
	return out
}

// scanClass records every qualifying marker-annotated method of a class.
func (s *Scanner) scanClass(f *SourceFile, class *sitter.Node) []ExposedFunction {
	nameNode := class.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	owner := f.Text(nameNode)
	classScope := declaredTypeParams(f, class)

	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var out []ExposedFunction
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(uint(i))
		if member.Kind() != "method_definition" {
			continue
		}
		if hasNonPublicModifier(f, member) {
			continue
		}
		if fn, ok := s.scanCallable(f, FunctionMethod, owner, member, member, member, classScope); ok {
			out = append(out, fn)
		}
	}
	return out
}

// scanBinding handles `const fn = (…) => …` single-function variable bindings.
func (s *Scanner) scanBinding(f *SourceFile, decl, commentHost *sitter.Node) (ExposedFunction, bool) {
	declarators := namedChildrenOfKind(decl, "variable_declarator")
	if len(declarators) != 1 {
		return ExposedFunction{}, false
	}
	d := declarators[0]

	value := d.ChildByFieldName("value")
	if value == nil {
		return ExposedFunction{}, false
	}
	switch value.Kind() {
	case "arrow_function", "function_expression", "function", "generator_function":
	default:
		return ExposedFunction{}, false
	}

	nameNode := d.ChildByFieldName("name")
	if nameNode == nil {
		return ExposedFunction{}, false
	}

	return s.scanCallable(f, FunctionLambda, "", d, value, commentHost, nil)
}

// scanCallable checks one callable declaration for a marker and validates the
// exposure conventions. nameHost carries the declaration name, fnSyntax the
// callable syntax (they differ for variable bindings), commentHost the node
// whose preceding comments may hold the marker.
func (s *Scanner) scanCallable(f *SourceFile, kind FunctionKind, owner string, nameHost, fnSyntax, commentHost *sitter.Node, scope []string) (ExposedFunction, bool) {
	comment := precedingComment(f, commentHost)
	if comment == "" {
		return ExposedFunction{}, false
	}

	loc := f.Location(nameHost)
	directive, found, err := ParseMarker(comment)
	if err != nil {
		s.warn("invalid exposure marker", f, loc, zap.Error(err))
		return ExposedFunction{}, false
	}
	if !found {
		return ExposedFunction{}, false
	}

	nameNode := nameHost.ChildByFieldName("name")
	if nameNode == nil {
		return ExposedFunction{}, false
	}
	name := f.Text(nameNode)

	if directive.Namespace != "" && !namespacePattern.MatchString(directive.Namespace) {
		s.warn("exposed function skipped: namespace must match ^[a-z][a-zA-Z0-9]*$", f, loc,
			zap.String("function", name),
			zap.String("namespace", directive.Namespace))
		return ExposedFunction{}, false
	}

	fn := s.extractor.FunctionOf(f, name, fnSyntax, scope)

	// Only explicitly annotated return types are checked; inference is
	// accepted unchecked.
	if fn.Return != nil && !s.allowedReturn(fn.Return) {
		s.warn("exposed function skipped: annotated return type must be the deferred wrapper", f, loc,
			zap.String("function", name),
			zap.String("return", fn.Return.Text))
		return ExposedFunction{}, false
	}

	return ExposedFunction{
		Kind:      kind,
		Name:      name,
		Owner:     owner,
		Func:      fn,
		Directive: directive,
		Loc:       loc,
	}, true
}

func (s *Scanner) allowedReturn(ret *typemodel.Node) bool {
	if ret.IsReferenceTo("Promise") {
		return true
	}
	if s.opts.AsyncStreams && ret.IsReferenceTo("AsyncIterableIterator") {
		return true
	}
	return false
}

func (s *Scanner) warn(msg string, f *SourceFile, loc typemodel.Location, fields ...zap.Field) {
	s.warnings++
	fields = append([]zap.Field{
		zap.String("file", f.Path),
		zap.Int("line", loc.StartLine),
	}, fields...)
	s.logger.Warn(msg, fields...)
}

// precedingComment joins the run of comment nodes directly above a node,
// skipping decorators.
func precedingComment(f *SourceFile, node *sitter.Node) string {
	var parts []string
	curr := node.PrevSibling()
	for curr != nil {
		k := curr.Kind()
		if k == "comment" {
			parts = append([]string{f.Text(curr)}, parts...)
		} else if k != "decorator" {
			break
		}
		curr = curr.PrevSibling()
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n" + p
	}
	return out
}

// namedChildrenOfKind returns the named children with the given kind.
func namedChildrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(uint(i))
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}
