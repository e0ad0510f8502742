package analyzer

import (
	"regexp"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"
)

// DeclKind classifies a named type declaration.
type DeclKind string

const (
	DeclInterface DeclKind = "interface"
	DeclClass     DeclKind = "class"
	DeclEnum      DeclKind = "enum"
	DeclAlias     DeclKind = "alias"
)

// TypeDecl is one named type declaration found in the scanned files.
type TypeDecl struct {
	Name       string
	Kind       DeclKind
	File       *SourceFile
	Node       *sitter.Node
	TypeParams []string
}

// Program is the semantic model for one regeneration run: the parsed files
// plus a project-wide table of named type declarations. It is built fresh each
// run and discarded at run end.
type Program struct {
	Files  []*SourceFile
	decls  map[string]*TypeDecl
	logger *zap.Logger
}

// NewProgram builds the declaration table over the given files. Files are
// sorted by path so name collisions resolve deterministically (first file
// wins).
func NewProgram(files []*SourceFile, logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}

	sorted := make([]*SourceFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	p := &Program{
		Files:  sorted,
		decls:  map[string]*TypeDecl{},
		logger: logger,
	}
	for _, f := range sorted {
		p.indexFile(f)
	}
	return p
}

// Close releases every parse tree held by the program.
func (p *Program) Close() {
	for _, f := range p.Files {
		f.Close()
	}
}

// Lookup resolves a type name to its declaration, if any file declares it.
func (p *Program) Lookup(name string) (*TypeDecl, bool) {
	d, ok := p.decls[name]
	return d, ok
}

// indexFile records every named type declaration in f, unwrapping export
// statements.
func (p *Program) indexFile(f *SourceFile) {
	root := f.Root
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(uint(i))
		if node.Kind() == "export_statement" {
			if decl := node.ChildByFieldName("declaration"); decl != nil {
				node = decl
			}
		}

		var kind DeclKind
		switch node.Kind() {
		case "interface_declaration":
			kind = DeclInterface
		case "class_declaration":
			kind = DeclClass
		case "enum_declaration":
			kind = DeclEnum
		case "type_alias_declaration":
			kind = DeclAlias
		default:
			continue
		}

		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := f.Text(nameNode)

		if prev, exists := p.decls[name]; exists {
			p.logger.Debug("duplicate type declaration ignored",
				zap.String("name", name),
				zap.String("kept", prev.File.Path),
				zap.String("ignored", f.Path))
			continue
		}

		p.decls[name] = &TypeDecl{
			Name:       name,
			Kind:       kind,
			File:       f,
			Node:       node,
			TypeParams: declaredTypeParams(f, node),
		}
	}
}

// declaredTypeParams returns the type-parameter names declared on a
// declaration node, in order.
func declaredTypeParams(f *SourceFile, node *sitter.Node) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		tp = findChildByKind(node, "type_parameters")
	}
	if tp == nil {
		return nil
	}

	var names []string
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		param := tp.NamedChild(uint(i))
		if param.Kind() != "type_parameter" {
			continue
		}
		nameNode := param.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = findChildByKind(param, "type_identifier")
		}
		if nameNode != nil {
			names = append(names, f.Text(nameNode))
		}
	}
	return names
}

// libFilePattern recognizes the type system's own standard-library definition
// files. Types with this provenance never produce imports.
var libFilePattern = regexp.MustCompile(`^lib\..*\.d\.ts$`)

// IsLibFile reports whether a declaration file belongs to the standard-library
// surface.
func IsLibFile(path string) bool {
	return libFilePattern.MatchString(path)
}

// builtinLibFiles maps ambient standard-library type names to the definition
// file that declares them. The exact file names only need to match the
// lib.*.d.ts pattern; they are never resolved on disk.
var builtinLibFiles = map[string]string{
	"Array":                 "lib.es5.d.ts",
	"ReadonlyArray":         "lib.es5.d.ts",
	"Promise":               "lib.es2015.promise.d.ts",
	"PromiseLike":           "lib.es5.d.ts",
	"Map":                   "lib.es2015.collection.d.ts",
	"Set":                   "lib.es2015.collection.d.ts",
	"WeakMap":               "lib.es2015.collection.d.ts",
	"WeakSet":               "lib.es2015.collection.d.ts",
	"Date":                  "lib.es5.d.ts",
	"RegExp":                "lib.es5.d.ts",
	"Error":                 "lib.es5.d.ts",
	"Record":                "lib.es5.d.ts",
	"Partial":               "lib.es5.d.ts",
	"Required":              "lib.es5.d.ts",
	"Readonly":              "lib.es5.d.ts",
	"Pick":                  "lib.es5.d.ts",
	"Omit":                  "lib.es5.d.ts",
	"Iterable":              "lib.es2015.iterable.d.ts",
	"IterableIterator":      "lib.es2015.iterable.d.ts",
	"AsyncIterable":         "lib.es2018.asynciterable.d.ts",
	"AsyncIterableIterator": "lib.es2018.asynciterable.d.ts",
	"ArrayBuffer":           "lib.es5.d.ts",
	"Uint8Array":            "lib.es5.d.ts",
	"Function":              "lib.es5.d.ts",
}

// BuiltinLibFile returns the synthetic declaration file for an ambient
// standard-library type name.
func BuiltinLibFile(name string) (string, bool) {
	file, ok := builtinLibFiles[name]
	return file, ok
}
