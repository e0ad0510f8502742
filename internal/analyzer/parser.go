package analyzer

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// ImportBinding records where a locally bound name was imported from.
type ImportBinding struct {
	Module   string
	TypeOnly bool
}

// SourceFile is one parsed input file. The parse tree stays open for the
// lifetime of the run; Close releases it.
type SourceFile struct {
	Path    string
	Source  []byte
	Tree    *sitter.Tree
	Root    *sitter.Node
	Imports map[string]ImportBinding
}

// Close releases the underlying parse tree.
func (f *SourceFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Text returns the source text of a node in this file.
func (f *SourceFile) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(f.Source)
}

// Location returns the provenance of a node in this file.
func (f *SourceFile) Location(node *sitter.Node) typemodel.Location {
	if node == nil {
		return typemodel.Location{File: f.Path}
	}
	return typemodel.Location{
		File:      f.Path,
		StartLine: int(node.StartPosition().Row) + 1,
		StartCol:  int(node.StartPosition().Column),
		EndLine:   int(node.EndPosition().Row) + 1,
		EndCol:    int(node.EndPosition().Column),
	}
}

// ParseFile reads and parses one TypeScript source file.
func ParseFile(ctx context.Context, path string) (*SourceFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSource(ctx, path, source)
}

// ParseSource parses TypeScript source text under the given path.
func ParseSource(_ context.Context, path string, source []byte) (*SourceFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	parser.SetLanguage(lang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse typescript file: %s", path)
	}

	f := &SourceFile{
		Path:    path,
		Source:  source,
		Tree:    tree,
		Root:    tree.RootNode(),
		Imports: map[string]ImportBinding{},
	}
	f.collectImports()
	return f, nil
}

// collectImports records the module specifier behind every imported local name.
func (f *SourceFile) collectImports() {
	walkTree(f.Root, func(n *sitter.Node) bool {
		if n.Kind() != "import_statement" {
			return true
		}

		sourceNode := n.ChildByFieldName("source")
		if sourceNode == nil {
			return false
		}
		module := unquote(f.Text(sourceNode))

		// `import type { ... }` marks every binding in the clause type-only.
		typeOnly := false
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(uint(i))
			if !c.IsNamed() && f.Text(c) == "type" {
				typeOnly = true
			}
		}

		clause := findChildByKind(n, "import_clause")
		if clause == nil {
			return false
		}

		for i := 0; i < int(clause.NamedChildCount()); i++ {
			c := clause.NamedChild(uint(i))
			switch c.Kind() {
			case "identifier":
				// Default import.
				f.Imports[f.Text(c)] = ImportBinding{Module: module, TypeOnly: typeOnly}
			case "namespace_import":
				if id := findChildByKind(c, "identifier"); id != nil {
					f.Imports[f.Text(id)] = ImportBinding{Module: module, TypeOnly: typeOnly}
				}
			case "named_imports":
				for j := 0; j < int(c.NamedChildCount()); j++ {
					spec := c.NamedChild(uint(j))
					if spec.Kind() != "import_specifier" {
						continue
					}
					specTypeOnly := typeOnly
					for k := 0; k < int(spec.ChildCount()); k++ {
						if !spec.Child(uint(k)).IsNamed() && f.Text(spec.Child(uint(k))) == "type" {
							specTypeOnly = true
						}
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil {
						f.Imports[f.Text(local)] = ImportBinding{Module: module, TypeOnly: specTypeOnly}
					}
				}
			}
		}
		return false
	})
}

// unquote strips the surrounding quotes from a string literal's source text.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each
// node. Returning false stops descent into that subtree.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildByKind finds the first child node with the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}
