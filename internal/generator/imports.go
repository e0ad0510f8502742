package generator

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// ImportDescriptor is one import line of a generated artifact.
type ImportDescriptor struct {
	TypeOnly bool
	Path     string
	Symbols  []string
}

// importSet accumulates the value and type-only imports of one artifact.
// Each artifact keeps its own visited set: the same Node graph is walked once
// per artifact, not once per run.
type importSet struct {
	artifactDir string
	values      map[string]map[string]bool
	types       map[string]map[string]bool
	visited     map[*typemodel.Node]bool
}

func newImportSet(artifactDir string) *importSet {
	return &importSet{
		artifactDir: artifactDir,
		values:      map[string]map[string]bool{},
		types:       map[string]map[string]bool{},
		visited:     map[*typemodel.Node]bool{},
	}
}

// addValue records a value import of symbol from the given provenance.
func (s *importSet) addValue(loc typemodel.Location, symbol string) {
	if path, ok := s.pathFor(loc); ok {
		add(s.values, path, symbol)
	}
}

// addValuePath records a value import of symbol from a literal module path.
func (s *importSet) addValuePath(path, symbol string) {
	add(s.values, path, symbol)
}

// collectTypes walks a type graph and records every named type the printed
// annotations will mention as a type-only import.
func (s *importSet) collectTypes(n *typemodel.Node) {
	if n == nil || s.visited[n] {
		return
	}
	s.visited[n] = true

	switch n.Kind {
	case typemodel.KindTypeReference, typemodel.KindTypeAlias:
		s.addType(n.Loc, n.Name)
		for _, arg := range n.TypeArgs {
			s.collectTypes(arg)
		}

	case typemodel.KindInterface, typemodel.KindEnum:
		// Named types are imported by name; their members never appear in
		// generated text.
		s.addType(n.Loc, n.Name)

	case typemodel.KindEnumValue:
		s.collectTypes(n.Parent)

	case typemodel.KindArray:
		s.collectTypes(n.Elem)

	case typemodel.KindUnion, typemodel.KindIntersection:
		for _, m := range n.Elems {
			s.collectTypes(m)
		}

	case typemodel.KindObject:
		for _, m := range n.Members {
			s.collectTypes(m.Type)
		}

	case typemodel.KindFunction:
		for _, p := range n.Params {
			s.collectTypes(p.Type)
		}
		s.collectTypes(n.Return)
	}
}

func (s *importSet) addType(loc typemodel.Location, symbol string) {
	if symbol == "" {
		return
	}
	if path, ok := s.pathFor(loc); ok {
		add(s.types, path, symbol)
	}
}

// pathFor maps provenance to an import path. External packages import by bare
// name; the type system's own lib.*.d.ts surface needs no import at all;
// project files import relative to the artifact's output directory.
func (s *importSet) pathFor(loc typemodel.Location) (string, bool) {
	if loc.Package != "" {
		return loc.Package, true
	}
	if loc.File == "" {
		return "", false
	}
	if analyzer.IsLibFile(filepath.Base(loc.File)) {
		return "", false
	}

	rel, err := filepath.Rel(s.artifactDir, loc.File)
	if err != nil {
		return "", false
	}
	rel = stripSourceExt(filepath.ToSlash(rel))
	if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "./") {
		rel = "./" + rel
	}
	return rel, true
}

// descriptors returns the accumulated imports: value imports first, then
// type-only imports, each sorted by path with symbols sorted within.
func (s *importSet) descriptors() []ImportDescriptor {
	out := flatten(s.values, false)
	return append(out, flatten(s.types, true)...)
}

func flatten(m map[string]map[string]bool, typeOnly bool) []ImportDescriptor {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]ImportDescriptor, 0, len(paths))
	for _, path := range paths {
		symbols := make([]string, 0, len(m[path]))
		for symbol := range m[path] {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		out = append(out, ImportDescriptor{TypeOnly: typeOnly, Path: path, Symbols: symbols})
	}
	return out
}

func add(m map[string]map[string]bool, path, symbol string) {
	if m[path] == nil {
		m[path] = map[string]bool{}
	}
	m[path][symbol] = true
}

// stripSourceExt removes the TypeScript source extension from an import path.
func stripSourceExt(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return strings.TrimSuffix(path, ".d.ts")
	}
	for _, ext := range []string{".tsx", ".ts", ".mts", ".cts"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// renderImports renders import descriptors as TypeScript import statements.
func renderImports(descriptors []ImportDescriptor) string {
	var b strings.Builder
	for _, d := range descriptors {
		b.WriteString("import ")
		if d.TypeOnly {
			b.WriteString("type ")
		}
		b.WriteString("{ ")
		b.WriteString(strings.Join(d.Symbols, ", "))
		b.WriteString(" } from \"")
		b.WriteString(d.Path)
		b.WriteString("\";\n")
	}
	return b.String()
}
