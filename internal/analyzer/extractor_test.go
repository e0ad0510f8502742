package analyzer

import (
	"context"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// Test Plan for Type Extraction:
// - Classify predefined primitives and degrade unknown keywords
// - Classify array syntax, both T[] and Array<T>
// - Resolve project interface declarations with members and optional markers
// - Share one node per declaration across references (identity)
// - Terminate on recursive and mutually recursive type graphs
// - Extract enum declarations with implicit and explicit values
// - Classify union-of-literal aliases as enums
// - Resolve enum member accesses and reconcile full unions back to the enum
// - Resolve ambient standard-library types to lib file provenance
// - Resolve imported external types to package provenance
// - Bind generic parameter names in scope
// - Extract function types with optional and rest parameters

func buildProgram(t *testing.T, files map[string]string) (*Program, *Extractor) {
	t.Helper()
	var parsed []*SourceFile
	for path, source := range files {
		f, err := ParseSource(context.Background(), path, []byte(source))
		require.NoError(t, err)
		parsed = append(parsed, f)
	}
	p := NewProgram(parsed, nil)
	t.Cleanup(p.Close)
	return p, NewExtractor(p)
}

// aliasValue finds the type expression behind `type <name> = ...` in a file.
func aliasValue(t *testing.T, f *SourceFile, name string) *sitter.Node {
	t.Helper()
	root := f.Root
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(uint(i))
		if node.Kind() == "export_statement" {
			if decl := node.ChildByFieldName("declaration"); decl != nil {
				node = decl
			}
		}
		if node.Kind() != "type_alias_declaration" {
			continue
		}
		if f.Text(node.ChildByFieldName("name")) == name {
			return node.ChildByFieldName("value")
		}
	}
	t.Fatalf("alias %s not found in %s", name, f.Path)
	return nil
}

func fileByPath(t *testing.T, p *Program, path string) *SourceFile {
	t.Helper()
	for _, f := range p.Files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("file %s not in program", path)
	return nil
}

func TestTypeOf_Primitives(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"main.ts": "type A = string;\ntype B = number;\ntype C = never;\n",
	})
	f := fileByPath(t, p, "main.ts")

	a := e.TypeOf(f, aliasValue(t, f, "A"), nil)
	assert.Equal(t, typemodel.KindPrimitive, a.Kind)
	assert.Equal(t, "string", a.Name)

	b := e.TypeOf(f, aliasValue(t, f, "B"), nil)
	assert.Equal(t, typemodel.KindPrimitive, b.Kind)
	assert.Equal(t, "number", b.Name)

	// never is outside the primitive set and degrades to unknown.
	c := e.TypeOf(f, aliasValue(t, f, "C"), nil)
	assert.Equal(t, typemodel.KindUnknown, c.Kind)
	assert.Equal(t, "never", c.Text)
}

func TestTypeOf_Arrays(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"main.ts": "type A = string[];\ntype B = Array<number>;\n",
	})
	f := fileByPath(t, p, "main.ts")

	a := e.TypeOf(f, aliasValue(t, f, "A"), nil)
	require.Equal(t, typemodel.KindArray, a.Kind)
	assert.Equal(t, "string", a.Elem.Name)

	// Array<T> is the same array type in reference clothing.
	b := e.TypeOf(f, aliasValue(t, f, "B"), nil)
	require.Equal(t, typemodel.KindArray, b.Kind)
	assert.Equal(t, "number", b.Elem.Name)
}

func TestTypeOf_InterfaceMembers(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"types.ts": `
export interface User {
  id: number;
  name: string;
  manager?: User;
}
type Ref = User;
`,
	})
	f := fileByPath(t, p, "types.ts")

	u := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindInterface, u.Kind)
	assert.Equal(t, "User", u.Name)
	require.Len(t, u.Members, 3)

	assert.Equal(t, "id", u.Members[0].Name)
	assert.Equal(t, "number", u.Members[0].Type.Name)
	assert.False(t, u.Members[0].Optional)

	assert.Equal(t, "manager", u.Members[2].Name)
	assert.True(t, u.Members[2].Optional)
}

func TestTypeOf_DeclarationIdentity(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"types.ts": `
export interface User { id: number; }
type A = User;
type B = User;
`,
	})
	f := fileByPath(t, p, "types.ts")

	a := e.TypeOf(f, aliasValue(t, f, "A"), nil)
	b := e.TypeOf(f, aliasValue(t, f, "B"), nil)
	assert.Same(t, a, b, "references to one declaration must share one node")
}

func TestTypeOf_RecursiveType(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"tree.ts": `
export interface Tree {
  value: number;
  children: Tree[];
}
type Ref = Tree;
`,
	})
	f := fileByPath(t, p, "tree.ts")

	tree := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindInterface, tree.Kind)
	require.Len(t, tree.Members, 2)

	children := tree.Members[1].Type
	require.Equal(t, typemodel.KindArray, children.Kind)
	assert.Same(t, tree, children.Elem, "recursive reference must close the cycle")
}

func TestTypeOf_MutualRecursion(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"graph.ts": `
export interface Node { edges: Edge[]; }
export interface Edge { from: Node; to: Node; }
type Ref = Node;
`,
	})
	f := fileByPath(t, p, "graph.ts")

	node := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindInterface, node.Kind)
	edge := node.Members[0].Type.Elem
	require.Equal(t, typemodel.KindInterface, edge.Kind)
	assert.Same(t, node, edge.Members[0].Type)
	assert.Same(t, node, edge.Members[1].Type)
}

func TestTypeOf_EnumDeclaration(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"enums.ts": `
export enum Color {
  Red,
  Green = 5,
  Blue,
  Label = "tint",
}
type Ref = Color;
`,
	})
	f := fileByPath(t, p, "enums.ts")

	c := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindEnum, c.Kind)
	require.Len(t, c.Values, 4)

	assert.Equal(t, "Red", c.Values[0].Name)
	assert.Equal(t, "0", c.Values[0].Value)
	assert.Equal(t, "Green", c.Values[1].Name)
	assert.Equal(t, "5", c.Values[1].Value)
	assert.Equal(t, "Blue", c.Values[2].Name)
	assert.Equal(t, "6", c.Values[2].Value)
	assert.Equal(t, "Label", c.Values[3].Name)
	assert.Equal(t, "tint", c.Values[3].Value)

	for _, v := range c.Values {
		assert.Equal(t, typemodel.KindEnumValue, v.Kind)
		assert.Same(t, c, v.Parent)
	}
}

func TestTypeOf_LiteralUnionAliasIsEnum(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"types.ts": `
export type Role = "admin" | "member" | "guest";
type Ref = Role;
`,
	})
	f := fileByPath(t, p, "types.ts")

	role := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindEnum, role.Kind)
	assert.Equal(t, "Role", role.Name)
	require.Len(t, role.Values, 3)
	assert.Equal(t, "admin", role.Values[0].Value)
	assert.Equal(t, "guest", role.Values[2].Value)
}

func TestTypeOf_UnionWithNull(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"types.ts": `
export interface User { id: number; }
type Maybe = User | null;
`,
	})
	f := fileByPath(t, p, "types.ts")

	u := e.TypeOf(f, aliasValue(t, f, "Maybe"), nil)
	require.Equal(t, typemodel.KindUnion, u.Kind)
	require.Len(t, u.Elems, 2)
	assert.Equal(t, typemodel.KindInterface, u.Elems[0].Kind)
	assert.Equal(t, "null", u.Elems[1].Name)
}

func TestTypeOf_EnumMemberAccess(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"enums.ts": `
export enum Color { Red, Green }
type One = Color.Red;
`,
	})
	f := fileByPath(t, p, "enums.ts")

	red := e.TypeOf(f, aliasValue(t, f, "One"), nil)
	require.Equal(t, typemodel.KindEnumValue, red.Kind)
	assert.Equal(t, "Red", red.Name)
	require.NotNil(t, red.Parent)
	assert.Equal(t, "Color", red.Parent.Name)
}

func TestTypeOf_EnumReconciliation(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"enums.ts": `
export enum Color { Red, Green, Blue }
type Full = Color.Red | Color.Green | Color.Blue;
type Partial2 = Color.Red | Color.Green;
`,
	})
	f := fileByPath(t, p, "enums.ts")

	// Full literal coverage collapses back to the parent enum.
	full := e.TypeOf(f, aliasValue(t, f, "Full"), nil)
	require.Equal(t, typemodel.KindEnum, full.Kind)
	assert.Equal(t, "Color", full.Name)

	// Partial coverage stays a union of enum values.
	partial := e.TypeOf(f, aliasValue(t, f, "Partial2"), nil)
	require.Equal(t, typemodel.KindUnion, partial.Kind)
	require.Len(t, partial.Elems, 2)
	assert.Equal(t, typemodel.KindEnumValue, partial.Elems[0].Kind)
}

func TestTypeOf_AmbientStandardLibrary(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"main.ts": "type A = Promise<string>;\ntype B = Map<string, number>;\n",
	})
	f := fileByPath(t, p, "main.ts")

	a := e.TypeOf(f, aliasValue(t, f, "A"), nil)
	require.Equal(t, typemodel.KindTypeReference, a.Kind)
	assert.True(t, a.IsReferenceTo("Promise"))
	assert.True(t, IsLibFile(a.Loc.File))
	require.Len(t, a.TypeArgs, 1)
	assert.Equal(t, "string", a.TypeArgs[0].Name)

	b := e.TypeOf(f, aliasValue(t, f, "B"), nil)
	assert.Equal(t, "Map", b.Name)
	assert.True(t, IsLibFile(b.Loc.File))
}

func TestTypeOf_ImportedExternalType(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"main.ts": "import type { Pattern } from \"some-lib\";\ntype A = Pattern;\n",
	})
	f := fileByPath(t, p, "main.ts")

	a := e.TypeOf(f, aliasValue(t, f, "A"), nil)
	require.Equal(t, typemodel.KindTypeReference, a.Kind)
	assert.Equal(t, "Pattern", a.Name)
	assert.Equal(t, "some-lib", a.Loc.Package)
}

func TestTypeOf_GenericParameterScope(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"box.ts": `
export interface Box<T> { value: T; }
type Ref = Box<string>;
`,
	})
	f := fileByPath(t, p, "box.ts")

	box := e.TypeOf(f, aliasValue(t, f, "Ref"), nil)
	require.Equal(t, typemodel.KindTypeReference, box.Kind)
	assert.Equal(t, []string{"T"}, box.TypeParams)
	require.Len(t, box.TypeArgs, 1)
	assert.Equal(t, "string", box.TypeArgs[0].Name)

	// The underlying declaration binds T as a generic parameter.
	decl, ok := p.Lookup("Box")
	require.True(t, ok)
	declNode := e.declNode(decl)
	require.Len(t, declNode.Members, 1)
	assert.Equal(t, typemodel.KindGenericParam, declNode.Members[0].Type.Kind)
	assert.Equal(t, "T", declNode.Members[0].Type.Name)
}

func TestFunctionOf_Parameters(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"fns.ts": "export function send(target: string, size?: number, ...rest: string[]): Promise<void> { }\n",
	})
	f := fileByPath(t, p, "fns.ts")

	var fnNode *sitter.Node
	walkTree(f.Root, func(n *sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			fnNode = n
			return false
		}
		return true
	})
	require.NotNil(t, fnNode)

	fn := e.FunctionOf(f, "send", fnNode, nil)
	require.Equal(t, typemodel.KindFunction, fn.Kind)
	require.Len(t, fn.Params, 3)

	assert.Equal(t, "target", fn.Params[0].Name)
	assert.Equal(t, "string", fn.Params[0].Type.Name)

	assert.Equal(t, "size", fn.Params[1].Name)
	assert.True(t, fn.Params[1].Optional)

	assert.Equal(t, "rest", fn.Params[2].Name)
	assert.True(t, fn.Params[2].Rest)
	assert.Equal(t, typemodel.KindArray, fn.Params[2].Type.Kind)

	require.NotNil(t, fn.Return)
	assert.True(t, fn.Return.IsReferenceTo("Promise"))
}

func TestFunctionOf_NoReturnAnnotation(t *testing.T) {
	t.Parallel()

	p, e := buildProgram(t, map[string]string{
		"fns.ts": "export async function run() { return 1; }\n",
	})
	f := fileByPath(t, p, "fns.ts")

	var fnNode *sitter.Node
	walkTree(f.Root, func(n *sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			fnNode = n
			return false
		}
		return true
	})
	require.NotNil(t, fnNode)

	fn := e.FunctionOf(f, "run", fnNode, nil)
	assert.Nil(t, fn.Return)
}
