package generator

import (
	"strings"
)

// Declarations renders the ambient type declaration module: one interface per
// namespace plus a global augmentation exposing each namespace as a read-only
// window property.
func (g *Generator) Declarations(groups []NamespaceGroup) string {
	imports := newImportSet(g.TypesDir)
	for _, group := range groups {
		for _, fn := range group.Functions {
			for _, p := range fn.Func.Params {
				imports.collectTypes(p.Type)
			}
			imports.collectTypes(fn.Func.Return)
		}
	}

	var b strings.Builder
	b.WriteString(Banner)
	b.WriteString("\n")

	rendered := renderImports(imports.descriptors())
	b.WriteString(rendered)

	for _, group := range groups {
		b.WriteString("\nexport interface ")
		b.WriteString(BridgeInterfaceName(group.Key))
		b.WriteString(" {\n")
		for _, fn := range group.Functions {
			annotation, _ := returnAnnotation(fn.Func.Return)
			b.WriteString("  readonly ")
			b.WriteString(fn.Name)
			b.WriteString(": (")
			b.WriteString(paramList(fn.Func.Params))
			b.WriteString(") => ")
			b.WriteString(annotation)
			b.WriteString(";\n")
		}
		b.WriteString("}\n")
	}

	b.WriteString("\ndeclare global {\n")
	b.WriteString("  interface Window {\n")
	for _, group := range groups {
		b.WriteString("    readonly ")
		b.WriteString(group.Key)
		b.WriteString(": ")
		b.WriteString(BridgeInterfaceName(group.Key))
		b.WriteString(";\n")
	}
	b.WriteString("  }\n")
	b.WriteString("}\n")

	b.WriteString("\nexport {};\n")

	return b.String()
}
