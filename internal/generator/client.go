package generator

import (
	"strings"
)

// Client renders the client bridge module: one exported object per namespace
// whose members forward positional arguments through the RPC controller.
func (g *Generator) Client(groups []NamespaceGroup) string {
	imports := newImportSet(g.ClientDir)
	imports.addValuePath(g.RuntimeModule, clientController)

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
	b.WriteString(renderImports(imports.descriptors()))

	for _, group := range groups {
		b.WriteString("\nexport const ")
		b.WriteString(group.Key)
		b.WriteString(" = {\n")
		for _, fn := range group.Functions {
			annotation, invokeArg := returnAnnotation(fn.Func.Return)

			call := "invoke"
			if fn.Func.Return.IsReferenceTo(streamWrapper) {
				call = "stream"
			}

			b.WriteString("  ")
			b.WriteString(fn.Name)
			b.WriteString("(")
			b.WriteString(paramList(fn.Func.Params))
			b.WriteString("): ")
			b.WriteString(annotation)
			b.WriteString(" {\n")
			b.WriteString("    return ")
			b.WriteString(clientController)
			b.WriteString(".")
			b.WriteString(call)
			if invokeArg != "" {
				b.WriteString("<")
				b.WriteString(invokeArg)
				b.WriteString(">")
			}
			b.WriteString("(\"")
			b.WriteString(ChannelKey(group.Key, fn.Name))
			b.WriteString("\"")
			b.WriteString(argList(fn.Func.Params))
			b.WriteString(");\n")
			b.WriteString("  },\n")
		}
		b.WriteString("};\n")
	}

	return b.String()
}
