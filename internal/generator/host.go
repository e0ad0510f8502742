package generator

import (
	"sort"
	"strings"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// Host renders the host registration module: one deduplicated singleton per
// owning class, one registration statement per exposed function.
func (g *Generator) Host(groups []NamespaceGroup) string {
	imports := newImportSet(g.HostDir)
	imports.addValuePath(g.RuntimeModule, hostController)

	// One singleton per owning class, keyed by class name.
	ownerFiles := map[string]typemodel.Location{}
	for _, group := range groups {
		for _, fn := range group.Functions {
			switch fn.Kind {
			case analyzer.FunctionMethod:
				if _, seen := ownerFiles[fn.Owner]; !seen {
					ownerFiles[fn.Owner] = fn.Loc
				}
			default:
				imports.addValue(fn.Loc, fn.Name)
			}
		}
	}

	owners := make([]string, 0, len(ownerFiles))
	for owner := range ownerFiles {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		imports.addValue(ownerFiles[owner], owner)
	}

	var b strings.Builder
	b.WriteString(Banner)
	b.WriteString("\n")
	b.WriteString(renderImports(imports.descriptors()))

	if len(owners) > 0 {
		b.WriteString("\n")
		for _, owner := range owners {
			b.WriteString("const ")
			b.WriteString(lowerFirst(owner))
			b.WriteString(" = new ")
			b.WriteString(owner)
			b.WriteString("();\n")
		}
	}

	b.WriteString("\n")
	for _, group := range groups {
		for _, fn := range group.Functions {
			b.WriteString(hostController)
			b.WriteString(".register(\"")
			b.WriteString(ChannelKey(group.Key, fn.Name))
			b.WriteString("\", ")
			if fn.Kind == analyzer.FunctionMethod {
				instance := lowerFirst(fn.Owner)
				b.WriteString(instance)
				b.WriteString(".")
				b.WriteString(fn.Name)
				b.WriteString(".bind(")
				b.WriteString(instance)
				b.WriteString(")")
			} else {
				b.WriteString(fn.Name)
			}
			b.WriteString(");\n")
		}
	}

	return b.String()
}
