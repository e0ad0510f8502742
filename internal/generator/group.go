package generator

import (
	"sort"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
)

// NamespaceGroup is the set of exposed functions sharing one namespace key,
// sorted by function name.
type NamespaceGroup struct {
	Key       string
	Functions []analyzer.ExposedFunction
}

// NamespaceFor resolves a function's namespace: explicit marker argument,
// then the camel-cased owning type for methods, then the default.
func NamespaceFor(fn analyzer.ExposedFunction, defaultNamespace string) string {
	if fn.Directive.Namespace != "" {
		return fn.Directive.Namespace
	}
	if fn.Kind == analyzer.FunctionMethod && fn.Owner != "" {
		return lowerFirst(fn.Owner)
	}
	return defaultNamespace
}

// Group buckets functions by namespace. Group order and member order are both
// lexical; this determinism is what guarantees the three artifacts reference
// identical keys in identical order.
func Group(functions []analyzer.ExposedFunction, defaultNamespace string) []NamespaceGroup {
	buckets := map[string][]analyzer.ExposedFunction{}
	for _, fn := range functions {
		key := NamespaceFor(fn, defaultNamespace)
		buckets[key] = append(buckets[key], fn)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]NamespaceGroup, 0, len(keys))
	for _, key := range keys {
		fns := buckets[key]
		sort.SliceStable(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
		groups = append(groups, NamespaceGroup{Key: key, Functions: fns})
	}
	return groups
}
