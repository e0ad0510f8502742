// Package generator turns exposed-function records into the three bridge
// artifacts: host registration module, client bridge module, and ambient type
// declaration module. All three agree on channel keys, namespace key sets and
// member ordering; that agreement is the pipeline's consistency contract.
package generator

import (
	"unicode"
	"unicode/utf8"

	"github.com/mvp-joe/ipcgen/internal/typemodel"
)

// Banner is the fixed provenance header opening every generated artifact.
const Banner = "// Code generated by ipcgen. DO NOT EDIT.\n" +
	"// Regenerate with `ipcgen generate` after changing exposed declarations.\n"

// Names of the runtime controller exports the generated modules bind to.
const (
	hostController   = "ipcHost"
	clientController = "ipcClient"
)

// deferredWrapper is the single-value asynchronous result wrapper the client
// bridge narrowly unwraps; streamWrapper is its multi-value counterpart under
// the async-streams capability.
const (
	deferredWrapper = "Promise"
	streamWrapper   = "AsyncIterableIterator"
)

// Generator emits the three artifacts for one run.
type Generator struct {
	// RuntimeModule is the import path of the RPC controller package.
	RuntimeModule string
	// HostDir, ClientDir and TypesDir are the absolute directories the three
	// artifacts are written into; relative imports are computed against them.
	HostDir   string
	ClientDir string
	TypesDir  string
}

// ChannelKey builds the routing key for one exposed function. The host and
// client artifacts must produce byte-identical keys or calls silently fail at
// the process boundary, so this is the only place keys are formatted.
func ChannelKey(namespace, function string) string {
	return namespace + ":" + function
}

// BridgeInterfaceName derives the declaration-module interface name for a
// namespace: capitalized namespace plus the Bridge suffix.
func BridgeInterfaceName(namespace string) string {
	return upperFirst(namespace) + "Bridge"
}

// returnAnnotation renders the return type for client and declaration
// artifacts. The deferred wrapper is recognized only as a direct, one-level
// reference; aliased or nested wrappers pass through unmodified.
// The second result is the invoke type argument, empty when the return type
// is not a recognized wrapper instantiation.
func returnAnnotation(ret *typemodel.Node) (annotation, invokeArg string) {
	if ret == nil {
		return deferredWrapper + "<unknown>", "unknown"
	}
	if (ret.IsReferenceTo(deferredWrapper) || ret.IsReferenceTo(streamWrapper)) && len(ret.TypeArgs) == 1 {
		inner := ret.TypeArgs[0].String()
		return ret.Name + "<" + inner + ">", inner
	}
	return ret.String(), ""
}

// paramList renders a formal parameter list, preserving optional and rest
// markers.
func paramList(params []typemodel.Param) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		if p.Rest {
			out += "..."
		}
		out += p.Name
		if p.Optional {
			out += "?"
		}
		out += ": " + paramType(p)
	}
	return out
}

// argList renders the positional pass-through of a parameter list.
func argList(params []typemodel.Param) string {
	out := ""
	for _, p := range params {
		out += ", "
		if p.Rest {
			out += "..."
		}
		out += p.Name
	}
	return out
}

func paramType(p typemodel.Param) string {
	if p.Type == nil || p.Type.Text == "" {
		return "unknown"
	}
	return p.Type.Text
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
