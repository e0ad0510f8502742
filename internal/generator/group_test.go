package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
)

// Test Plan for Namespace Grouping:
// - Explicit directive namespace wins over everything
// - Methods without a namespace fall back to the camel-cased owning class
// - Free functions without a namespace take the default
// - Groups sort lexically, members sort by name within each group

func fn(kind analyzer.FunctionKind, name, owner, namespace string) analyzer.ExposedFunction {
	return analyzer.ExposedFunction{
		Kind:      kind,
		Name:      name,
		Owner:     owner,
		Directive: analyzer.Directive{Name: "expose", Namespace: namespace},
	}
}

func TestNamespaceFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "userAPI",
		NamespaceFor(fn(analyzer.FunctionMethod, "getUser", "UserService", "userAPI"), "mainProcess"))

	assert.Equal(t, "userService",
		NamespaceFor(fn(analyzer.FunctionMethod, "countUsers", "UserService", ""), "mainProcess"))

	assert.Equal(t, "mainProcess",
		NamespaceFor(fn(analyzer.FunctionFree, "getUptime", "", ""), "mainProcess"))

	assert.Equal(t, "sys",
		NamespaceFor(fn(analyzer.FunctionLambda, "getPlatform", "", "sys"), "mainProcess"))
}

func TestGroup_Ordering(t *testing.T) {
	t.Parallel()

	input := []analyzer.ExposedFunction{
		fn(analyzer.FunctionMethod, "update", "UserService", "userAPI"),
		fn(analyzer.FunctionFree, "getUptime", "", ""),
		fn(analyzer.FunctionMethod, "create", "UserService", "userAPI"),
		fn(analyzer.FunctionLambda, "getPlatform", "", "sys"),
	}

	groups := Group(input, "mainProcess")
	require.Len(t, groups, 3)

	assert.Equal(t, "mainProcess", groups[0].Key)
	assert.Equal(t, "sys", groups[1].Key)
	assert.Equal(t, "userAPI", groups[2].Key)

	require.Len(t, groups[2].Functions, 2)
	assert.Equal(t, "create", groups[2].Functions[0].Name)
	assert.Equal(t, "update", groups[2].Functions[1].Name)
}

func TestGroup_Deterministic(t *testing.T) {
	t.Parallel()

	input := []analyzer.ExposedFunction{
		fn(analyzer.FunctionFree, "b", "", "ns"),
		fn(analyzer.FunctionFree, "a", "", "ns"),
		fn(analyzer.FunctionFree, "c", "", "other"),
	}

	first := Group(input, "mainProcess")
	second := Group(input, "mainProcess")
	assert.Equal(t, first, second)
}

func TestBridgeInterfaceName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "UserAPIBridge", BridgeInterfaceName("userAPI"))
	assert.Equal(t, "SysBridge", BridgeInterfaceName("sys"))
}

func TestChannelKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "userAPI:getUser", ChannelKey("userAPI", "getUser"))
}
