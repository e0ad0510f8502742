package analyzer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Exposure Scanning:
// - Collect marker-annotated methods, free functions and lambda bindings
// - Record directive namespaces and owning classes
// - Skip private methods even when annotated
// - Skip functions whose namespace violates the lowerCamelCase convention
// - Skip functions whose annotated return is not the deferred wrapper
// - Accept missing return annotations unchecked
// - Count one warning per skipped convention violation
// - Accept stream returns only under the async-streams capability

func loadFixtureProgram(t *testing.T, names ...string) *Program {
	t.Helper()
	var files []*SourceFile
	for _, name := range names {
		path := filepath.Join("../../testdata/project/src", name)
		f, err := ParseFile(context.Background(), path)
		require.NoError(t, err)
		files = append(files, f)
	}
	p := NewProgram(files, nil)
	t.Cleanup(p.Close)
	return p
}

func scanFixture(t *testing.T, opts ScannerOptions, names ...string) (*Scanner, []ExposedFunction) {
	t.Helper()
	p := loadFixtureProgram(t, names...)
	s := NewScanner(p, NewExtractor(p), opts, nil)
	return s, s.Scan()
}

func byName(fns []ExposedFunction, name string) (ExposedFunction, bool) {
	for _, fn := range fns {
		if fn.Name == name {
			return fn, true
		}
	}
	return ExposedFunction{}, false
}

func TestScanner_Methods(t *testing.T) {
	t.Parallel()

	s, fns := scanFixture(t, ScannerOptions{}, "types.ts", "user-service.ts")
	assert.Zero(t, s.Warnings())

	getUser, ok := byName(fns, "getUser")
	require.True(t, ok)
	assert.Equal(t, FunctionMethod, getUser.Kind)
	assert.Equal(t, "UserService", getUser.Owner)
	assert.Equal(t, "userAPI", getUser.Directive.Namespace)
	require.NotNil(t, getUser.Func.Return)
	assert.True(t, getUser.Func.Return.IsReferenceTo("Promise"))
	require.Len(t, getUser.Func.Params, 1)
	assert.Equal(t, "id", getUser.Func.Params[0].Name)

	listUsers, ok := byName(fns, "listUsers")
	require.True(t, ok)
	require.Len(t, listUsers.Func.Params, 1)
	assert.True(t, listUsers.Func.Params[0].Optional)

	// No return annotation is accepted unchecked.
	countUsers, ok := byName(fns, "countUsers")
	require.True(t, ok)
	assert.Empty(t, countUsers.Directive.Namespace)
	assert.Nil(t, countUsers.Func.Return)

	// Private methods never qualify, marker or not.
	_, ok = byName(fns, "reset")
	assert.False(t, ok)

	// Unmarked methods are not exposed.
	_, ok = byName(fns, "helper")
	assert.False(t, ok)
}

func TestScanner_FreeFunctionsAndLambdas(t *testing.T) {
	t.Parallel()

	_, fns := scanFixture(t, ScannerOptions{}, "system.ts")

	getUptime, ok := byName(fns, "getUptime")
	require.True(t, ok)
	assert.Equal(t, FunctionFree, getUptime.Kind)
	assert.Empty(t, getUptime.Directive.Namespace)

	getPlatform, ok := byName(fns, "getPlatform")
	require.True(t, ok)
	assert.Equal(t, FunctionLambda, getPlatform.Kind)
	assert.Equal(t, "sys", getPlatform.Directive.Namespace)

	_, ok = byName(fns, "unmarked")
	assert.False(t, ok)
}

func TestScanner_ConventionViolations(t *testing.T) {
	t.Parallel()

	s, fns := scanFixture(t, ScannerOptions{}, "system.ts")

	// readFile: namespace FileAPI violates lowerCamelCase.
	_, ok := byName(fns, "readFile")
	assert.False(t, ok)

	// badReturn: annotated number is not the deferred wrapper.
	_, ok = byName(fns, "badReturn")
	assert.False(t, ok)

	assert.Equal(t, 2, s.Warnings())
}

func TestScanner_AsyncStreams(t *testing.T) {
	t.Parallel()

	source := `
/** @decorator expose logs */
export async function* tailLog(name: string): AsyncIterableIterator<string> {
  yield name;
}
`

	parse := func(t *testing.T) *Program {
		f, err := ParseSource(context.Background(), "logs.ts", []byte(source))
		require.NoError(t, err)
		p := NewProgram([]*SourceFile{f}, nil)
		t.Cleanup(p.Close)
		return p
	}

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		p := parse(t)
		s := NewScanner(p, NewExtractor(p), ScannerOptions{}, nil)
		fns := s.Scan()
		assert.Empty(t, fns)
		assert.Equal(t, 1, s.Warnings())
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		p := parse(t)
		s := NewScanner(p, NewExtractor(p), ScannerOptions{AsyncStreams: true}, nil)
		fns := s.Scan()
		require.Len(t, fns, 1)
		assert.Equal(t, "tailLog", fns[0].Name)
		assert.True(t, fns[0].Func.Return.IsReferenceTo("AsyncIterableIterator"))
	})
}

func TestScanner_FileOrder(t *testing.T) {
	t.Parallel()

	_, fns := scanFixture(t, ScannerOptions{}, "user-service.ts", "types.ts", "system.ts")

	// Files scan in sorted path order: system.ts before user-service.ts.
	require.NotEmpty(t, fns)
	assert.Equal(t, "getUptime", fns[0].Name)
}
