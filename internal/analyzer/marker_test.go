package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Marker Parsing:
// - Recognize bare expose markers in line and block comments
// - Capture an explicit namespace argument
// - Ignore unrecognized directive names under the same tag
// - Reject markers with trailing arguments
// - Reject the tag without a directive name
// - Handle comments with no marker at all

func TestParseMarker_BareExpose(t *testing.T) {
	t.Parallel()

	d, found, err := ParseMarker("// @decorator expose")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "expose", d.Name)
	assert.Empty(t, d.Namespace)
}

func TestParseMarker_WithNamespace(t *testing.T) {
	t.Parallel()

	d, found, err := ParseMarker("/** @decorator expose userAPI */")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "userAPI", d.Namespace)
	assert.Equal(t, []string{"userAPI"}, d.RawArgs)
}

func TestParseMarker_BlockCommentWithDocText(t *testing.T) {
	t.Parallel()

	comment := "/**\n * Returns the current user.\n * @decorator expose userAPI\n */"
	d, found, err := ParseMarker(comment)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "userAPI", d.Namespace)
}

func TestParseMarker_OtherDirectiveIgnored(t *testing.T) {
	t.Parallel()

	// Unrecognized directive names under the tag are not ours to police.
	_, found, err := ParseMarker("// @decorator deprecated")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestParseMarker_MissingDirectiveName(t *testing.T) {
	t.Parallel()

	_, found, err := ParseMarker("// @decorator")
	require.Error(t, err)
	assert.False(t, found)
}

func TestParseMarker_TooManyArguments(t *testing.T) {
	t.Parallel()

	_, found, err := ParseMarker("// @decorator expose userAPI extra")
	require.Error(t, err)
	assert.False(t, found)
}

func TestParseMarker_NoMarker(t *testing.T) {
	t.Parallel()

	_, found, err := ParseMarker("// plain doc comment mentioning expose elsewhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCleanCommentLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "@decorator expose", cleanCommentLine(" * @decorator expose"))
	assert.Equal(t, "@decorator expose", cleanCommentLine("// @decorator expose"))
	assert.Equal(t, "@decorator expose", cleanCommentLine("/** @decorator expose */"))
}
