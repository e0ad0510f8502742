package typemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for the Type Model:
// - String prefers the printable text and degrades to the kind
// - IsReferenceTo matches direct references only, never aliases or nil

func TestNode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "User", (&Node{Kind: KindInterface, Name: "User", Text: "User"}).String())
	assert.Equal(t, "unknown", (&Node{Kind: KindUnknown}).String())
	assert.Equal(t, "", (*Node)(nil).String())
}

func TestNode_IsReferenceTo(t *testing.T) {
	t.Parallel()

	ref := &Node{Kind: KindTypeReference, Name: "Promise", Text: "Promise<T>"}
	assert.True(t, ref.IsReferenceTo("Promise"))
	assert.False(t, ref.IsReferenceTo("AsyncIterableIterator"))

	// An alias of the wrapper is deliberately not a reference to it.
	alias := &Node{Kind: KindTypeAlias, Name: "Promise"}
	assert.False(t, alias.IsReferenceTo("Promise"))

	assert.False(t, (*Node)(nil).IsReferenceTo("Promise"))
}
