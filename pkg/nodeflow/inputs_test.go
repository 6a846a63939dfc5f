package nodeflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputs(t *testing.T) {
	in := Inputs{
		{SourceID: "a", SourceHandle: DefaultHandle, TargetHandle: "prompt", Value: "one"},
		{SourceID: "b", SourceHandle: DefaultHandle, TargetHandle: "image", Value: "two"},
		{SourceID: "a", SourceHandle: "other", TargetHandle: "prompt", Value: "three"},
	}

	first, ok := in.First()
	assert.True(t, ok)
	assert.Equal(t, "one", first)

	assert.Equal(t, []any{"one", "two", "three"}, in.Values())
	assert.Equal(t, map[string]any{"a": "one", "b": "two"}, in.BySource())

	v, ok := in.ByHandle("image")
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = in.ByHandle("missing")
	assert.False(t, ok)
}

func TestInputs_Empty(t *testing.T) {
	var in Inputs
	_, ok := in.First()
	assert.False(t, ok)
	assert.Empty(t, in.Values())
	assert.Empty(t, in.BySource())
}
