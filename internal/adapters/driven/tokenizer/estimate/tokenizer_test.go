package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tok := New()

	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 1, tok.Count("a"))
	assert.Equal(t, 1, tok.Count("abcd"))
	assert.Equal(t, 2, tok.Count("abcde"))
	assert.Equal(t, 1, tok.Count("síno"), "counts runes, not bytes")
	assert.Equal(t, "estimate", tok.Name())
}
