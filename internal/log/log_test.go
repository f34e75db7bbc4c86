package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestPairsDropsMalformedKeys(t *testing.T) {
	got := pairs([]any{"a", 1, 2, "x", "b", true, "dangling"})
	assert.Equal(t, []any{"a", 1, "b", true}, got)
}
