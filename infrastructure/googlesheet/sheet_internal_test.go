package googlesheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	t.Run("short_text_unchanged", func(t *testing.T) {
		assert.Equal(t, "HTTP 500: boom", truncateRunes("HTTP 500: boom", 3000))
	})

	t.Run("caps_at_character_count", func(t *testing.T) {
		long := strings.Repeat("x", 3500)
		got := truncateRunes(long, 3000)
		assert.Len(t, got, 3000)
	})

	t.Run("counts_runes_not_bytes", func(t *testing.T) {
		long := strings.Repeat("エ", 3500)
		got := truncateRunes(long, 3000)
		assert.Equal(t, 3000, len([]rune(got)))
		assert.Equal(t, strings.Repeat("エ", 3000), got)
	})
}

func TestRangeName(t *testing.T) {
	s := &Store{tab: "posts"}
	assert.Equal(t, "'posts'!A1:ZZ", s.rangeName("A1:ZZ"))

	s.tab = ""
	assert.Equal(t, "A1:ZZ", s.rangeName("A1:ZZ"))
}
