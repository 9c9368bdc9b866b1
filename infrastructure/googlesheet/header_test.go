package googlesheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatoa/threads-auto-post-gs/domain/model"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/googlesheet"
)

func TestSpreadsheetID(t *testing.T) {
	t.Run("full_url", func(t *testing.T) {
		id, err := googlesheet.SpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-def_123/edit#gid=0")
		require.NoError(t, err)
		assert.Equal(t, "1AbC-def_123", id)
	})

	t.Run("bare_id", func(t *testing.T) {
		id, err := googlesheet.SpreadsheetID("1AbC-def_123")
		require.NoError(t, err)
		assert.Equal(t, "1AbC-def_123", id)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "https://example.com/not/a/sheet"} {
			_, err := googlesheet.SpreadsheetID(s)
			assert.Error(t, err, s)
		}
	})
}

func TestMergeHeader(t *testing.T) {
	t.Run("appends_missing_preserving_order_and_extras", func(t *testing.T) {
		existing := []string{"text", "custom_note", "status"}
		merged, changed := googlesheet.MergeHeader(existing, model.RequiredColumns)
		assert.True(t, changed)
		// original prefix untouched
		assert.Equal(t, existing, merged[:3])
		for _, col := range model.RequiredColumns {
			assert.Contains(t, merged, col)
		}
		assert.Contains(t, merged, "custom_note")
	})

	t.Run("no_change_when_complete", func(t *testing.T) {
		merged, changed := googlesheet.MergeHeader(model.RequiredColumns, model.RequiredColumns)
		assert.False(t, changed)
		assert.Equal(t, model.RequiredColumns, merged)
	})

	t.Run("empty_header_gets_all_required", func(t *testing.T) {
		merged, changed := googlesheet.MergeHeader(nil, model.RequiredColumns)
		assert.True(t, changed)
		assert.Equal(t, model.RequiredColumns, merged)
	})
}

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA", 702: "ZZ"}
	for n, want := range cases {
		assert.Equal(t, want, googlesheet.ColumnLetter(n), "column %d", n)
	}
}

func TestRowFields(t *testing.T) {
	header := []string{"text", "image_url", "status"}
	fields := googlesheet.RowFields(header, []interface{}{"hello", ""})
	assert.Equal(t, "hello", fields["text"])
	assert.Equal(t, "", fields["image_url"])
	// missing trailing cell defaults to empty
	assert.Equal(t, "", fields["status"])
}
