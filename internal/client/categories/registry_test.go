package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

func TestCanonical_Limits(t *testing.T) {
	want := map[string]struct {
		required bool
		max      int
	}{
		"cim":           {true, 1},
		"financials":    {true, 10},
		"legal":         {true, 20},
		"due_diligence": {true, 15},
		"nda":           {false, 5},
		"buyer_notes":   {false, 10},
		"other":         {false, 20},
	}

	r := NewRegistry(nil)
	cats := r.Categories()
	require.Len(t, cats, len(want))
	assert.Equal(t, "cim", cats[0].Key)
	for _, c := range cats {
		w, ok := want[c.Key]
		require.True(t, ok, c.Key)
		assert.Equal(t, w.required, c.Required, c.Key)
		assert.Equal(t, w.max, c.MaxFiles, c.Key)
	}
}

func TestRegistry_CategoriesIsCopy(t *testing.T) {
	r := NewRegistry(nil)
	cats := r.Categories()
	cats[0].MaxFiles = 99

	c, ok := r.Get("cim")
	require.True(t, ok)
	assert.Equal(t, 1, c.MaxFiles)
}

func TestRegistry_GetAndLabel(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "Due Diligence", r.Label("due_diligence"))
	assert.Equal(t, "missing", r.Label("missing"))
}

func TestDocumentsFor(t *testing.T) {
	docs := []models.Document{
		{ID: "1", Category: "legal"},
		{ID: "2", Category: "cim"},
		{ID: "3", Category: "legal"},
	}
	got := DocumentsFor(docs, "legal")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Empty(t, DocumentsFor(docs, "nda"))
}

func TestAccepts(t *testing.T) {
	r := NewRegistry(nil)
	cim, _ := r.Get("cim")
	fin, _ := r.Get("financials")
	other, _ := r.Get("other")
	notes, _ := r.Get("buyer_notes")

	tests := []struct {
		name string
		cat  models.Category
		file string
		mime string
		want bool
	}{
		{"pdf by mime", cim, "memo.bin", "application/pdf", true},
		{"docx by extension", cim, "memo.DOCX", "", true},
		{"excel rejected for cim", cim, "model.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
		{"csv with params", fin, "q1.csv", "text/csv; charset=utf-8", true},
		{"octet stream falls back to extension", fin, "q1.xls", "application/octet-stream", true},
		{"image in buyer notes", notes, "photo.jpg", "image/jpeg", true},
		{"anything in other", other, "archive.zip", "application/zip", true},
		{"no extension no mime", fin, "README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accepts(tt.cat, tt.file, tt.mime))
		})
	}
}
