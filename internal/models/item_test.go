package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogItem_JSONFieldNames(t *testing.T) {
	item := CatalogItem{
		ID:        "id-1",
		Name:      "Chair",
		Location:  "Attic",
		ImageData: "data:image/png;base64,AAAA",
		Favorite:  true,
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000001,
		Checksum:  "abc",
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	// Порядок и имена полей совпадают с форматом экспорта
	expected := `{"id":"id-1","name":"Chair","location":"Attic","imageData":"data:image/png;base64,AAAA",` +
		`"favorite":true,"createdAt":1700000000000,"updatedAt":1700000000001,"checksum":"abc"}`
	assert.JSONEq(t, expected, string(data))
	assert.Equal(t, expected, string(data))
}

func TestCatalogItem_Clone(t *testing.T) {
	original := &CatalogItem{ID: "1", Name: "Lamp", Location: "Desk"}
	clone := original.Clone()

	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	// Изменение копии не затрагивает оригинал
	clone.Name = "Other"
	assert.Equal(t, "Lamp", original.Name)

	var nilItem *CatalogItem
	assert.Nil(t, nilItem.Clone())
}

func TestCatalogItem_Times(t *testing.T) {
	item := CatalogItem{CreatedAt: 1700000000123, UpdatedAt: 1700000000456}
	assert.Equal(t, int64(1700000000123), item.CreatedTime().UnixMilli())
	assert.Equal(t, int64(1700000000456), item.UpdatedTime().UnixMilli())
}

func TestItemPatch_Apply(t *testing.T) {
	name := "New name"
	fav := true

	tests := []struct {
		patch    ItemPatch
		expected CatalogItem
		name     string
		empty    bool
	}{
		{
			name:     "empty patch",
			patch:    ItemPatch{},
			expected: CatalogItem{Name: "Old", Location: "Shelf", ImageData: "img"},
			empty:    true,
		},
		{
			name:     "name only",
			patch:    ItemPatch{Name: &name},
			expected: CatalogItem{Name: "New name", Location: "Shelf", ImageData: "img"},
		},
		{
			name:     "favorite only",
			patch:    ItemPatch{Favorite: &fav},
			expected: CatalogItem{Name: "Old", Location: "Shelf", ImageData: "img", Favorite: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := CatalogItem{Name: "Old", Location: "Shelf", ImageData: "img"}
			tt.patch.Apply(&item)
			assert.Equal(t, tt.expected, item)
			assert.Equal(t, tt.empty, tt.patch.IsEmpty())
		})
	}
}

func TestCloneItems(t *testing.T) {
	assert.Nil(t, CloneItems(nil))

	items := []CatalogItem{{ID: "1"}, {ID: "2"}}
	clone := CloneItems(items)
	clone[0].ID = "changed"
	assert.Equal(t, "1", items[0].ID)
}

func TestBackupRecord_Info(t *testing.T) {
	rec := &BackupRecord{ID: "bak-1", CreatedAt: 42, Items: []CatalogItem{{ID: "1"}, {ID: "2"}}}
	info := rec.Info()
	assert.Equal(t, BackupInfo{ID: "bak-1", CreatedAt: 42, ItemCount: 2}, info)
}
