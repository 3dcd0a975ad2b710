package models

import "time"

// CatalogItem представляет одну запись каталога.
// Поля name, location и imageData участвуют в вычислении checksum,
// favorite и временные метки нет.
type CatalogItem struct {
	ID        string `json:"id"`        // ID уникальный идентификатор записи (UUID), неизменяемый
	Name      string `json:"name"`      // Name название предмета
	Location  string `json:"location"`  // Location где предмет хранится
	ImageData string `json:"imageData"` // ImageData изображение в виде текста (обычно data URL)
	Favorite  bool   `json:"favorite"`  // Favorite флаг избранного, не влияет на checksum
	CreatedAt int64  `json:"createdAt"` // CreatedAt время создания, unix миллисекунды
	UpdatedAt int64  `json:"updatedAt"` // UpdatedAt время последнего изменения, unix миллисекунды
	Checksum  string `json:"checksum"`  // Checksum hex SHA-256 канонической формы записи
}

// Clone returns an independent copy of the item.
func (i *CatalogItem) Clone() *CatalogItem {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// CreatedTime returns CreatedAt as time.Time.
func (i *CatalogItem) CreatedTime() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// UpdatedTime returns UpdatedAt as time.Time.
func (i *CatalogItem) UpdatedTime() time.Time {
	return time.UnixMilli(i.UpdatedAt)
}

// ItemPatch описывает частичное обновление записи.
// Применяются только поля, отличные от nil.
type ItemPatch struct {
	Name      *string
	Location  *string
	ImageData *string
	Favorite  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Location == nil && p.ImageData == nil && p.Favorite == nil
}

// Apply merges the patch over item in place.
func (p ItemPatch) Apply(item *CatalogItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.ImageData != nil {
		item.ImageData = *p.ImageData
	}
	if p.Favorite != nil {
		item.Favorite = *p.Favorite
	}
}

// CloneItems returns a deep copy of items.
func CloneItems(items []CatalogItem) []CatalogItem {
	if items == nil {
		return nil
	}
	out := make([]CatalogItem, len(items))
	copy(out, items)
	return out
}
