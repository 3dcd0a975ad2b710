package models

// BackupRecord является неизменяемым снимком каталога на момент создания.
type BackupRecord struct {
	ID        string        `json:"id"`        // ID идентификатор бэкапа (nanoid с префиксом)
	CreatedAt int64         `json:"createdAt"` // CreatedAt время создания, unix миллисекунды
	Items     []CatalogItem `json:"items"`     // Items копия записей каталога
}

// BackupInfo is a lightweight view of a backup for listings.
type BackupInfo struct {
	ID        string
	CreatedAt int64
	ItemCount int
}

// Info returns the listing view of the record.
func (b *BackupRecord) Info() BackupInfo {
	return BackupInfo{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		ItemCount: len(b.Items),
	}
}
