// Package api describes the export file format shared by catalog exports and imports.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iudanet/catalogkeeper/internal/models"
)

// Payload types
const (
	// TypeCatalogExport экспорт всего каталога или его части
	TypeCatalogExport = "catalog_export"
	// TypeItemExport экспорт одной записи
	TypeItemExport = "catalog_item_export"
)

// FormatVersion is the current export format version
const FormatVersion = 1

// TimeLayout is the ISO-8601 layout of ExportPayload.CreatedAt, always in UTC
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ExportPayload представляет файл экспорта
type ExportPayload struct {
	Type         string               `json:"type"`         // Type тип экспорта
	Version      int                  `json:"version"`      // Version версия формата
	CreatedAt    string               `json:"createdAt"`    // CreatedAt время экспорта в ISO-8601
	Items        []models.CatalogItem `json:"items"`        // Items экспортированные записи
	MetaChecksum string               `json:"metaChecksum"` // MetaChecksum hex SHA-256 сериализованного массива items
}

// RawPayload is the loosely typed form used when reading untrusted files.
// Missing fields stay nil so that structural checks can tell them apart from zero values.
type RawPayload struct {
	Type         *string         `json:"type"`
	Version      *int            `json:"version"`
	CreatedAt    *string         `json:"createdAt"`
	Items        json.RawMessage `json:"items"`
	MetaChecksum *string         `json:"metaChecksum"`
}

// FormatTime formats t in the payload time layout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Encode writes the payload as JSON
func Encode(w io.Writer, payload *ExportPayload, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return nil
}

// DecodeRaw parses payload text into its loosely typed form
func DecodeRaw(data []byte) (*RawPayload, error) {
	var raw RawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}
