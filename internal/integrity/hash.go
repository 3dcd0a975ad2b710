package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/catalogkeeper/internal/models"
)

// ErrChecksumMismatch indicates that an item's checksum does not match its content.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Digest хеширует UTF-8 байты строки с использованием SHA256
// и возвращает hex-encoded строку в нижнем регистре.
func Digest(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// ItemDigest returns the digest of the item's canonical form.
func ItemDigest(item models.CatalogItem) string {
	return Digest(Canonicalize(item))
}

// StampItem returns a copy of item with Checksum set to its content digest.
func StampItem(item models.CatalogItem) models.CatalogItem {
	item.Checksum = ItemDigest(item)
	return item
}

// VerifyItem проверяет, что checksum записи соответствует ее содержимому.
// Запись без checksum не проходит проверку.
func VerifyItem(item models.CatalogItem) bool {
	if item.Checksum == "" {
		return false
	}
	return ItemDigest(item) == item.Checksum
}

// CheckItem is VerifyItem in error form, for callers that propagate failures.
func CheckItem(item models.CatalogItem) error {
	if item.Checksum == "" {
		return fmt.Errorf("item %q has no checksum: %w", item.ID, ErrChecksumMismatch)
	}
	if got := ItemDigest(item); got != item.Checksum {
		return fmt.Errorf("item %q: declared %s, computed %s: %w", item.ID, item.Checksum, got, ErrChecksumMismatch)
	}
	return nil
}

// SerializeItems returns the stable JSON encoding of the items array
// used as input for the collection digest. Field order follows models.CatalogItem.
func SerializeItems(items []models.CatalogItem) (string, error) {
	if items == nil {
		items = []models.CatalogItem{}
	}
	data, err := marshalJSON(items)
	if err != nil {
		return "", fmt.Errorf("failed to serialize items: %w", err)
	}
	return string(data), nil
}

// DigestCollection computes the payload-level checksum over the items array.
func DigestCollection(items []models.CatalogItem) (string, error) {
	serialized, err := SerializeItems(items)
	if err != nil {
		return "", err
	}
	return Digest(serialized), nil
}

// DigestRawItems computes the collection digest over an items array as written in a payload.
// Whitespace is removed, key order and values are kept as they appear in the text.
func DigestRawItems(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("failed to compact items: %w", err)
	}
	return Digest(string(unescapeLineSeparators(buf.Bytes()))), nil
}
