package transfer

import (
	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
)

// IsDuplicate reports whether candidate is the same logical item as existing:
// normalized name and location match and both carry the same non-empty checksum.
// Same name and location with different image data is a distinct version, not a duplicate.
func IsDuplicate(existing, candidate models.CatalogItem) bool {
	if existing.Checksum == "" || existing.Checksum != candidate.Checksum {
		return false
	}
	return integrity.NormalizeText(existing.Name) == integrity.NormalizeText(candidate.Name) &&
		integrity.NormalizeText(existing.Location) == integrity.NormalizeText(candidate.Location)
}

// findDuplicate returns the index of the first duplicate of candidate in items, or -1
func findDuplicate(items []models.CatalogItem, candidate models.CatalogItem) int {
	for i := range items {
		if IsDuplicate(items[i], candidate) {
			return i
		}
	}
	return -1
}
