// Package id generates prefixed identifiers for catalog records that are not items.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BackupPrefix marks backup snapshot identifiers
const BackupPrefix = "bak"

// Generate returns prefix-<nanoid>, e.g. "bak-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// Backup returns a new backup snapshot identifier
func Backup() (string, error) {
	return Generate(BackupPrefix)
}
