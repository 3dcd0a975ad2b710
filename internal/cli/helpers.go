package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/iocli"
	"github.com/iudanet/catalogkeeper/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format(timeLayout)
}

// shortChecksum returns the first 12 hex digits of a checksum
func shortChecksum(checksum string) string {
	if len(checksum) <= 12 {
		return checksum
	}
	return checksum[:12]
}

func checksumStatus(item models.CatalogItem) string {
	switch {
	case item.Checksum == "":
		return "missing"
	case integrity.VerifyItem(item):
		return "verified"
	default:
		return "MISMATCH"
	}
}

// imageDataURL reads an image file into a data URL, detecting its MIME type from content
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	mime := mimetype.Detect(data)
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// resolveImage returns the image value from --image (file) or --image-data (verbatim)
func resolveImage(file, raw string) (string, error) {
	if file != "" && raw != "" {
		return "", NewExitError(ExitCommandError, "use either --image or --image-data, not both")
	}
	if file != "" {
		return imageDataURL(file)
	}
	return raw, nil
}

func printItem(io iocli.IO, item models.CatalogItem) {
	io.Printf("ID:        %s\n", item.ID)
	io.Printf("Name:      %s\n", item.Name)
	io.Printf("Location:  %s\n", item.Location)
	if item.ImageData != "" {
		io.Printf("Image:     %d bytes\n", len(item.ImageData))
	}
	io.Printf("Favorite:  %t\n", item.Favorite)
	io.Printf("Created:   %s\n", formatTime(item.CreatedAt))
	io.Printf("Updated:   %s\n", formatTime(item.UpdatedAt))
	io.Printf("Checksum:  %s (%s)\n", item.Checksum, checksumStatus(item))
}

func printItemLine(io iocli.IO, n int, item models.CatalogItem) {
	star := " "
	if item.Favorite {
		star = "*"
	}
	io.Printf("%d. %s %s @ %s\n", n, star, item.Name, item.Location)
	io.Printf("   ID: %s  checksum: %s\n", item.ID, shortChecksum(item.Checksum))
}
