package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

const itemColumns = "id, name, location, image_data, favorite, created_at, updated_at, checksum"

// CreateItem stores a new item, failing if the ID is taken
func (s *Storage) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if item.ID == "" {
		return fmt.Errorf("item id is empty")
	}

	query := `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", item.ID, storage.ErrDuplicateKey)
	}

	return nil
}

// PutItem stores or replaces an item
func (s *Storage) PutItem(ctx context.Context, item *models.CatalogItem) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if item.ID == "" {
		return fmt.Errorf("item id is empty")
	}

	query := `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			image_data = excluded.image_data,
			favorite = excluded.favorite,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			checksum = excluded.checksum`

	if _, err := s.db.ExecContext(ctx, query, itemArgs(item)...); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by ID
func (s *Storage) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListItems returns all items ordered by ID
func (s *Storage) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	query := `SELECT ` + itemColumns + ` FROM items ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.CatalogItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// DeleteItem removes an item by ID
func (s *Storage) DeleteItem(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrItemNotFound
	}

	return nil
}

// ClearItems removes all items
func (s *Storage) ClearItems(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.CatalogItem, error) {
	var (
		item     models.CatalogItem
		favorite int
	)

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Location,
		&item.ImageData,
		&favorite,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Checksum,
	)
	if err != nil {
		return nil, err
	}

	item.Favorite = favorite != 0
	return &item, nil
}

func itemArgs(item *models.CatalogItem) []any {
	favorite := 0
	if item.Favorite {
		favorite = 1
	}
	return []any{
		item.ID,
		item.Name,
		item.Location,
		item.ImageData,
		favorite,
		item.CreatedAt,
		item.UpdatedAt,
		item.Checksum,
	}
}
