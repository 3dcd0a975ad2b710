package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

// CreateItem stores a new item, failing if the ID is taken
func (s *Storage) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	return s.putItem(item, false)
}

// PutItem stores or replaces an item
func (s *Storage) PutItem(ctx context.Context, item *models.CatalogItem) error {
	return s.putItem(item, true)
}

func (s *Storage) putItem(item *models.CatalogItem, overwrite bool) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if item.ID == "" {
		return fmt.Errorf("item id is empty")
	}

	// Сериализуем запись в JSON
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketItems)
		if err != nil {
			return err
		}

		key := []byte(item.ID)
		if !overwrite && b.Get(key) != nil {
			return fmt.Errorf("item %s: %w", item.ID, storage.ErrDuplicateKey)
		}

		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}
		return nil
	})
}

// GetItem retrieves an item by ID
func (s *Storage) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var item *models.CatalogItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketItems)
		if err != nil {
			return err
		}

		data := b.Get([]byte(id))
		if data == nil {
			return storage.ErrItemNotFound
		}

		// Десериализуем
		item = &models.CatalogItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListItems returns all items ordered by key
func (s *Storage) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	items := make([]models.CatalogItem, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketItems)
		if err != nil {
			return err
		}

		// Итерируемся по всем записям
		return b.ForEach(func(k, v []byte) error {
			var item models.CatalogItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal item %s: %w", k, err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// DeleteItem removes an item by ID
func (s *Storage) DeleteItem(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketItems)
		if err != nil {
			return err
		}

		key := []byte(id)
		if b.Get(key) == nil {
			return storage.ErrItemNotFound
		}
		if err := b.Delete(key); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}

// ClearItems removes all items
func (s *Storage) ClearItems(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		// Удаляем bucket целиком и создаем заново
		if err := tx.DeleteBucket(bucketItems); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete items bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketItems); err != nil {
			return fmt.Errorf("failed to recreate items bucket: %w", err)
		}
		return nil
	})
}
