// Package catalog is the only writer of catalog items: it assigns identity,
// stamps checksums and keeps the persisted collection verifiable.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
	"github.com/iudanet/catalogkeeper/internal/validation"
)

// ErrItemTampered is returned by Put for items whose checksum does not match their content.
var ErrItemTampered = fmt.Errorf("item failed verification: %w", integrity.ErrChecksumMismatch)

// Store handles catalog CRUD over an ItemStorage
type Store struct {
	items  storage.ItemStorage
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides item ID generation
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a new catalog store
func New(items storage.ItemStorage, opts ...Option) *Store {
	s := &Store{
		items:  items,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh item identifier
func (s *Store) NewID() string {
	return s.newID()
}

// Now returns the current time in unix milliseconds
func (s *Store) Now() int64 {
	return s.now().UnixMilli()
}

// Add creates a new item with a fresh ID and a stamped checksum
func (s *Store) Add(ctx context.Context, name, location, imageData string) (*models.CatalogItem, error) {
	if err := validation.ValidateNewItem(name, location); err != nil {
		return nil, err
	}

	now := s.Now()
	item := integrity.StampItem(models.CatalogItem{
		ID:        s.newID(),
		Name:      strings.TrimSpace(name),
		Location:  strings.TrimSpace(location),
		ImageData: imageData,
		Favorite:  false,
		CreatedAt: now,
		UpdatedAt: now,
	})

	if err := s.items.CreateItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Debug("Item added", "id", item.ID, "checksum", item.Checksum)
	return &item, nil
}

// Update merges patch over the stored item, bumps UpdatedAt and re-stamps the checksum.
// Returns nil, nil if the item doesn't exist.
func (s *Store) Update(ctx context.Context, id string, patch models.ItemPatch) (*models.CatalogItem, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	patch.Apply(current)
	current.UpdatedAt = s.Now()
	// checksum пересчитывается всегда, даже если изменился только favorite
	updated := integrity.StampItem(*current)

	if err := s.items.PutItem(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Debug("Item updated", "id", id)
	return &updated, nil
}

// ToggleFavorite flips the favorite flag.
// Returns nil, nil if the item doesn't exist.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (*models.CatalogItem, error) {
	current, err := s.Get(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	favorite := !current.Favorite
	return s.Update(ctx, id, models.ItemPatch{Favorite: &favorite})
}

// Get returns the item or nil, nil if it doesn't exist
func (s *Store) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, err := s.items.GetItem(ctx, id)
	if errors.Is(err, storage.ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// GetAll returns all items in storage order
func (s *Store) GetAll(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListOptions filters List results
type ListOptions struct {
	Query         string // Query подстрока для поиска по name и location без учета регистра
	FavoritesOnly bool   // FavoritesOnly только избранные
}

// List returns matching items sorted by CreatedAt, newest first
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.CatalogItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	result := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if opts.FavoritesOnly && !item.Favorite {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Name), query) &&
			!strings.Contains(strings.ToLower(item.Location), query) {
			continue
		}
		result = append(result, item)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})

	return result, nil
}

// Delete removes the item and returns it, or nil, nil if it doesn't exist
func (s *Store) Delete(ctx context.Context, id string) (*models.CatalogItem, error) {
	existing, err := s.Get(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if err := s.items.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Debug("Item deleted", "id", id)
	return existing, nil
}

// Clear removes all items
func (s *Store) Clear(ctx context.Context) error {
	if err := s.items.ClearItems(ctx); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	s.logger.Debug("Catalog cleared")
	return nil
}

// Put stores an already stamped item verbatim.
// Used by import and restore; items that do not verify are rejected with ErrItemTampered.
func (s *Store) Put(ctx context.Context, item models.CatalogItem) error {
	if !integrity.VerifyItem(item) {
		return fmt.Errorf("item %s: %w", item.ID, ErrItemTampered)
	}
	if item.ID == "" {
		return fmt.Errorf("item has no id")
	}

	if err := s.items.PutItem(ctx, &item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Restamp recomputes and persists the checksum of a stored item.
// Used for legacy records that were saved without a checksum.
func (s *Store) Restamp(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error) {
	stamped := integrity.StampItem(item)
	if err := s.items.PutItem(ctx, &stamped); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	s.logger.Info("Item checksum restamped", "id", item.ID)
	return &stamped, nil
}

// Verify returns stored items whose checksum does not match their content
func (s *Store) Verify(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var broken []models.CatalogItem
	for _, item := range items {
		if !integrity.VerifyItem(item) {
			broken = append(broken, item)
		}
	}

	if len(broken) > 0 {
		s.logger.Warn("Catalog contains unverifiable items", "count", len(broken))
	}
	return broken, nil
}
