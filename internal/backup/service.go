// Package backup keeps point-in-time copies of the catalog in a separate
// collection and rotates them by count.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/id"
	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

// DefaultMaxCount is the number of backups kept when nothing else is configured
const DefaultMaxCount = 5

var (
	// ErrNegativeMaxCount is returned by PruneBackups for a negative limit
	ErrNegativeMaxCount = errors.New("backup max count must not be negative")
	// ErrNothingToRestore is returned by Restore when no item of a non-empty backup verifies
	ErrNothingToRestore = errors.New("backup has no verifiable items")
)

// Storage is the part of the database the service writes to
type Storage interface {
	storage.BackupStorage
	storage.MetadataStorage
}

// Service creates, lists, prunes and restores backups
type Service struct {
	db     Storage
	store  *catalog.Store
	now    func() time.Time
	newID  func() (string, error)
	logger *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides backup ID generation
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a backup service.
// store is used by Snapshot and Restore to read and rewrite the live catalog.
func NewService(db Storage, store *catalog.Store, opts ...Option) *Service {
	s := &Service{
		db:     db,
		store:  store,
		now:    time.Now,
		newID:  id.Backup,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBackup stores a deep copy of items as a new backup.
// The live catalog is never touched.
func (s *Service) CreateBackup(ctx context.Context, items []models.CatalogItem) (*models.BackupRecord, error) {
	backupID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup id: %w", err)
	}

	record := &models.BackupRecord{
		ID:        backupID,
		CreatedAt: s.now().UnixMilli(),
		Items:     models.CloneItems(items),
	}

	if err := s.db.SaveBackup(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save backup: %w", err)
	}
	if err := s.db.SaveLastBackupAt(ctx, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to save last backup time: %w", err)
	}

	s.logger.Info("Backup created", "id", record.ID, "items", len(record.Items))
	return record, nil
}

// PruneBackups deletes the oldest backups so that at most maxCount remain.
// Returns the number of deleted backups.
func (s *Service) PruneBackups(ctx context.Context, maxCount int) (int, error) {
	if maxCount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeMaxCount, maxCount)
	}

	backups, err := s.db.ListBackups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= maxCount {
		return 0, nil
	}

	sortOldestFirst(backups)

	deleted := 0
	for _, b := range backups[:len(backups)-maxCount] {
		if err := s.db.DeleteBackup(ctx, b.ID); err != nil && !errors.Is(err, storage.ErrBackupNotFound) {
			return deleted, fmt.Errorf("failed to delete backup %s: %w", b.ID, err)
		}
		deleted++
	}

	s.logger.Info("Old backups pruned", "deleted", deleted, "kept", maxCount)
	return deleted, nil
}

// List returns backup summaries, newest first
func (s *Service) List(ctx context.Context) ([]models.BackupInfo, error) {
	backups, err := s.db.ListBackups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	sortOldestFirst(backups)

	infos := make([]models.BackupInfo, len(backups))
	for i := range backups {
		infos[len(backups)-1-i] = backups[i].Info()
	}
	return infos, nil
}

// Get returns a backup or nil, nil if it doesn't exist
func (s *Service) Get(ctx context.Context, backupID string) (*models.BackupRecord, error) {
	record, err := s.db.GetBackup(ctx, backupID)
	if errors.Is(err, storage.ErrBackupNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	return record, nil
}

// LastBackupAt returns the time of the latest backup, zero if there was none
func (s *Service) LastBackupAt(ctx context.Context) (time.Time, error) {
	ms, err := s.db.GetLastBackupAt(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last backup time: %w", err)
	}
	if ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// Snapshot backs up the live catalog and prunes down to maxCount
func (s *Service) Snapshot(ctx context.Context, maxCount int) (*models.BackupRecord, error) {
	items, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.CreateBackup(ctx, items)
	if err != nil {
		return nil, err
	}

	// Ошибка очистки не отменяет созданный бэкап
	if _, err := s.PruneBackups(ctx, maxCount); err != nil {
		s.logger.Warn("Backup pruning failed", "error", err)
	}

	return record, nil
}

// RestoreResult reports what Restore wrote back
type RestoreResult struct {
	BackupID string
	Restored int
	Rejected []string // Rejected id записей, не прошедших проверку checksum
}

// Restore replaces the live catalog with the items of a backup.
// Items that fail verification are reported and not written.
func (s *Service) Restore(ctx context.Context, backupID string) (*RestoreResult, error) {
	record, err := s.db.GetBackup(ctx, backupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backup %s: %w", backupID, err)
	}

	// Проверяем записи до очистки каталога
	result := &RestoreResult{BackupID: record.ID}
	verified := make([]models.CatalogItem, 0, len(record.Items))
	for _, item := range record.Items {
		if !integrity.VerifyItem(item) {
			result.Rejected = append(result.Rejected, item.ID)
			continue
		}
		verified = append(verified, item)
	}

	if len(record.Items) > 0 && len(verified) == 0 {
		s.logger.Error("Backup restore refused, no item verifies", "id", record.ID, "rejected", len(result.Rejected))
		return result, fmt.Errorf("backup %s: %w", record.ID, ErrNothingToRestore)
	}

	if err := s.store.Clear(ctx); err != nil {
		return nil, err
	}

	for _, item := range verified {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.store.Put(ctx, item); err != nil {
			return result, err
		}
		result.Restored++
	}

	if len(result.Rejected) > 0 {
		s.logger.Warn("Backup contains unverifiable items", "id", record.ID, "rejected", len(result.Rejected))
	}
	s.logger.Info("Backup restored", "id", record.ID, "items", result.Restored)

	return result, nil
}

func sortOldestFirst(backups []models.BackupRecord) {
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].CreatedAt != backups[j].CreatedAt {
			return backups[i].CreatedAt < backups[j].CreatedAt
		}
		return backups[i].ID < backups[j].ID
	})
}
