package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/pkg/api"
)

// ExportAll exports every item in store order
func (e *Engine) ExportAll(ctx context.Context) (*api.ExportPayload, error) {
	items, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return e.export(ctx, api.TypeCatalogExport, items)
}

// ExportSubset exports the items with the given IDs, keeping store order.
// Unknown IDs are ignored.
func (e *Engine) ExportSubset(ctx context.Context, ids []string) (*api.ExportPayload, error) {
	items, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	subset := make([]models.CatalogItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			subset = append(subset, item)
			delete(wanted, item.ID)
		}
	}

	if len(wanted) > 0 {
		e.logger.Warn("Some requested items were not found", "missing", len(wanted))
	}

	return e.export(ctx, api.TypeCatalogExport, subset)
}

// ExportItem exports a single item.
// Returns nil, nil if the item doesn't exist.
func (e *Engine) ExportItem(ctx context.Context, id string) (*api.ExportPayload, error) {
	item, err := e.store.Get(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	return e.export(ctx, api.TypeItemExport, []models.CatalogItem{*item})
}

func (e *Engine) export(ctx context.Context, payloadType string, items []models.CatalogItem) (*api.ExportPayload, error) {
	prepared, err := e.verifyForExport(ctx, items)
	if err != nil {
		return nil, err
	}

	metaChecksum, err := integrity.DigestCollection(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to compute meta checksum: %w", err)
	}

	e.logger.Info("Catalog exported", "type", payloadType, "items", len(prepared))

	return &api.ExportPayload{
		Type:         payloadType,
		Version:      api.FormatVersion,
		CreatedAt:    api.FormatTime(e.now()),
		Items:        prepared,
		MetaChecksum: metaChecksum,
	}, nil
}

// verifyForExport перепроверяет каждую запись перед экспортом.
// Запись без checksum получает его и сохраняется, запись с неверным checksum
// останавливает экспорт.
func (e *Engine) verifyForExport(ctx context.Context, items []models.CatalogItem) ([]models.CatalogItem, error) {
	prepared := make([]models.CatalogItem, 0, len(items))
	var tampered []string

	for _, item := range items {
		if item.Checksum == "" {
			stamped, err := e.store.Restamp(ctx, item)
			if err != nil {
				return nil, err
			}
			prepared = append(prepared, *stamped)
			continue
		}

		if !integrity.VerifyItem(item) {
			tampered = append(tampered, item.ID)
			continue
		}
		prepared = append(prepared, item)
	}

	if len(tampered) > 0 {
		e.logger.Error("Export refused, stored items failed verification", "ids", tampered)
		return nil, fmt.Errorf("%w: %d stored item(s) failed verification: %s",
			ErrItemTamper, len(tampered), strings.Join(tampered, ", "))
	}

	return prepared, nil
}
