package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/models"
)

// Options configures an import run
type Options struct {
	Strategy    Strategy
	SelectedIDs []string // SelectedIDs ограничивает импорт этими id; обязателен для StrategySelected
	DryRun      bool     // DryRun считает результат без записи в каталог
}

// Outcome contains the counters of one import run
type Outcome struct {
	Errors       Problems      `json:"errors"`
	InvalidItems []InvalidItem `json:"invalidItems"`
	Imported     int           `json:"imported"`
	Skipped      int           `json:"skipped"`
	Replaced     int           `json:"replaced"`
	DryRun       bool          `json:"dryRun"`
}

// Conflict pairs an incoming item with the stored item it duplicates
type Conflict struct {
	Incoming models.CatalogItem
	Existing models.CatalogItem
}

// Import validates payload text and applies it with the given options
func (e *Engine) Import(ctx context.Context, data []byte, opts Options) (*Outcome, error) {
	return e.Apply(ctx, e.Validate(data), opts)
}

// Apply imports the items of an already validated payload.
// Structural problems abort before the catalog is touched; item problems are carried into the outcome.
func (e *Engine) Apply(ctx context.Context, vr *ValidationResult, opts Options) (*Outcome, error) {
	if !opts.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Strategy)
	}
	if opts.Strategy == StrategySelected && opts.SelectedIDs == nil {
		return nil, fmt.Errorf("strategy %q requires selected item ids", opts.Strategy)
	}

	out := &Outcome{
		Errors:       append(Problems(nil), vr.Errors...),
		InvalidItems: vr.InvalidItems,
		DryRun:       opts.DryRun,
	}

	if vr.Structural() {
		return out, fmt.Errorf("import aborted: %w", vr.Errors.OfKind(KindStructural).Err())
	}

	// Нет ни одной проверенной записи: каталог не трогаем, даже при replaceAll
	if len(vr.Items) == 0 {
		e.logger.Warn("Import skipped, payload has no verified items",
			"strategy", opts.Strategy,
			"invalid", len(out.InvalidItems),
		)
		return out, nil
	}

	var selected map[string]struct{}
	if opts.SelectedIDs != nil {
		selected = make(map[string]struct{}, len(opts.SelectedIDs))
		for _, id := range opts.SelectedIDs {
			selected[id] = struct{}{}
		}
	}

	// known содержит записи каталога и уже вставленные в этом прогоне
	known, err := e.store.GetAll(ctx)
	if err != nil {
		return out, err
	}

	if opts.Strategy == StrategyReplaceAll {
		if !opts.DryRun {
			if err := e.store.Clear(ctx); err != nil {
				return out, err
			}
		}
		known = nil
	}

	ids := make(map[string]struct{}, len(known)+len(vr.Items))
	for _, item := range known {
		ids[item.ID] = struct{}{}
	}

	for _, item := range vr.Items {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if selected != nil {
			if _, ok := selected[item.ID]; !ok {
				out.Skipped++
				continue
			}
		}

		dup := -1
		if opts.Strategy != StrategyReplaceAll {
			dup = findDuplicate(known, item)
		}

		if dup < 0 {
			// Не дубликат, но id занят другой записью: выдаем новый id
			if _, taken := ids[item.ID]; taken {
				oldID := item.ID
				item.ID = e.store.NewID()
				e.logger.Info("Imported item re-keyed, id already in use", "old_id", oldID, "new_id", item.ID)
			}

			stored, err := e.put(ctx, out, item, opts.DryRun)
			if err != nil {
				return out, err
			}
			if !stored {
				continue
			}
			out.Imported++
			known = append(known, item)
			ids[item.ID] = struct{}{}
			continue
		}

		switch opts.Strategy {
		case StrategyKeepImported:
			// Запись сохраняет id существующей, содержимое берется из импорта
			item.ID = known[dup].ID
			stored, err := e.put(ctx, out, item, opts.DryRun)
			if err != nil {
				return out, err
			}
			if !stored {
				continue
			}
			known[dup] = item
			out.Replaced++
		default:
			out.Skipped++
		}
	}

	e.logger.Info("Import finished",
		"strategy", opts.Strategy,
		"imported", out.Imported,
		"skipped", out.Skipped,
		"replaced", out.Replaced,
		"invalid", len(out.InvalidItems),
		"dry_run", opts.DryRun,
	)

	return out, nil
}

// put сохраняет проверенную запись через Store, который повторно проверяет checksum.
// Запись, не прошедшая проверку, попадает в ошибки и не считается импортированной.
func (e *Engine) put(ctx context.Context, out *Outcome, item models.CatalogItem, dryRun bool) (bool, error) {
	if dryRun {
		return true, nil
	}

	err := e.store.Put(ctx, item)
	if errors.Is(err, catalog.ErrItemTampered) {
		out.Errors = append(out.Errors, newItemProblem(KindItemTamper, -1, item.ID, ReasonChecksumMismatch))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to import item %s: %w", item.ID, err)
	}
	return true, nil
}

// Conflicts returns the validated items that duplicate stored items.
// Callers use it to ask about each conflict before a single Apply.
func (e *Engine) Conflicts(ctx context.Context, vr *ValidationResult) ([]Conflict, error) {
	existing, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, item := range vr.Items {
		if i := findDuplicate(existing, item); i >= 0 {
			conflicts = append(conflicts, Conflict{Incoming: item, Existing: existing[i]})
		}
	}
	return conflicts, nil
}
