package transfer

import (
	"bytes"
	"encoding/json"

	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/validation"
	"github.com/iudanet/catalogkeeper/pkg/api"
)

// Item rejection reasons
const (
	ReasonChecksumMismatch = "checksum mismatch"
	ReasonMissingChecksum  = "missing checksum"
	ReasonMalformed        = "malformed item"
)

// InvalidItem is an item excluded from import
type InvalidItem struct {
	Item   models.CatalogItem `json:"item"`
	ID     string             `json:"id"`
	Reason string             `json:"reason"`
	Kind   Kind               `json:"kind"`
	Index  int                `json:"index"`
}

// ValidationResult describes a parsed payload
type ValidationResult struct {
	Type         string               // Type тип payload, пустой если не указан
	CreatedAt    string               // CreatedAt время экспорта из payload
	Items        []models.CatalogItem // Items проверенные записи, готовые к импорту
	InvalidItems []InvalidItem        // InvalidItems исключенные записи с причиной
	Errors       Problems             // Errors структурные ошибки, предупреждения и ошибки записей
	Version      int                  // Version версия формата
	Valid        bool                 // Valid есть хотя бы одна запись и нет структурных ошибок
}

// Warnings returns non-fatal payload-level problems
func (r *ValidationResult) Warnings() Problems {
	return r.Errors.OfKind(KindEnvelopeTamper)
}

// Structural reports whether the payload was rejected as a whole
func (r *ValidationResult) Structural() bool {
	return r.Errors.HasFatal()
}

// Validate parses payload text and verifies the envelope and every item.
// Items that fail validation or verification never reach the result's Items.
func (e *Engine) Validate(data []byte) *ValidationResult {
	result := &ValidationResult{
		Items:        []models.CatalogItem{},
		InvalidItems: []InvalidItem{},
	}

	// 1. Разбираем структуру
	raw, err := api.DecodeRaw(data)
	if err != nil {
		result.Errors = append(result.Errors, newPayloadProblem(KindStructural, "invalid structure: %v", err))
		return result
	}

	// 2. Проверяем тип, версию и наличие массива items
	if raw.Type != nil {
		result.Type = *raw.Type
		if result.Type != api.TypeCatalogExport && result.Type != api.TypeItemExport {
			result.Errors = append(result.Errors, newPayloadProblem(KindStructural, "unsupported payload type %q", result.Type))
			return result
		}
	}

	result.Version = api.FormatVersion
	if raw.Version != nil {
		result.Version = *raw.Version
		if result.Version < 1 || result.Version > api.FormatVersion {
			result.Errors = append(result.Errors, newPayloadProblem(KindStructural, "unsupported payload version %d", result.Version))
			return result
		}
	}

	if raw.CreatedAt != nil {
		result.CreatedAt = *raw.CreatedAt
	}

	rawItems, ok := decodeItemsArray(raw.Items)
	if !ok {
		result.Errors = append(result.Errors, newPayloadProblem(KindStructural, "missing items array"))
		return result
	}

	// Разбираем записи; нераспознанные сразу попадают в invalidItems
	parsed := make([]models.CatalogItem, 0, len(rawItems))
	parsedIndex := make([]int, 0, len(rawItems))
	for i, rawItem := range rawItems {
		var item models.CatalogItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			e.reject(result, i, item, KindItemValidation, ReasonMalformed+": "+err.Error())
			continue
		}
		parsed = append(parsed, item)
		parsedIndex = append(parsedIndex, i)
	}

	// 3. Сверяем metaChecksum, расхождение только предупреждение
	e.checkEnvelope(result, raw.MetaChecksum, raw.Items, parsed, len(parsed) == len(rawItems))

	// 4. Проверяем каждую запись
	now := e.now().UnixMilli()
	for n, item := range parsed {
		index := parsedIndex[n]

		if err := validation.ValidateItem(item); err != nil {
			e.reject(result, index, item, KindItemValidation, "missing required fields: "+err.Error())
			continue
		}

		if item.Checksum == "" {
			e.reject(result, index, item, KindItemTamper, ReasonMissingChecksum)
			continue
		}
		if !integrity.VerifyItem(item) {
			e.reject(result, index, item, KindItemTamper, ReasonChecksumMismatch)
			continue
		}

		// 5. Дополняем недостающие id и временные метки
		if item.ID == "" {
			item.ID = e.store.NewID()
		}
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		if item.UpdatedAt == 0 {
			item.UpdatedAt = item.CreatedAt
		}

		result.Items = append(result.Items, item)
	}

	result.Valid = len(result.Items) > 0 && !result.Structural()

	e.logger.Debug("Payload validated",
		"valid", result.Valid,
		"items", len(result.Items),
		"invalid", len(result.InvalidItems),
		"warnings", len(result.Warnings()),
	)

	return result
}

// decodeItemsArray returns the raw elements of items, or false if it is absent or not an array
func decodeItemsArray(data json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

// checkEnvelope сверяет metaChecksum сначала с массивом items в том виде, в каком он записан в файле,
// затем с повторной сериализацией разобранных записей.
func (e *Engine) checkEnvelope(result *ValidationResult, declared *string, rawItems json.RawMessage, parsed []models.CatalogItem, complete bool) {
	if declared == nil || *declared == "" {
		result.Errors = append(result.Errors,
			newPayloadProblem(KindEnvelopeTamper, "missing metaChecksum: file integrity cannot be confirmed"))
		return
	}

	if asWritten, err := integrity.DigestRawItems(rawItems); err == nil && asWritten == *declared {
		return
	}

	recomputed, err := integrity.DigestCollection(parsed)
	if err != nil || !complete || recomputed != *declared {
		result.Errors = append(result.Errors,
			newPayloadProblem(KindEnvelopeTamper, "checksum mismatch: file may be modified"))
	}
}

func (e *Engine) reject(result *ValidationResult, index int, item models.CatalogItem, kind Kind, reason string) {
	result.InvalidItems = append(result.InvalidItems, InvalidItem{
		Item:   item,
		ID:     item.ID,
		Reason: reason,
		Kind:   kind,
		Index:  index,
	})
	result.Errors = append(result.Errors, newItemProblem(kind, index, item.ID, reason))
}
