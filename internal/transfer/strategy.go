package transfer

import (
	"fmt"
	"strings"
)

// Strategy determines how an import resolves duplicates
type Strategy string

const (
	// StrategyMerge keeps the existing item on conflict
	StrategyMerge Strategy = "merge"

	// StrategyReplaceAll clears the catalog and inserts every imported item
	StrategyReplaceAll Strategy = "replaceAll"

	// StrategyKeepImported overwrites the existing duplicate with the imported content
	StrategyKeepImported Strategy = "keepImported"

	// StrategySkip does nothing on conflict
	StrategySkip Strategy = "skip"

	// StrategySelected imports only the selected IDs, keeping existing items on conflict
	StrategySelected Strategy = "selected"
)

// Strategies lists all strategies in display order
var Strategies = []Strategy{StrategyMerge, StrategyReplaceAll, StrategyKeepImported, StrategySkip, StrategySelected}

// Valid returns true if the strategy is recognized
func (s Strategy) Valid() bool {
	switch s {
	case StrategyMerge, StrategyReplaceAll, StrategyKeepImported, StrategySkip, StrategySelected:
		return true
	default:
		return false
	}
}

// ParseStrategy parses a strategy name, case-insensitively.
// keepExisting is accepted as an alias of merge.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "keepExisting") {
		return StrategyMerge, nil
	}
	for _, s := range Strategies {
		if strings.EqualFold(name, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
