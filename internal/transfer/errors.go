package transfer

import (
	"errors"
	"fmt"
)

// Kind classifies problems found while reading a payload
type Kind string

const (
	// KindStructural payload не разбирается или нет обязательных полей, импорт прерывается
	KindStructural Kind = "structural"
	// KindEnvelopeTamper metaChecksum не совпадает, только предупреждение
	KindEnvelopeTamper Kind = "envelope_tamper"
	// KindItemValidation у записи нет обязательных полей, запись исключается
	KindItemValidation Kind = "item_validation"
	// KindItemTamper checksum записи не совпадает с содержимым, запись исключается
	KindItemTamper Kind = "item_tamper"
)

// Fatal reports whether problems of this kind abort the whole import
func (k Kind) Fatal() bool {
	return k == KindStructural
}

// Sentinel errors for use with errors.Is()
var (
	ErrStructural      = errors.New("invalid payload structure")
	ErrEnvelopeTamper  = errors.New("payload checksum mismatch")
	ErrItemValidation  = errors.New("item validation failed")
	ErrItemTamper      = errors.New("item checksum mismatch")
	ErrUnknownStrategy = errors.New("unknown import strategy")
)

func (k Kind) sentinel() error {
	switch k {
	case KindStructural:
		return ErrStructural
	case KindEnvelopeTamper:
		return ErrEnvelopeTamper
	case KindItemValidation:
		return ErrItemValidation
	case KindItemTamper:
		return ErrItemTamper
	default:
		return nil
	}
}

// Problem describes one structural, tamper or validation finding
type Problem struct {
	Kind    Kind   `json:"kind"`
	ItemID  string `json:"itemId,omitempty"`
	Index   int    `json:"index"` // Index позиция записи в массиве items, -1 для уровня payload
	Message string `json:"message"`
}

func newPayloadProblem(kind Kind, format string, args ...any) *Problem {
	return &Problem{Kind: kind, Index: -1, Message: fmt.Sprintf(format, args...)}
}

func newItemProblem(kind Kind, index int, id, message string) *Problem {
	return &Problem{Kind: kind, Index: index, ItemID: id, Message: message}
}

// Error implements the error interface
func (p *Problem) Error() string {
	switch {
	case p.ItemID != "":
		return fmt.Sprintf("item %s: %s", p.ItemID, p.Message)
	case p.Index >= 0:
		return fmt.Sprintf("item #%d: %s", p.Index, p.Message)
	default:
		return p.Message
	}
}

// Unwrap returns the sentinel of the problem kind
func (p *Problem) Unwrap() error {
	return p.Kind.sentinel()
}

// Problems is a list of findings that can be returned as a single error
type Problems []*Problem

// Err returns nil for an empty list, the single problem, or a joined error
func (ps Problems) Err() error {
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	errs := make([]error, len(ps))
	for i, p := range ps {
		errs[i] = p
	}
	return errors.Join(errs...)
}

// OfKind returns the problems of the given kind
func (ps Problems) OfKind(kind Kind) Problems {
	var out Problems
	for _, p := range ps {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// HasFatal reports whether any problem aborts the import
func (ps Problems) HasFatal() bool {
	for _, p := range ps {
		if p.Kind.Fatal() {
			return true
		}
	}
	return false
}
