package integrity

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/iudanet/catalogkeeper/internal/models"
)

// canonicalForm фиксирует набор и порядок полей, участвующих в хешировании.
type canonicalForm struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	ImageData string `json:"imageData"`
}

// Canonicalize returns the deterministic text form of the item's identity fields:
// {"name":…,"location":…,"imageData":…}. Name and location are NFC normalized,
// trimmed and lower-cased; imageData is taken verbatim.
// The function is total: absent fields are encoded as empty strings.
func Canonicalize(item models.CatalogItem) string {
	form := canonicalForm{
		Name:      NormalizeText(item.Name),
		Location:  NormalizeText(item.Location),
		ImageData: item.ImageData,
	}

	data, err := marshalJSON(form)
	if err != nil {
		// строки всегда сериализуются, сюда попасть нельзя
		panic("integrity: canonical form is not encodable: " + err.Error())
	}
	return string(data)
}

// NormalizeText приводит текстовое поле к форме, по которой сравниваются записи.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimFunc(s, isTrimmable)
	return strings.ToLower(s)
}

// isTrimmable повторяет набор пробельных символов, который срезает String.prototype.trim
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// marshalJSON сериализует значение так же, как JSON.stringify:
// без HTML-экранирования, с буквальными U+2028/U+2029 и без завершающего перевода строки.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(out), nil
}

// unescapeLineSeparators заменяет escape-последовательности \u2028 и \u2029 на сами символы.
// Экранированный обратный слеш (\\u2028) остается как есть.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}

		if i+5 < len(data) && data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}

		// любая другая escape-последовательность копируется парой байт
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
