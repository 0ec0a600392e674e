// Package corpus models scraped job postings. Postings arrive as loosely
// structured records with inconsistent field names across sources, so the
// package keeps them as maps and funnels all field-name guessing through a
// single normalization boundary.
package corpus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Posting is one scraped job listing as delivered by a source. Any field may
// be absent; consumers must degrade gracefully.
type Posting map[string]any

// Fields are the well-known posting fields, decoded leniently for rendering
// and prompts. Missing fields decode to empty strings.
type Fields struct {
	Title          string `mapstructure:"title"`
	Company        string `mapstructure:"company"`
	Location       string `mapstructure:"location"`
	WorkplaceType  string `mapstructure:"workplace_type"`
	EmploymentType string `mapstructure:"employment_type"`
	URL            string `mapstructure:"url"`
}

// descriptionKeys is the precedence list for locating the posting body text.
var descriptionKeys = []string{"raw", "description", "text"}

// nestedTextKeys is the preference order inside a nested description record.
var nestedTextKeys = []string{"markdown", "text"}

// Clone returns a shallow copy of the posting. Scoring never mutates the
// input record.
func (p Posting) Clone() Posting {
	out := make(Posting, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Fields decodes the well-known fields from the posting record. Non-string
// scalar values are coerced; anything undecodable is left empty.
func (p Posting) Fields() Fields {
	var f Fields

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return f
	}

	// Best effort: a partially decodable record still yields the fields
	// that did decode.
	_ = decoder.Decode(map[string]any(p))

	return f
}

// Title returns the posting title, or an empty string.
func (p Posting) Title() string {
	if s, ok := p["title"].(string); ok {
		return s
	}
	return ""
}

// CombinedText returns the canonical text of the posting: title followed by
// the body under the field-name precedence list, bounded to limit runes.
// A missing body degrades to the title alone; a body of an unsupported type
// is an extraction error, surfaced per posting by the driver.
func (p Posting) CombinedText(limit int) (string, error) {
	body, err := p.bodyText()
	if err != nil {
		return "", err
	}

	combined := strings.TrimSpace(p.Title() + " " + body)

	runes := []rune(combined)
	if limit > 0 && len(runes) > limit {
		combined = string(runes[:limit])
	}

	return combined, nil
}

func (p Posting) bodyText() (string, error) {
	for _, key := range descriptionKeys {
		v, ok := p[key]
		if !ok || v == nil {
			continue
		}

		switch val := v.(type) {
		case string:
			return val, nil
		case map[string]any:
			return nestedText(val), nil
		case Posting:
			return nestedText(val), nil
		default:
			return "", fmt.Errorf("posting field %q has unsupported type %T", key, v)
		}
	}

	return "", nil
}

// nestedText extracts text from a nested description record, preferring the
// markdown rendition, then plain text, then a concatenation of all
// string-valued fields in key order.
func nestedText(record map[string]any) string {
	for _, key := range nestedTextKeys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		if _, ok := record[k].(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, record[k].(string))
	}

	return strings.Join(parts, " ")
}
