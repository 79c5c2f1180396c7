package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Canonical field keys, in wire order. This key set is consumed by the
// downstream UI and must not be renamed.
const (
	FieldDocumentNumber   = "document_number"
	FieldDate             = "date"
	FieldDocumentType     = "document_type"
	FieldIssuingAuthority = "issuing_authority"
	FieldPrimaryName      = "primary_name"
	FieldResponsibleParty = "responsible_party"
	FieldSubject          = "subject"
)

// CanonicalFields lists every key a normalized FieldSet must carry.
var CanonicalFields = []string{
	FieldDocumentNumber,
	FieldDate,
	FieldDocumentType,
	FieldIssuingAuthority,
	FieldPrimaryName,
	FieldResponsibleParty,
	FieldSubject,
}

// Sentinel wire strings. "unavailable" marks identity/name/authority fields
// the model could not recover; "undetermined" marks type/subject fields.
const (
	SentinelUnavailable  = "unavailable"
	SentinelUndetermined = "undetermined"
	ReviewMarker         = "(needs review)"
)

type FieldKind int

const (
	FieldPresent FieldKind = iota
	FieldMissing
	FieldNeedsReview
)

// FieldValue is a tagged value: genuine extracted content, a sentinel, or
// content flagged for review. The tag removes the ambiguity between "value
// could not be determined" and a document that literally contains the word
// "unavailable".
type FieldValue struct {
	Kind     FieldKind
	Text     string
	Sentinel string
}

func Present(text string) FieldValue {
	return FieldValue{Kind: FieldPresent, Text: text}
}

func Missing(sentinel string) FieldValue {
	return FieldValue{Kind: FieldMissing, Sentinel: sentinel}
}

func NeedsReview(text string) FieldValue {
	return FieldValue{Kind: FieldNeedsReview, Text: text}
}

// Empty reports whether the value carries no usable content.
func (v FieldValue) Empty() bool {
	if v.Kind == FieldMissing {
		return true
	}
	return strings.TrimSpace(v.Text) == ""
}

// Wire returns the wire-contract string form of the value.
func (v FieldValue) Wire() string {
	switch v.Kind {
	case FieldMissing:
		if v.Sentinel == "" {
			return SentinelUnavailable
		}
		return v.Sentinel
	case FieldNeedsReview:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return ReviewMarker
		}
		return text + " " + ReviewMarker
	default:
		return v.Text
	}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Wire())
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = FieldValueFromWire(s)
	return nil
}

// FieldValueFromWire reverses Wire: sentinel strings become Missing values,
// a trailing review marker becomes NeedsReview, everything else is Present.
func FieldValueFromWire(s string) FieldValue {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case SentinelUnavailable, SentinelUndetermined:
		return Missing(trimmed)
	case "":
		return Missing(SentinelUnavailable)
	}
	if strings.HasSuffix(trimmed, ReviewMarker) {
		text := strings.TrimSpace(strings.TrimSuffix(trimmed, ReviewMarker))
		if text == "" {
			return NeedsReview("")
		}
		return NeedsReview(text)
	}
	return Present(trimmed)
}

// FieldSet maps field names to tagged values. After normalization every
// canonical key is present; extra keys from the model pass through unchanged.
type FieldSet map[string]FieldValue

// SentinelFor returns the canonical default for a field key.
func SentinelFor(key string) string {
	switch key {
	case FieldDocumentType, FieldSubject:
		return SentinelUndetermined
	default:
		return SentinelUnavailable
	}
}

// NewSentinelFieldSet builds the all-default FieldSet used as the extraction
// stage fallback.
func NewSentinelFieldSet() FieldSet {
	fs := make(FieldSet, len(CanonicalFields))
	for _, key := range CanonicalFields {
		fs[key] = Missing(SentinelFor(key))
	}
	return fs
}

// NormalizeFields merges a parsed object with the canonical schema. Absent
// canonical keys get their sentinel default; keys beyond the schema pass
// through untouched. Total function, no failure path.
func NormalizeFields(parsed map[string]any) FieldSet {
	fs := make(FieldSet, len(CanonicalFields)+len(parsed))
	for key, raw := range parsed {
		fs[key] = coerceFieldValue(raw)
	}
	for _, key := range CanonicalFields {
		if _, ok := fs[key]; !ok {
			fs[key] = Missing(SentinelFor(key))
		}
	}
	return fs
}

func coerceFieldValue(raw any) FieldValue {
	switch t := raw.(type) {
	case string:
		return FieldValueFromWire(t)
	case nil:
		return Missing(SentinelUnavailable)
	case float64, bool:
		b, _ := json.Marshal(t)
		return Present(string(b))
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return Missing(SentinelUnavailable)
		}
		return Present(string(b))
	}
}

// Clone returns a shallow copy; FieldValue is a value type so the copy is
// independent.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Wire returns the plain string map form used in prompts and export.
func (fs FieldSet) Wire() map[string]string {
	out := make(map[string]string, len(fs))
	for k, v := range fs {
		out[k] = v.Wire()
	}
	return out
}

// Keys returns canonical keys first in wire order, then extras sorted
// lexicographically for stable iteration.
func (fs FieldSet) Keys() []string {
	keys := make([]string, 0, len(fs))
	seen := make(map[string]bool, len(CanonicalFields))
	for _, key := range CanonicalFields {
		if _, ok := fs[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	extras := make([]string, 0, len(fs))
	for key := range fs {
		if !seen[key] {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	return append(keys, extras...)
}
