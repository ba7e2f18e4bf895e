package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Metadata field names shared by filters, stores and wire formats.
const (
	FieldDocID      = "doc_id"
	FieldTitle      = "title"
	FieldType       = "type"
	FieldSpecialty  = "specialty"
	FieldYear       = "year"
	FieldPage       = "page"
	FieldSection    = "section"
	FieldTokenCount = "token_count"
	FieldUploadDate = "upload_date"
	FieldUploadedBy = "uploaded_by"
)

// MetadataFields lists every filterable metadata field in storage order.
var MetadataFields = []string{
	FieldDocID, FieldTitle, FieldType, FieldSpecialty, FieldYear,
	FieldPage, FieldSection, FieldTokenCount, FieldUploadDate, FieldUploadedBy,
}

// IsNumericField reports whether a metadata field holds an integer.
func IsNumericField(name string) bool {
	switch name {
	case FieldYear, FieldPage, FieldTokenCount:
		return true
	default:
		return false
	}
}

// Filter holds AND-equality constraints over record metadata.
// A nil or empty filter matches every record.
type Filter map[string]string

// FilterBy builds a single-constraint filter.
func FilterBy(field, value string) Filter {
	return Filter{field: value}
}

// Validate checks that every key is a known field and that numeric fields
// carry integer values.
func (f Filter) Validate() error {
	for key, value := range f {
		if !isKnownField(key) {
			return fmt.Errorf("%w: unknown filter field %q", ErrInvalidInput, key)
		}
		if IsNumericField(key) {
			if _, err := strconv.Atoi(value); err != nil {
				return fmt.Errorf("%w: filter field %q expects an integer, got %q", ErrInvalidInput, key, value)
			}
		}
	}
	return nil
}

// Matches reports whether the metadata satisfies every constraint.
func (f Filter) Matches(m RecordMetadata) bool {
	for key, want := range f {
		got, ok := m.Field(key)
		if !ok {
			return false
		}
		if IsNumericField(key) {
			w, err := strconv.Atoi(want)
			if err != nil {
				return false
			}
			g, _ := strconv.Atoi(got)
			if g != w {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// With returns a copy of the filter with one more constraint.
// The boolean is false when the filter already constrains the field to a
// different value, in which case no record can match.
func (f Filter) With(field, value string) (Filter, bool) {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	if existing, ok := out[field]; ok && existing != value {
		return out, false
	}
	out[field] = value
	return out, true
}

// Keys returns the constrained field names in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the filter as "k=v,k=v" in key order.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, k := range f.Keys() {
		parts = append(parts, k+"="+f[k])
	}
	return strings.Join(parts, ",")
}

// ParseFilter parses "key=value" pairs into a filter.
func ParseFilter(pairs []string) (Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	f := make(Filter, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", ErrInvalidInput, pair)
		}
		f[key] = strings.TrimSpace(value)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func isKnownField(name string) bool {
	for _, f := range MetadataFields {
		if f == name {
			return true
		}
	}
	return false
}
