// Package fieldset implements declarative PATCH validation: each resource
// declares the fields a client may update, and a single schema application
// replaces per-resource hand-written allow-list code.
package fieldset

import (
	"fmt"
	"math"
	"time"

	autherror "github.com/mouthful-app/mouthful/internal/errors"
)

// Rule describes one patchable field: the database column it maps to and how
// to convert/validate the raw JSON value.
type Rule struct {
	Column   string
	Nullable bool
	Convert  func(value any) (any, error)
}

// Schema maps JSON field names to their rules.
type Schema map[string]Rule

// Apply validates a decoded JSON patch against the schema and returns the
// corresponding column/value map. Unknown fields are rejected rather than
// silently dropped.
func (s Schema) Apply(patch map[string]any) (map[string]any, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("empty patch")
	}

	columns := make(map[string]any, len(patch))

	for field, value := range patch {
		rule, ok := s[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", autherror.ErrUnknownField, field)
		}

		if value == nil {
			if !rule.Nullable {
				return nil, fmt.Errorf("field %q cannot be null", field)
			}
			columns[rule.Column] = nil
			continue
		}

		converted, err := rule.Convert(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		columns[rule.Column] = converted
	}

	return columns, nil
}

// IntRange accepts a JSON number holding an integer in [min, max].
func IntRange(min, max int) func(any) (any, error) {
	return func(value any) (any, error) {
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer")
		}
		n := int(f)
		if n < min || n > max {
			return nil, fmt.Errorf("must be between %d and %d", min, max)
		}
		return n, nil
	}
}

// Enum accepts one of the given string values.
func Enum(allowed ...string) func(any) (any, error) {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %v", allowed)
	}
}

// String accepts a string up to maxLen bytes.
func String(maxLen int) func(any) (any, error) {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		if len(s) > maxLen {
			return nil, fmt.Errorf("longer than %d bytes", maxLen)
		}
		return s, nil
	}
}

// Date accepts a YYYY-MM-DD string and converts it to time.Time.
func Date() func(any) (any, error) {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a date string")
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("expected YYYY-MM-DD")
		}
		return t, nil
	}
}
