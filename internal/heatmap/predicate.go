package heatmap

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Polygon is the only geometry type generated rules select.
const Polygon = "polygon"

// Predicate selects features of one geometry type whose numeric property
// lies in the half-open range (Min, Max].
type Predicate struct {
	GeometryType string
	Property     string
	Min          float64
	Max          float64
}

var predicateRe = regexp.MustCompile(
	`^type == '([a-z]+)' && properties\.([^\s]+) > (\S+) && properties\.([^\s]+) <= (\S+)$`)

// String returns the engine expression for the predicate.
func (p Predicate) String() string {
	return fmt.Sprintf("type == '%s' && properties.%s > %s && properties.%s <= %s",
		p.GeometryType, p.Property, formatNumber(p.Min), p.Property, formatNumber(p.Max))
}

// MarshalText implements encoding.TextMarshaler.
func (p Predicate) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses an expression produced by MarshalText.
func (p *Predicate) UnmarshalText(text []byte) error {
	m := predicateRe.FindStringSubmatch(strings.TrimSpace(string(text)))
	if m == nil {
		return invalid("predicate %q: unrecognised expression", text)
	}
	if m[2] != m[4] {
		return invalid("predicate %q: property mismatch", text)
	}
	lo, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return invalid("predicate %q: lower bound: %v", text, err)
	}
	hi, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return invalid("predicate %q: upper bound: %v", text, err)
	}
	*p = Predicate{GeometryType: m[1], Property: m[2], Min: lo, Max: hi}
	return nil
}

// Matches reports whether a feature with the given geometry type and
// properties satisfies the predicate.
func (p Predicate) Matches(geometryType string, props map[string]any) bool {
	if geometryType != p.GeometryType {
		return false
	}
	v, ok := Number(props[p.Property])
	if !ok {
		return false
	}
	return v > p.Min && v <= p.Max
}

// Number extracts a float from a decoded JSON property value.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
