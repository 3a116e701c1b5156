package heatmap

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	// RuleDescription labels every generated rule.
	RuleDescription = "geoJson property-based style"
	// RenderOrder is shared by every generated rule.
	RenderOrder = 1000
	// TechniqueFill is the only technique generated rules use.
	TechniqueFill = "fill"
)

// StyleRule maps a feature predicate to an appearance.
type StyleRule struct {
	Description string    `json:"description" yaml:"description" doc:"Human-readable label"`
	When        Predicate `json:"when" yaml:"when" doc:"Feature condition expression"`
	RenderOrder int       `json:"renderOrder" yaml:"renderOrder" doc:"Render priority"`
	Technique   string    `json:"technique" yaml:"technique" doc:"Rendering technique" example:"fill"`
	Attr        Attr      `json:"attr" yaml:"attr" doc:"Technique attributes"`
}

// Attr holds technique attributes.
type Attr struct {
	Color string `json:"color" yaml:"color" doc:"Fill color (hex)" example:"#ff6600"`
}

// StyleSet is an ordered list of rules, evaluated first match wins.
type StyleSet []StyleRule

// Bound is the (Min, Max] range of one bucket.
type Bound struct {
	Min float64 `json:"min" doc:"Exclusive lower bound"`
	Max float64 `json:"max" doc:"Inclusive upper bound"`
}

// Match returns the index of the first rule matching the feature.
func (s StyleSet) Match(geometryType string, props map[string]any) (int, bool) {
	for i, r := range s {
		if r.When.Matches(geometryType, props) {
			return i, true
		}
	}
	return -1, false
}

// MatchFeature is Match for a GeoJSON feature.
func (s StyleSet) MatchFeature(f *geojson.Feature) (int, bool) {
	if f == nil || f.Geometry == nil {
		return -1, false
	}
	return s.Match(GeometryType(f.Geometry), f.Properties)
}

// Bounds returns the bucket ranges in rule order.
func (s StyleSet) Bounds() []Bound {
	out := make([]Bound, len(s))
	for i, r := range s {
		out[i] = Bound{Min: r.When.Min, Max: r.When.Max}
	}
	return out
}

// GeometryType maps an orb geometry to the engine's geometry type name.
func GeometryType(g orb.Geometry) string {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return Polygon
	case orb.LineString, orb.MultiLineString:
		return "line"
	case orb.Point, orb.MultiPoint:
		return "point"
	}
	return ""
}
