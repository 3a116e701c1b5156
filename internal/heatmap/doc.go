// Package heatmap generates choropleth style sets: one fill rule per bucket
// between consecutive thresholds of a numeric feature property, shaded from
// a base color.
//
// The output is declarative data for an external map style engine:
//
//	ss, err := heatmap.Generate("density", []float64{50, 100, 150}, heatmap.MustParseColor("#ff6600"))
//
// yields rules whose "when" expressions read
//
//	type == 'polygon' && properties.density > 0 && properties.density <= 50
//
// and so on. Generation is pure and safe for concurrent use.
package heatmap
