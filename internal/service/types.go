// Package service contains business logic for the plat-heat platform.
package service

import "github.com/joeblew999/plat-heat/internal/heatmap"

// LayerConfig represents a map layer styled by a heatmap.
// Huma reads the tags for OpenAPI and validation.
type LayerConfig struct {
	ID             string           `json:"id,omitempty" doc:"Unique layer identifier" example:"italy_density"`
	Name           string           `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Italy density"`
	File           string           `json:"file" required:"true" doc:"GeoJSON source file name" example:"italy.geojson"`
	GeomType       string           `json:"geomType" required:"true" enum:"polygon,line,point" doc:"Geometry type" example:"polygon" default:"polygon"`
	DefaultVisible bool             `json:"defaultVisible" default:"true" doc:"Whether layer is visible by default" example:"true"`
	Opacity        float64          `json:"opacity,omitempty" minimum:"0" maximum:"1" default:"0.7" doc:"Layer opacity (0-1)" example:"0.7"`
	Heatmap        *heatmap.Options `json:"heatmap,omitempty" doc:"Heatmap settings; the style set is regenerated from these on save"`
	StyleSet       heatmap.StyleSet `json:"styleSet,omitempty" doc:"Generated style rules"`
	RenderRules    []RenderRule     `json:"renderRules,omitempty" doc:"Range styling rules derived from the style set"`
	Legend         []LegendItem     `json:"legend,omitempty" doc:"Legend entries for this layer"`
}

// RenderRule is a flattened styling rule for clients that do not evaluate
// style expressions.
type RenderRule struct {
	FilterProp string  `json:"filterProp" doc:"Property name to filter on"`
	Min        float64 `json:"min" doc:"Exclusive lower bound"`
	Max        float64 `json:"max" doc:"Inclusive upper bound"`
	Fill       string  `json:"fill" doc:"Fill color (CSS)"`
}

// LegendItem defines a legend entry.
type LegendItem struct {
	Label string `json:"label" doc:"Legend label" example:"50 - 100"`
	Color string `json:"color" doc:"Legend color (CSS)" example:"#ff6600"`
}

// SourceFile represents a GeoJSON source data file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"italy.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}

// BucketCount is the number of source features falling in one bucket.
type BucketCount struct {
	Min   float64 `json:"min" doc:"Exclusive lower bound"`
	Max   float64 `json:"max" doc:"Inclusive upper bound"`
	Color string  `json:"color" doc:"Bucket color"`
	Count int     `json:"count" doc:"Matching features"`
}

// Classification summarises how a style set splits a source.
type Classification struct {
	Source    string        `json:"source" doc:"Source file name"`
	Total     int           `json:"total" doc:"Total features"`
	Unmatched int           `json:"unmatched" doc:"Features no rule matched"`
	Buckets   []BucketCount `json:"buckets" doc:"Per-bucket counts in rule order"`
}
