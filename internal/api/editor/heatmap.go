// Package editor contains Datastar SSE handlers for the editor UI.
package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-heat/internal/heatmap"
	"github.com/joeblew999/plat-heat/internal/humastar"
	"github.com/joeblew999/plat-heat/internal/service"
	"github.com/joeblew999/plat-heat/internal/templates"
)

// HeatmapHandler previews heatmap style sets as rendered legends.
type HeatmapHandler struct {
	humastar.Handler
}

func NewHeatmapHandler(renderer *templates.Renderer) *HeatmapHandler {
	return &HeatmapHandler{Handler: humastar.Handler{Renderer: renderer}}
}

func (h *HeatmapHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/editor/heatmap/preview", h.Preview, huma.OperationTags("editor"))
}

// LegendData is the view model for the heatmap-legend fragment.
type LegendData struct {
	Property string
	Items    []service.LegendItem
}

func (h *HeatmapHandler) Preview(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}

	return h.Stream(func(sse humastar.SSE) {
		opts, err := HeatmapOptions(signals)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		ss, err := heatmap.GenerateOptions(opts)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.Render("heatmap-legend", legendData(opts.Property, ss)), "#heatmap-legend")
		sse.Signals(map[string]any{"error": "", "buckets": len(ss)})
	}), nil
}

// HeatmapOptions reads the property, thresholds and color signals.
// Thresholds may be a JSON array or a comma-separated string.
func HeatmapOptions(signals humastar.Signals) (heatmap.Options, error) {
	thresholds, err := signals.Floats("thresholds")
	if err != nil {
		return heatmap.Options{}, eris.Wrap(err, "thresholds must be numbers")
	}
	return heatmap.Options{
		Property:   signals.String("property"),
		Thresholds: thresholds,
		Color:      signals.String("color"),
	}, nil
}

func legendData(property string, ss heatmap.StyleSet) LegendData {
	items := make([]service.LegendItem, len(ss))
	for i, r := range ss {
		items[i] = service.LegendItem{Label: service.Label(r.When.Min, r.When.Max), Color: r.Attr.Color}
	}
	return LegendData{Property: property, Items: items}
}
