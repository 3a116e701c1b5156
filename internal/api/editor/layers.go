package editor

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heat/internal/humastar"
	"github.com/joeblew999/plat-heat/internal/service"
	"github.com/joeblew999/plat-heat/internal/templates"
)

type LayerHandler struct {
	humastar.Handler
	layerService *service.LayerService
}

func NewLayerHandler(layerService *service.LayerService, renderer *templates.Renderer) *LayerHandler {
	return &LayerHandler{
		Handler:      humastar.Handler{Renderer: renderer},
		layerService: layerService,
	}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/layers", h.ListLayers, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/layers/{id}/heatmap", h.ApplyHeatmap, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/layers/{id}", h.DeleteLayer, huma.OperationTags("editor"))
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayerList(), "#layer-list")
	}), nil
}

type ApplyHeatmapInput struct {
	ID      string `path:"id" doc:"Layer ID"`
	RawBody []byte
}

func (h *LayerHandler) ApplyHeatmap(ctx context.Context, input *ApplyHeatmapInput) (*huma.StreamResponse, error) {
	signals, err := humastar.ParseSignals(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}

	return h.Stream(func(sse humastar.SSE) {
		opts, err := HeatmapOptions(signals)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		layer, err := h.layerService.ApplyHeatmap(input.ID, opts)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success(fmt.Sprintf("Heatmap applied to '%s'", layer.Name))
		sse.Patch(h.renderLayerList(), "#layer-list")
	}), nil
}

type DeleteLayerInput struct {
	ID string `path:"id" doc:"Layer ID to delete"`
}

func (h *LayerHandler) DeleteLayer(ctx context.Context, input *DeleteLayerInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.layerService.Delete(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.RemoveElementByID("layer-" + input.ID)
		sse.Success("Layer deleted")
	}), nil
}

type LayerCardData struct {
	ID       string
	Name     string
	File     string
	Property string
	Legend   []service.LegendItem
}

func (h *LayerHandler) renderLayerList() string {
	layers := h.layerService.List()
	if len(layers) == 0 {
		return h.Render("empty-state", map[string]string{
			"Title": "No layers configured", "Message": "Add a layer to get started",
		})
	}

	ids := make([]string, 0, len(layers))
	for id := range layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	for _, id := range ids {
		layer := layers[id]
		data := LayerCardData{ID: id, Name: layer.Name, File: layer.File, Legend: layer.Legend}
		if layer.Heatmap != nil {
			data.Property = layer.Heatmap.Property
		}
		buf.WriteString(h.Render("layer-card", data))
	}
	return buf.String()
}
