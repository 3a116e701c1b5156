// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heat/internal/config"
	"github.com/joeblew999/plat-heat/internal/heatmap"
	"github.com/joeblew999/plat-heat/internal/humastar"
	"github.com/joeblew999/plat-heat/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Layer     *service.LayerService
	Source    *service.SourceService
	Threshold *service.ThresholdService
	Config    *config.Config
	DataDir   string
	DB        bool
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"italy_density"`
}

// LayerBody is a layer configuration with its hypermedia actions.
type LayerBody struct {
	service.LayerConfig
}

var layerActions = []humastar.ActionDef{
	{Rel: "heatmap", Pattern: "/api/v1/layers/%s/heatmap", Method: http.MethodPost, Title: "Apply heatmap"},
	{Rel: "edit", Pattern: "/api/v1/layers/%s", Method: http.MethodPut, Title: "Edit layer"},
	{Rel: "delete", Pattern: "/api/v1/layers/%s", Method: http.MethodDelete, Title: "Delete layer"},
}

// Actions implements humastar.Actor.
func (b LayerBody) Actions() []humastar.Action {
	actions := humastar.ActionsFor(b.ID, layerActions)
	if len(b.StyleSet) > 0 && b.File != "" {
		actions = append(actions, humastar.Action{
			Rel:    "classify",
			Href:   "/api/v1/sources/" + url.PathEscape(b.File) + "/classify",
			Method: http.MethodPost,
			Title:  "Count features per bucket",
		})
	}
	return actions
}

type LayerOutput struct {
	Body LayerBody
}

type LayersOutput struct {
	Body map[string]service.LayerConfig
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type CreatedLayerBody struct {
	ID      string              `json:"id" doc:"Generated layer ID"`
	Layer   service.LayerConfig `json:"layer" doc:"Created layer configuration"`
	Message string              `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether DuckDB is available"`
	Presets  []string `json:"presets" doc:"Configured heatmap presets"`
	Features []string `json:"features" doc:"Available features"`
}

type HeatmapInput struct {
	Body heatmap.Options
}

type StyleSetOutput struct {
	Body StyleSetBody
}

type StyleSetBody struct {
	Options  heatmap.Options      `json:"options" doc:"Settings the style set was generated from"`
	StyleSet heatmap.StyleSet     `json:"styleSet" doc:"Generated style rules"`
	Legend   []service.LegendItem `json:"legend" doc:"Legend entries"`
}

type ApplyHeatmapInput struct {
	IDInput
	Body heatmap.Options
}

type PresetInput struct {
	Name string `path:"name" doc:"Preset name" example:"density"`
}

type PresetsOutput struct {
	Body map[string]heatmap.Options
}

type BreaksInput struct {
	Name     string `path:"name" doc:"Source file name" example:"italy.geojson"`
	Property string `query:"property" required:"true" doc:"Numeric feature property" example:"density"`
	Method   string `query:"method" enum:"equal,quantile" default:"equal" doc:"Break method"`
	Count    int    `query:"count" minimum:"1" maximum:"64" default:"5" doc:"Number of thresholds"`
}

type BreaksBody struct {
	Source     string    `json:"source" doc:"Source file name"`
	Property   string    `json:"property" doc:"Numeric feature property"`
	Method     string    `json:"method" doc:"Break method"`
	Thresholds []float64 `json:"thresholds" doc:"Suggested thresholds, strictly ascending"`
}

type ClassifyInput struct {
	Name string `path:"name" doc:"Source file name" example:"italy.geojson"`
	Body struct {
		StyleSet heatmap.StyleSet `json:"styleSet" minItems:"1" doc:"Style rules to evaluate"`
	}
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterLayers registers layer CRUD routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.CreateLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}", h.PutLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/heatmap", h.ApplyHeatmap, huma.OperationTags("layers", "heatmap"))
}

// RegisterHeatmap registers stateless style set generation routes.
func (h *APIHandler) RegisterHeatmap(api huma.API) {
	huma.Post(api, "/api/v1/heatmap", h.GenerateHeatmap, huma.OperationTags("heatmap"))
	huma.Get(api, "/api/v1/heatmap/presets", h.GetPresets, huma.OperationTags("heatmap"))
	huma.Get(api, "/api/v1/heatmap/presets/{name}", h.GetPreset, huma.OperationTags("heatmap"))
}

// RegisterSources registers source routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/{name}/breaks", h.GetBreaks, huma.OperationTags("sources"))
	huma.Post(api, "/api/v1/sources/{name}/classify", h.Classify, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-heat",
		Version:  Version,
		DataDir:  h.svc.DataDir,
		DB:       h.svc.DB,
		Presets:  []string{},
		Features: []string{"heatmap", "geojson", "breaks"},
	}
	if h.svc.Config != nil {
		body.Presets = h.svc.Config.PresetNames()
	}
	if h.svc.DB {
		body.Features = append(body.Features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	if h.svc.Layer == nil {
		return &LayersOutput{Body: map[string]service.LayerConfig{}}, nil
	}
	return &LayersOutput{Body: h.svc.Layer.List()}, nil
}

func (h *APIHandler) CreateLayer(ctx context.Context, input *struct{ Body service.LayerConfig }) (*struct{ Body CreatedLayerBody }, error) {
	if h.svc.Layer == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	created, err := h.svc.Layer.Create(input.Body)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body CreatedLayerBody }{Body: CreatedLayerBody{
		ID: created.ID, Layer: created, Message: "Layer created",
	}}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	layer, ok := h.svc.Layer.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: LayerBody{layer}}, nil
}

func (h *APIHandler) PutLayer(ctx context.Context, input *struct {
	IDInput
	Body service.LayerConfig
}) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	updated, err := h.svc.Layer.Update(input.ID, input.Body)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &LayerOutput{Body: LayerBody{updated}}, nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if h.svc.Layer == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	if err := h.svc.Layer.Delete(input.ID); err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) ApplyHeatmap(ctx context.Context, input *ApplyHeatmapInput) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	layer, err := h.svc.Layer.ApplyHeatmap(input.ID, input.Body)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &LayerOutput{Body: LayerBody{layer}}, nil
}

func (h *APIHandler) GenerateHeatmap(ctx context.Context, input *HeatmapInput) (*StyleSetOutput, error) {
	return styleSetOutput(input.Body)
}

func (h *APIHandler) GetPresets(ctx context.Context, input *struct{}) (*PresetsOutput, error) {
	presets := map[string]heatmap.Options{}
	if h.svc.Config != nil {
		for name, p := range h.svc.Config.Heatmap.Presets {
			presets[name] = p
		}
	}
	return &PresetsOutput{Body: presets}, nil
}

func (h *APIHandler) GetPreset(ctx context.Context, input *PresetInput) (*StyleSetOutput, error) {
	if h.svc.Config == nil {
		return nil, huma.Error404NotFound("preset not found")
	}
	p, ok := h.svc.Config.Preset(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("preset not found")
	}
	return styleSetOutput(p)
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetBreaks(ctx context.Context, input *BreaksInput) (*struct{ Body BreaksBody }, error) {
	if h.svc.Threshold == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	thresholds, err := h.svc.Threshold.Suggest(ctx, input.Name, input.Property, input.Method, input.Count)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body BreaksBody }{Body: BreaksBody{
		Source: input.Name, Property: input.Property, Method: input.Method, Thresholds: thresholds,
	}}, nil
}

func (h *APIHandler) Classify(ctx context.Context, input *ClassifyInput) (*struct{ Body service.Classification }, error) {
	if h.svc.Source == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	c, err := h.svc.Source.Classify(input.Name, input.Body.StyleSet)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.Classification }{Body: c}, nil
}

func styleSetOutput(opts heatmap.Options) (*StyleSetOutput, error) {
	ss, err := heatmap.GenerateOptions(opts)
	if err != nil {
		return nil, toHumaError(err)
	}
	legend := make([]service.LegendItem, len(ss))
	for i, r := range ss {
		legend[i] = service.LegendItem{Label: service.Label(r.When.Min, r.When.Max), Color: r.Attr.Color}
	}
	return &StyleSetOutput{Body: StyleSetBody{Options: opts, StyleSet: ss, Legend: legend}}, nil
}
