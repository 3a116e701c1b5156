package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heat/internal/humastar"
	"github.com/joeblew999/plat-heat/internal/service"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
type EventHandler struct {
	humastar.Handler
	bus    *service.EventBus
	layers *LayerHandler
}

// NewEventHandler creates an event handler. layers may be nil, in which case
// only the custom events are sent.
func NewEventHandler(bus *service.EventBus, layers *LayerHandler) *EventHandler {
	h := &EventHandler{bus: bus, layers: layers}
	if layers != nil {
		h.Renderer = layers.Renderer
	}
	return h
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Resource == "layers" && h.layers != nil {
					sse.Patch(h.layers.renderLayerList(), "#layer-list")
				}
				sse.DispatchCustomEvent("resource-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}
