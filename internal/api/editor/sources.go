package editor

import (
	"bytes"
	"context"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-heat/internal/humastar"
	"github.com/joeblew999/plat-heat/internal/service"
	"github.com/joeblew999/plat-heat/internal/templates"
)

type SourceHandler struct {
	humastar.Handler
	sourceService *service.SourceService
}

func NewSourceHandler(sourceService *service.SourceService, renderer *templates.Renderer) *SourceHandler {
	return &SourceHandler{
		Handler:       humastar.Handler{Renderer: renderer},
		sourceService: sourceService,
	}
}

func (h *SourceHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/sources", h.ListSources, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sources/upload", h.Upload, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/sources/{filename}", h.Delete, huma.OperationTags("editor"))
}

type SourceUploadInput struct {
	RawBody multipart.Form
}

func (h *SourceHandler) Upload(ctx context.Context, input *SourceUploadInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		files := input.RawBody.File["file"]
		if len(files) == 0 {
			sse.Error("No file provided")
			return
		}

		fileHeader := files[0]
		file, err := fileHeader.Open()
		if err != nil {
			sse.Error("Failed to open uploaded file")
			return
		}
		defer file.Close()

		if err := h.sourceService.Save(fileHeader.Filename, file); err != nil {
			sse.Error(err.Error())
			return
		}

		sse.Success("File uploaded: " + fileHeader.Filename)
		h.patchSources(sse)
		sse.DispatchCustomEvent("resource-changed", map[string]any{
			"resource": "sources", "action": "created", "id": fileHeader.Filename,
		})
	}), nil
}

type SourceDeleteInput struct {
	Filename string `path:"filename" doc:"Source filename to delete"`
}

func (h *SourceHandler) Delete(ctx context.Context, input *SourceDeleteInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.sourceService.Delete(input.Filename); err != nil {
			sse.Error(err.Error())
			return
		}

		sse.Success("Deleted: " + input.Filename)
		h.patchSources(sse)
		sse.DispatchCustomEvent("resource-changed", map[string]any{
			"resource": "sources", "action": "deleted", "id": input.Filename,
		})
	}), nil
}

func (h *SourceHandler) ListSources(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.patchSources), nil
}

func (h *SourceHandler) patchSources(sse humastar.SSE) {
	sources, err := h.sourceService.List()
	if err != nil {
		sse.Error("Failed to list sources: " + err.Error())
		return
	}
	sse.Patch(h.renderSourceList(sources), "#source-list")
}

func (h *SourceHandler) renderSourceList(sources []service.SourceFile) string {
	if len(sources) == 0 {
		return h.Render("empty-state", map[string]string{
			"Title": "No Source Files", "Message": "Upload a GeoJSON file using the form above.",
		})
	}
	var buf bytes.Buffer
	for _, s := range sources {
		buf.WriteString(h.Render("source-card", s))
	}
	return buf.String()
}
