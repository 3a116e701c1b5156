package service

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

func densityOptions() heatmap.Options {
	return heatmap.Options{Property: "density", Thresholds: []float64{50, 100}, Color: "#ff8000"}
}

func TestLayerService_CRUD(t *testing.T) {
	dir := t.TempDir()
	s := NewLayerService(dir, nil)

	created, err := s.Create(LayerConfig{Name: "Italy Density", File: "italy.geojson", GeomType: "polygon"})
	require.NoError(t, err)
	assert.Equal(t, "italy_density", created.ID)
	assert.Empty(t, created.StyleSet)

	got, ok := s.Get("italy_density")
	require.True(t, ok)
	assert.Equal(t, "Italy Density", got.Name)

	_, err = s.Create(LayerConfig{Name: "Italy Density", File: "x.geojson", GeomType: "polygon"})
	assert.True(t, eris.Is(err, ErrLayerExists))

	updated, err := s.Update("italy_density", LayerConfig{Name: "Renamed", File: "italy.geojson", GeomType: "polygon"})
	require.NoError(t, err)
	assert.Equal(t, "italy_density", updated.ID)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = s.Update("missing", LayerConfig{Name: "x"})
	assert.True(t, eris.Is(err, ErrLayerNotFound))

	require.NoError(t, s.Delete("italy_density"))
	assert.True(t, eris.Is(s.Delete("italy_density"), ErrLayerNotFound))
	assert.Empty(t, s.List())
}

func TestLayerService_CreateWithHeatmap(t *testing.T) {
	s := NewLayerService(t.TempDir(), nil)
	opts := densityOptions()

	layer, err := s.Create(LayerConfig{Name: "d", File: "a.geojson", GeomType: "polygon", Heatmap: &opts})
	require.NoError(t, err)
	require.Len(t, layer.StyleSet, 2)
	assert.Equal(t, []RenderRule{
		{FilterProp: "density", Min: 0, Max: 50, Fill: "#bf6000"},
		{FilterProp: "density", Min: 50, Max: 100, Fill: "#ff8000"},
	}, layer.RenderRules)
	assert.Equal(t, []LegendItem{
		{Label: "0 - 50", Color: "#bf6000"},
		{Label: "50 - 100", Color: "#ff8000"},
	}, layer.Legend)
}

func TestLayerService_CreateRejectsInvalidHeatmap(t *testing.T) {
	s := NewLayerService(t.TempDir(), nil)
	bad := heatmap.Options{Property: "density", Thresholds: []float64{100, 50}, Color: "#ff8000"}

	_, err := s.Create(LayerConfig{Name: "d", File: "a.geojson", GeomType: "polygon", Heatmap: &bad})
	assert.True(t, eris.Is(err, heatmap.ErrInvalidInput))
	assert.Empty(t, s.List())
}

func TestLayerService_ApplyHeatmap(t *testing.T) {
	dir := t.TempDir()
	bus := NewEventBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	s := NewLayerService(dir, bus)
	_, err := s.Create(LayerConfig{Name: "d", File: "a.geojson", GeomType: "polygon"})
	require.NoError(t, err)
	assert.Equal(t, Event{Resource: "layers", Action: "created", ID: "d"}, <-ch)

	layer, err := s.ApplyHeatmap("d", densityOptions())
	require.NoError(t, err)
	require.NotNil(t, layer.Heatmap)
	assert.Len(t, layer.StyleSet, 2)
	assert.Equal(t, Event{Resource: "layers", Action: "updated", ID: "d"}, <-ch)

	// Invalid options leave the stored layer untouched.
	_, err = s.ApplyHeatmap("d", heatmap.Options{Property: "", Thresholds: []float64{1}, Color: "#fff"})
	assert.True(t, eris.Is(err, heatmap.ErrInvalidInput))
	stored, _ := s.Get("d")
	assert.Len(t, stored.StyleSet, 2)

	_, err = s.ApplyHeatmap("missing", densityOptions())
	assert.True(t, eris.Is(err, ErrLayerNotFound))

	// Reload from disk keeps the generated style set.
	reloaded, ok := NewLayerService(dir, nil).Get("d")
	require.True(t, ok)
	assert.Equal(t, layer.StyleSet, reloaded.StyleSet)
	assert.Equal(t, layer.Legend, reloaded.Legend)
}

func TestLayerService_EmptyID(t *testing.T) {
	s := NewLayerService(t.TempDir(), nil)
	_, err := s.Create(LayerConfig{Name: "!!!", File: "a.geojson", GeomType: "polygon"})
	assert.True(t, eris.Is(err, heatmap.ErrInvalidInput))
}

func TestGenerateID(t *testing.T) {
	assert.Equal(t, "my_layer_2", generateID("My Layer 2"))
	assert.Equal(t, "abc", generateID("a-b.c"))
}
