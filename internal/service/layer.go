package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

var (
	// ErrLayerNotFound is returned for unknown layer IDs.
	ErrLayerNotFound = eris.New("service: layer not found")
	// ErrLayerExists is returned when creating a layer whose ID is taken.
	ErrLayerExists = eris.New("service: layer already exists")
)

// LayerService manages layer configurations.
type LayerService struct {
	dataDir string
	bus     *EventBus
	layers  map[string]LayerConfig
	mu      sync.RWMutex
}

// NewLayerService creates a new layer service. A nil bus disables events.
func NewLayerService(dataDir string, bus *EventBus) *LayerService {
	s := &LayerService{
		dataDir: dataDir,
		bus:     bus,
		layers:  make(map[string]LayerConfig),
	}
	s.loadFromDisk()
	return s
}

// List returns all layer configurations.
func (s *LayerService) List() map[string]LayerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]LayerConfig, len(s.layers))
	for k, v := range s.layers {
		result[k] = v
	}
	return result
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (LayerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	return layer, ok
}

// Create adds a new layer configuration.
func (s *LayerService) Create(layer LayerConfig) (LayerConfig, error) {
	if err := styleLayer(&layer); err != nil {
		return LayerConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Generate ID from name if not provided
	if layer.ID == "" {
		layer.ID = generateID(layer.Name)
	}
	if layer.ID == "" {
		return LayerConfig{}, eris.Wrapf(heatmap.ErrInvalidInput, "layer name %q yields an empty id", layer.Name)
	}

	if _, exists := s.layers[layer.ID]; exists {
		return LayerConfig{}, eris.Wrapf(ErrLayerExists, "layer %q", layer.ID)
	}

	s.layers[layer.ID] = layer
	if err := s.saveToDisk(); err != nil {
		delete(s.layers, layer.ID)
		return LayerConfig{}, err
	}

	s.publish("created", layer.ID)
	return layer, nil
}

// Update replaces a layer configuration by ID.
func (s *LayerService) Update(id string, layer LayerConfig) (LayerConfig, error) {
	if err := styleLayer(&layer); err != nil {
		return LayerConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return LayerConfig{}, eris.Wrapf(ErrLayerNotFound, "layer %q", id)
	}

	layer.ID = id
	s.layers[id] = layer
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return LayerConfig{}, err
	}

	s.publish("updated", id)
	return layer, nil
}

// ApplyHeatmap generates a style set from opts and attaches it to the layer.
func (s *LayerService) ApplyHeatmap(id string, opts heatmap.Options) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, exists := s.layers[id]
	if !exists {
		return LayerConfig{}, eris.Wrapf(ErrLayerNotFound, "layer %q", id)
	}

	prev := layer
	layer.Heatmap = &opts
	if err := styleLayer(&layer); err != nil {
		return LayerConfig{}, err
	}

	s.layers[id] = layer
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return LayerConfig{}, err
	}

	zap.L().Info("heatmap applied",
		zap.String("layer", id),
		zap.String("property", opts.Property),
		zap.Int("buckets", len(layer.StyleSet)),
	)
	s.publish("updated", id)
	return layer, nil
}

// Delete removes a layer by ID.
func (s *LayerService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return eris.Wrapf(ErrLayerNotFound, "layer %q", id)
	}

	delete(s.layers, id)
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return err
	}

	s.publish("deleted", id)
	return nil
}

func (s *LayerService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "layers", Action: action, ID: id})
	}
}

// styleLayer regenerates the derived styling fields from the heatmap block.
// Layers without one keep no style set.
func styleLayer(layer *LayerConfig) error {
	layer.StyleSet, layer.RenderRules, layer.Legend = nil, nil, nil
	if layer.Heatmap == nil {
		return nil
	}

	ss, err := heatmap.GenerateOptions(*layer.Heatmap)
	if err != nil {
		return err
	}

	layer.StyleSet = ss
	layer.RenderRules = make([]RenderRule, len(ss))
	layer.Legend = make([]LegendItem, len(ss))
	for i, r := range ss {
		layer.RenderRules[i] = RenderRule{
			FilterProp: r.When.Property,
			Min:        r.When.Min,
			Max:        r.When.Max,
			Fill:       r.Attr.Color,
		}
		layer.Legend[i] = LegendItem{
			Label: Label(r.When.Min, r.When.Max),
			Color: r.Attr.Color,
		}
	}
	return nil
}

// Label formats a bucket range for legends.
func Label(min, max float64) string {
	return fmt.Sprintf("%g - %g", min, max)
}

// configFile returns the path to the layers config file.
func (s *LayerService) configFile() string {
	return filepath.Join(s.dataDir, "layers.json")
}

// loadFromDisk loads layer configurations from disk.
func (s *LayerService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return // File doesn't exist yet, start empty
	}

	var layers map[string]LayerConfig
	if err := json.Unmarshal(data, &layers); err != nil {
		zap.L().Warn("ignoring unreadable layers file",
			zap.String("path", s.configFile()), zap.Error(err))
		return
	}
	if layers != nil {
		s.layers = layers
	}
}

// saveToDisk persists layer configurations to disk.
func (s *LayerService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return eris.Wrap(err, "service: create data dir")
	}

	data, err := json.MarshalIndent(s.layers, "", "  ")
	if err != nil {
		return eris.Wrap(err, "service: marshal layers")
	}

	if err := os.WriteFile(s.configFile(), data, 0644); err != nil {
		return eris.Wrap(err, "service: write layers")
	}
	return nil
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	// Remove any characters that aren't alphanumeric or underscore
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
