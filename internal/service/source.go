package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

var (
	// ErrSourceNotFound is returned for unknown source files.
	ErrSourceNotFound = eris.New("service: source not found")
	// ErrInvalidSource is returned for bad file names or unparsable GeoJSON.
	ErrInvalidSource = eris.New("service: invalid source")
)

// Supported source file extensions and their types
var sourceTypes = map[string]string{
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
}

// SourceService manages GeoJSON source files.
type SourceService struct {
	sourcesDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
	}
}

// List returns all available source files, sorted by name.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, eris.Wrap(err, "service: read sources dir")
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileType, ok := sourceTypes[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Save writes an uploaded source file.
func (s *SourceService) Save(name string, r io.Reader) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.sourcesDir, 0755); err != nil {
		return eris.Wrap(err, "service: create sources dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "service: create %s", name)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return eris.Wrapf(err, "service: write %s", name)
	}
	return nil
}

// Delete removes a source file.
func (s *SourceService) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrSourceNotFound, "source %q", name)
		}
		return eris.Wrapf(err, "service: delete %s", name)
	}
	return nil
}

// Path returns the absolute location of a source after validating its name.
func (s *SourceService) Path(name string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", eris.Wrapf(ErrSourceNotFound, "source %q", name)
		}
		return "", eris.Wrapf(err, "service: stat %s", name)
	}
	return path, nil
}

// Load parses a source file as a GeoJSON feature collection.
func (s *SourceService) Load(name string) (*geojson.FeatureCollection, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "service: read %s", name)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidSource, "source %q: %v", name, err)
	}
	return fc, nil
}

// Values returns the numeric values of property across all features.
// Features without a numeric value are skipped.
func (s *SourceService) Values(name, property string) ([]float64, error) {
	fc, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(fc.Features))
	for _, f := range fc.Features {
		if v, ok := heatmap.Number(f.Properties[property]); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// Classify counts the features of a source matched by each rule.
func (s *SourceService) Classify(name string, ss heatmap.StyleSet) (Classification, error) {
	fc, err := s.Load(name)
	if err != nil {
		return Classification{}, err
	}

	c := Classification{
		Source:  name,
		Total:   len(fc.Features),
		Buckets: make([]BucketCount, len(ss)),
	}
	for i, r := range ss {
		c.Buckets[i] = BucketCount{Min: r.When.Min, Max: r.When.Max, Color: r.Attr.Color}
	}
	for _, f := range fc.Features {
		i, ok := ss.MatchFeature(f)
		if !ok {
			c.Unmatched++
			continue
		}
		c.Buckets[i].Count++
	}
	return c, nil
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

func (s *SourceService) path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", eris.Wrapf(ErrInvalidSource, "invalid filename %q", name)
	}
	if _, ok := sourceTypes[strings.ToLower(filepath.Ext(name))]; !ok {
		return "", eris.Wrapf(ErrInvalidSource, "unsupported file type %q", filepath.Ext(name))
	}
	return filepath.Join(s.sourcesDir, name), nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
