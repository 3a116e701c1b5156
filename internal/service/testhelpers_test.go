package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const regionsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "a", "density": 20},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "properties": {"name": "b", "density": 75},
     "geometry": {"type": "Polygon", "coordinates": [[[1,1],[2,1],[2,2],[1,1]]]}},
    {"type": "Feature", "properties": {"name": "c", "density": "90"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[2,2],[3,2],[3,3],[2,2]]]]}},
    {"type": "Feature", "properties": {"name": "d", "density": 500},
     "geometry": {"type": "Polygon", "coordinates": [[[3,3],[4,3],[4,4],[3,3]]]}},
    {"type": "Feature", "properties": {"name": "e"},
     "geometry": {"type": "Polygon", "coordinates": [[[4,4],[5,4],[5,5],[4,4]]]}}
  ]
}`

// writeSource drops a GeoJSON file into dataDir/sources.
func writeSource(t *testing.T, dataDir, name, body string) {
	t.Helper()
	dir := filepath.Join(dataDir, "sources")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}
