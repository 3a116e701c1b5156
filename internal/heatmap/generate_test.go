package heatmap

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orange = MustParseColor("#ff6600")

func TestGenerate_TwoBuckets(t *testing.T) {
	ss, err := Generate("density", []float64{50, 100}, MustParseColor("#ff8000"))
	require.NoError(t, err)
	require.Len(t, ss, 2)

	assert.Equal(t, "type == 'polygon' && properties.density > 0 && properties.density <= 50", ss[0].When.String())
	assert.Equal(t, "type == 'polygon' && properties.density > 50 && properties.density <= 100", ss[1].When.String())
	assert.Equal(t, "#bf6000", ss[0].Attr.Color)
	assert.Equal(t, "#ff8000", ss[1].Attr.Color)

	for _, r := range ss {
		assert.Equal(t, RuleDescription, r.Description)
		assert.Equal(t, 1000, r.RenderOrder)
		assert.Equal(t, "fill", r.Technique)
	}
}

func TestGenerate_RuleCountAndContiguity(t *testing.T) {
	thresholds := []float64{50, 100, 150, 200, 250, 300, 350, 400, 450}
	ss, err := Generate("density", thresholds, orange)
	require.NoError(t, err)
	require.Len(t, ss, len(thresholds))

	assert.Equal(t, 0.0, ss[0].When.Min)
	for i := range ss {
		assert.Equal(t, thresholds[i], ss[i].When.Max)
		if i > 0 {
			assert.Equal(t, ss[i-1].When.Max, ss[i].When.Min, "rule %d", i)
		}
	}
}

func TestGenerate_SingleThreshold(t *testing.T) {
	ss, err := Generate("pop", []float64{10}, orange)
	require.NoError(t, err)
	require.Len(t, ss, 1)
	// N=1 gives a factor of exactly 1.
	assert.Equal(t, "#ff6600", ss[0].Attr.Color)
}

func TestGenerate_NonPositiveFirstThreshold(t *testing.T) {
	for _, thresholds := range [][]float64{{0, 10}, {-5, 10}} {
		ss, err := Generate("density", thresholds, orange)
		require.NoError(t, err, "thresholds %v", thresholds)
		require.Len(t, ss, 2)
		assert.Equal(t, 0.0, ss[0].When.Min)
		assert.Equal(t, thresholds[0], ss[0].When.Max)
		assert.Equal(t, thresholds[0], ss[1].When.Min)
		assert.Equal(t, 10.0, ss[1].When.Max)
	}

	ss, err := Generate("density", []float64{-5, 10}, orange)
	require.NoError(t, err)
	assert.Equal(t, "type == 'polygon' && properties.density > 0 && properties.density <= -5", ss[0].When.String())
	_, ok := ss.Match(Polygon, map[string]any{"density": -5.0})
	assert.False(t, ok)

	data, err := json.Marshal(ss)
	require.NoError(t, err)
	var back StyleSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ss, back)
}

func TestGenerate_DensityPresetColors(t *testing.T) {
	ss, err := Generate("density", []float64{50, 100, 150, 200, 250, 300, 350, 400, 450}, orange)
	require.NoError(t, err)

	var got []string
	for _, r := range ss {
		got = append(got, r.Attr.Color)
	}
	assert.Equal(t, []string{
		"#8d3800", "#9b3e00", "#aa4400", "#b84900", "#c64f00",
		"#d45500", "#e25a00", "#f06000", "#ff6600",
	}, got)
}

func TestScaleFactor_StrictlyIncreasing(t *testing.T) {
	for _, n := range []int{2, 3, 9, 100} {
		prev := 0.0
		for i := 0; i < n; i++ {
			f := ScaleFactor(i, n)
			assert.Greater(t, f, prev, "n=%d i=%d", n, i)
			assert.Greater(t, f, 0.5)
			assert.LessOrEqual(t, f, 1.0)
			prev = f
		}
		assert.Equal(t, 1.0, ScaleFactor(n-1, n))
	}
	assert.Equal(t, 0.75, ScaleFactor(0, 2))
}

func TestGenerate_InvalidInput(t *testing.T) {
	cases := map[string]struct {
		property   string
		thresholds []float64
	}{
		"empty thresholds": {"density", nil},
		"empty property":   {"", []float64{50}},
		"spaced property":  {"pop density", []float64{50}},
		"equal thresholds": {"density", []float64{50, 50}},
		"descending":       {"density", []float64{100, 50}},
		"nan":              {"density", []float64{50, math.NaN()}},
		"infinite":         {"density", []float64{math.Inf(1)}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ss, err := Generate(tc.property, tc.thresholds, orange)
			assert.Nil(t, ss)
			assert.True(t, eris.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	a, err := Generate("density", []float64{1.5, 2.25, 10}, orange)
	require.NoError(t, err)
	b, err := Generate("density", []float64{1.5, 2.25, 10}, orange)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_Concurrent(t *testing.T) {
	want, err := Generate("density", []float64{50, 100, 150}, orange)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Generate("density", []float64{50, 100, 150}, orange)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestGenerateOptions(t *testing.T) {
	ss, err := GenerateOptions(Options{Property: "density", Thresholds: []float64{50}, Color: "#ff6600"})
	require.NoError(t, err)
	assert.Len(t, ss, 1)

	_, err = GenerateOptions(Options{Property: "density", Thresholds: []float64{50}, Color: "orange"})
	assert.True(t, eris.Is(err, ErrInvalidInput))
}

func TestStyleSet_JSON(t *testing.T) {
	ss, err := Generate("density", []float64{50, 100}, orange)
	require.NoError(t, err)

	data, err := json.Marshal(ss)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "type == 'polygon' && properties.density > 50 && properties.density <= 100", raw[1]["when"])
	assert.Equal(t, float64(1000), raw[1]["renderOrder"])
	assert.Equal(t, "fill", raw[1]["technique"])

	var back StyleSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ss, back)
}
