package heatmap

import (
	"math"
	"strings"
)

// Options describes a heatmap declaratively.
type Options struct {
	Property   string    `json:"property" yaml:"property" mapstructure:"property" required:"true" minLength:"1" doc:"Numeric feature property" example:"density"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds" required:"true" minItems:"1" doc:"Strictly ascending bucket upper bounds" example:"[50,100,150]"`
	Color      string    `json:"color" yaml:"color" mapstructure:"color" required:"true" doc:"Base color (hex)" example:"#ff6600"`
}

// ScaleFactor is the color multiplier for bucket i of n. It rises from
// just above 0.5 to exactly 1 at the last bucket.
func ScaleFactor(i, n int) float64 {
	return float64(i+1)/2/float64(n) + 0.5
}

// Generate builds one rule per threshold. Rule i matches polygons whose
// property is in (thresholds[i-1], thresholds[i]], with 0 as the lower bound
// of the first rule. Values at or below 0 and above the last threshold match
// no rule, so a first threshold at or below 0 yields a rule that never matches.
func Generate(property string, thresholds []float64, base Color) (StyleSet, error) {
	if err := validate(property, thresholds); err != nil {
		return nil, err
	}

	n := len(thresholds)
	set := make(StyleSet, n)
	for i, max := range thresholds {
		min := 0.0
		if i > 0 {
			min = thresholds[i-1]
		}
		set[i] = StyleRule{
			Description: RuleDescription,
			When: Predicate{
				GeometryType: Polygon,
				Property:     property,
				Min:          min,
				Max:          max,
			},
			RenderOrder: RenderOrder,
			Technique:   TechniqueFill,
			Attr:        Attr{Color: base.Scale(ScaleFactor(i, n)).Hex()},
		}
	}
	return set, nil
}

// GenerateOptions parses the base color and calls Generate.
func GenerateOptions(o Options) (StyleSet, error) {
	base, err := ParseColor(o.Color)
	if err != nil {
		return nil, err
	}
	return Generate(o.Property, o.Thresholds, base)
}

func validate(property string, thresholds []float64) error {
	if property == "" {
		return invalid("property name is empty")
	}
	if strings.ContainsAny(property, " \t\r\n'") {
		return invalid("property name %q contains whitespace or quotes", property)
	}
	if len(thresholds) == 0 {
		return invalid("no thresholds")
	}
	for i, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return invalid("threshold %d is not finite", i)
		}
		if i > 0 && !(t > thresholds[i-1]) {
			return invalid("threshold %d (%v) must be greater than %v", i, t, thresholds[i-1])
		}
	}
	return nil
}
