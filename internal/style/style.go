// Package style maps feature attributes to visual encodings. Styling is a
// pure transformation: it produces a styled layer description and leaves
// the source collection untouched.
package style

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/cartolab/geopipe/internal/geo"
)

// Style is one visual encoding for a feature: stroke, fill and point size.
type Style struct {
	Color     string  `yaml:"color,omitempty"`
	FillColor string  `yaml:"fill_color,omitempty"`
	Radius    float64 `yaml:"radius,omitempty"`
	Weight    float64 `yaml:"weight,omitempty"`
	Opacity   float64 `yaml:"opacity,omitempty"`
}

// Categorical assigns styles by the value of one attribute field, with a
// default for unmatched values.
type Categorical struct {
	Field      string           `yaml:"field"`
	Categories map[string]Style `yaml:"categories"`
	Default    Style            `yaml:"default"`
}

// LegendEntry is one legend row, in stable category order.
type LegendEntry struct {
	Label string
	Style Style
}

// Layer is a styled layer description: the collection, one resolved style
// per feature, and the legend derived from the categories.
type Layer struct {
	Name       string
	Collection *geo.FeatureCollection
	Styles     []Style
	Legend     []LegendEntry
}

// Apply resolves the categorical mapping against every feature.
func (c Categorical) Apply(name string, fc *geo.FeatureCollection) Layer {
	styles := make([]Style, len(fc.Features))
	for i, f := range fc.Features {
		styles[i] = c.resolve(f.Props)
	}

	return Layer{
		Name:       name,
		Collection: fc,
		Styles:     styles,
		Legend:     c.legend(),
	}
}

// Uniform builds a single-style layer with no legend breakdown.
func Uniform(name string, fc *geo.FeatureCollection, s Style) Layer {
	styles := make([]Style, len(fc.Features))
	for i := range styles {
		styles[i] = s.withDefaults()
	}
	return Layer{
		Name:       name,
		Collection: fc,
		Styles:     styles,
		Legend:     []LegendEntry{{Label: name, Style: s.withDefaults()}},
	}
}

func (c Categorical) resolve(props map[string]interface{}) Style {
	if c.Field != "" && props != nil {
		if v, ok := props[c.Field]; ok {
			key := fmt.Sprintf("%v", v)
			if s, ok := c.Categories[key]; ok {
				return s.withDefaults()
			}
		}
	}
	return c.Default.withDefaults()
}

func (c Categorical) legend() []LegendEntry {
	keys := make([]string, 0, len(c.Categories))
	for k := range c.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]LegendEntry, 0, len(keys)+1)
	for _, k := range keys {
		entries = append(entries, LegendEntry{Label: k, Style: c.Categories[k].withDefaults()})
	}
	if c.Default != (Style{}) {
		entries = append(entries, LegendEntry{Label: "other", Style: c.Default.withDefaults()})
	}
	return entries
}

func (s Style) withDefaults() Style {
	if s.Color == "" {
		s.Color = "#3388ff"
	}
	if s.FillColor == "" {
		s.FillColor = s.Color
	}
	if s.Radius <= 0 {
		s.Radius = 5
	}
	if s.Weight <= 0 {
		s.Weight = 2
	}
	if s.Opacity <= 0 || s.Opacity > 1 {
		s.Opacity = 1
	}
	return s
}

// StrokeColor parses the stroke color as RGBA with the style opacity.
func (s Style) StrokeColor() color.NRGBA {
	return parseHex(s.Color, s.Opacity)
}

// FillRGBA parses the fill color; fills render at half the stroke opacity.
func (s Style) FillRGBA() color.NRGBA {
	return parseHex(s.FillColor, s.Opacity*0.5)
}

func parseHex(hex string, opacity float64) color.NRGBA {
	c := color.NRGBA{R: 0x33, G: 0x88, B: 0xff, A: 0xff}
	if len(hex) == 7 && hex[0] == '#' {
		var r, g, b uint8
		if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			c = color.NRGBA{R: r, G: g, B: b, A: 0xff}
		}
	}
	c.A = uint8(opacity * 255)
	return c
}
