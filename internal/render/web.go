package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/png"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/raster"
	"github.com/cartolab/geopipe/internal/style"
)

// RenderWeb finalizes the composition into a self-contained Leaflet HTML
// artifact: tile basemap, one toggleable overlay per layer, legend, popups
// and fullscreen/reset controls. The page is minified before writing.
func RenderWeb(m *Map, path string) error {
	page, err := buildPage(m)
	if err != nil {
		return err
	}

	min := minify.New()
	min.AddFunc("text/html", html.Minify)
	min.AddFunc("text/css", css.Minify)
	min.AddFunc("text/javascript", js.Minify)

	out, err := min.String("text/html", page)
	if err != nil {
		return fmt.Errorf("minify web map: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return err
	}

	log.Info().
		Str("path", path).
		Int("layers", len(m.layers)).
		Int("bytes", len(out)).
		Msg("Web map written")

	return nil
}

type webLayer struct {
	Name    string
	GeoJSON template.JS
	Legend  []style.LegendEntry
}

type webRaster struct {
	Name    string
	DataURI template.URL
	// [[south, west], [north, east]] for L.imageOverlay
	South, West, North, East float64
}

// webOverlay is one composition entry in draw order: exactly one of the
// two fields is set.
type webOverlay struct {
	Layer  *webLayer
	Raster *webRaster
}

type webPage struct {
	Title       string
	Attribution string
	Overlays    []webOverlay
	HasBounds   bool
	South, West float64
	North, East float64
}

func buildPage(m *Map) (string, error) {
	if len(m.layers) == 0 {
		return "", fmt.Errorf("web map has no layers")
	}

	page := webPage{
		Title:       m.Title,
		Attribution: m.Attribution,
	}

	// Overlays keep m.layers order so the last-added layer ends up on top
	// of the Leaflet pane stack.
	for _, l := range m.layers {
		switch {
		case l.Vector != nil:
			wl, err := buildWebLayer(l.Vector)
			if err != nil {
				return "", fmt.Errorf("layer %s: %w", l.Name, err)
			}
			page.Overlays = append(page.Overlays, webOverlay{Layer: &wl})
		case l.Raster != nil:
			wr, err := buildWebRaster(l.Name, l)
			if err != nil {
				return "", fmt.Errorf("raster %s: %w", l.Name, err)
			}
			page.Overlays = append(page.Overlays, webOverlay{Raster: &wr})
		}
	}

	if b, ok := m.viewBounds(); ok {
		page.HasBounds = true
		page.West, page.South = b.Min[0], b.Min[1]
		page.East, page.North = b.Max[0], b.Max[1]
	}

	var buf bytes.Buffer
	if err := webTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("render web template: %w", err)
	}
	return buf.String(), nil
}

// buildWebLayer exports a styled layer as GeoJSON with the resolved style
// attached to each feature under a reserved property.
func buildWebLayer(l *style.Layer) (webLayer, error) {
	styled := geo.NewFeatureCollection(l.Collection.CRS)
	styled.Features = make([]geo.Feature, 0, len(l.Collection.Features))

	for i, f := range l.Collection.Features {
		props := make(map[string]interface{}, len(f.Props)+1)
		for k, v := range f.Props {
			props[k] = v
		}
		s := l.Styles[i]
		props["__style"] = map[string]interface{}{
			"color":       s.Color,
			"fillColor":   s.FillColor,
			"radius":      s.Radius,
			"weight":      s.Weight,
			"opacity":     s.Opacity,
			"fillOpacity": s.Opacity * 0.5,
		}
		styled.Append(f.Geom, props)
	}

	data, err := geo.MarshalGeoJSON(styled)
	if err != nil {
		return webLayer{}, err
	}

	return webLayer{
		Name:    l.Name,
		GeoJSON: template.JS(data),
		Legend:  l.Legend,
	}, nil
}

// buildWebRaster warps the raster to lon/lat and inlines it as a PNG data
// URI so the artifact stays a single file.
func buildWebRaster(name string, l Layer) (webRaster, error) {
	warped, err := l.Raster.Warp(geo.WGS84, l.Raster.Image.Bounds().Dx())
	if err != nil {
		return webRaster{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, warped.Image); err != nil {
		return webRaster{}, err
	}

	minX, minY, maxX, maxY := warped.Bound()
	return webRaster{
		Name:    name,
		DataURI: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())),
		South:   minY,
		West:    minX,
		North:   maxY,
		East:    maxX,
	}, nil
}

// rasterViewBound projects a grid's corner extent to WGS84.
func rasterViewBound(g *raster.Grid) (orb.Bound, error) {
	minX, minY, maxX, maxY := g.Bound()

	fc := geo.NewFeatureCollection(g.CRS)
	fc.Append(orb.Point{minX, minY}, nil)
	fc.Append(orb.Point{minX, maxY}, nil)
	fc.Append(orb.Point{maxX, minY}, nil)
	fc.Append(orb.Point{maxX, maxY}, nil)

	wgs, err := geo.Reproject(fc, geo.WGS84)
	if err != nil {
		return orb.Bound{}, err
	}
	return wgs.Bound(), nil
}

// viewBounds returns the WGS84 extent used for the initial view and the
// reset control: the explicit bounds if set, otherwise the union of every
// layer and raster extent.
func (m *Map) viewBounds() (b struct{ Min, Max [2]float64 }, ok bool) {
	if m.hasBound {
		return struct{ Min, Max [2]float64 }{
			Min: [2]float64{m.bound.Min[0], m.bound.Min[1]},
			Max: [2]float64{m.bound.Max[0], m.bound.Max[1]},
		}, true
	}

	first := true
	for _, l := range m.layers {
		var lb orb.Bound
		switch {
		case l.Vector != nil && l.Vector.Collection.Len() > 0:
			wgs, err := geo.Reproject(l.Vector.Collection, geo.WGS84)
			if err != nil {
				continue
			}
			lb = wgs.Bound()
		case l.Raster != nil:
			rb, err := rasterViewBound(l.Raster)
			if err != nil {
				continue
			}
			lb = rb
		default:
			continue
		}
		if first {
			b.Min = [2]float64{lb.Min[0], lb.Min[1]}
			b.Max = [2]float64{lb.Max[0], lb.Max[1]}
			first = false
			continue
		}
		if lb.Min[0] < b.Min[0] {
			b.Min[0] = lb.Min[0]
		}
		if lb.Min[1] < b.Min[1] {
			b.Min[1] = lb.Min[1]
		}
		if lb.Max[0] > b.Max[0] {
			b.Max[0] = lb.Max[0]
		}
		if lb.Max[1] > b.Max[1] {
			b.Max[1] = lb.Max[1]
		}
	}
	return b, !first
}

var webTemplate = template.Must(template.New("webmap").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.legend {
  background: #fff;
  padding: 8px 10px;
  border-radius: 4px;
  box-shadow: 0 1px 4px rgba(0,0,0,0.3);
  font: 12px/1.5 sans-serif;
}
.legend h4 { margin: 0 0 4px; }
.legend i {
  display: inline-block;
  width: 12px;
  height: 12px;
  margin-right: 6px;
  border-radius: 50%;
  vertical-align: middle;
}
.map-btn {
  background: #fff;
  width: 30px;
  height: 30px;
  line-height: 30px;
  text-align: center;
  cursor: pointer;
  display: block;
  font-size: 16px;
  text-decoration: none;
  color: #333;
}
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map');

var base = L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: {{if .Attribution}}{{.Attribution}}{{else}}'&copy; OpenStreetMap contributors'{{end}}
});
base.addTo(map);

var overlays = {};

{{range .Overlays}}{{if .Raster}}{{with .Raster}}
overlays[{{.Name}}] = L.imageOverlay({{.DataURI}}, [[{{.South}}, {{.West}}], [{{.North}}, {{.East}}]], {opacity: 0.8}).addTo(map);
{{end}}{{else}}{{with .Layer}}
(function() {
  var data = {{.GeoJSON}};
  var layer = L.geoJSON(data, {
    style: function(f) { return f.properties.__style; },
    pointToLayer: function(f, latlng) {
      return L.circleMarker(latlng, f.properties.__style);
    },
    onEachFeature: function(f, l) {
      var rows = [];
      for (var k in f.properties) {
        if (k === '__style') continue;
        rows.push('<b>' + k + '</b>: ' + f.properties[k]);
      }
      if (rows.length) l.bindPopup(rows.join('<br>'));
    }
  });
  overlays[{{.Name}}] = layer;
  layer.addTo(map);
})();
{{end}}{{end}}{{end}}

L.control.layers({'OpenStreetMap': base}, overlays, {collapsed: false}).addTo(map);

var legend = L.control({position: 'bottomright'});
legend.onAdd = function() {
  var div = L.DomUtil.create('div', 'legend');
  div.innerHTML = '{{if .Title}}<h4>{{.Title}}</h4>{{end}}' +
  {{range .Overlays}}{{with .Layer}}
    '<b>' + {{.Name}} + '</b><br>' +
    {{range .Legend}}'<i style="background:{{.Style.Color}}"></i>' + {{.Label}} + '<br>' +
    {{end}}
  {{end}}{{end}}
    '';
  return div;
};
legend.addTo(map);

{{if .HasBounds}}
var home = [[{{.South}}, {{.West}}], [{{.North}}, {{.East}}]];
map.fitBounds(home, {padding: [20, 20]});
{{else}}
var home = null;
map.setView([0, 0], 2);
{{end}}

var controls = L.control({position: 'topleft'});
controls.onAdd = function() {
  var div = L.DomUtil.create('div', 'leaflet-bar');

  var full = L.DomUtil.create('a', 'map-btn', div);
  full.innerHTML = '⛶';
  full.title = 'Toggle fullscreen';
  full.href = '#';
  L.DomEvent.on(full, 'click', function(e) {
    L.DomEvent.preventDefault(e);
    if (document.fullscreenElement) {
      document.exitFullscreen();
    } else {
      document.getElementById('map').requestFullscreen();
    }
  });

  var reset = L.DomUtil.create('a', 'map-btn', div);
  reset.innerHTML = '⌂';
  reset.title = 'Reset view';
  reset.href = '#';
  L.DomEvent.on(reset, 'click', function(e) {
    L.DomEvent.preventDefault(e);
    if (home) {
      map.fitBounds(home, {padding: [20, 20]});
    } else {
      map.setView([0, 0], 2);
    }
  });

  return div;
};
controls.addTo(map);
</script>
</body>
</html>
`))
