package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/style"
)

// StaticOptions controls static rendering.
type StaticOptions struct {
	Width      int
	Height     int
	Background color.NRGBA
	Padding    float64 // fraction of the extent kept free around layers
}

func (o StaticOptions) withDefaults() StaticOptions {
	if o.Width <= 0 {
		o.Width = 1600
	}
	if o.Height <= 0 {
		o.Height = 1200
	}
	if o.Background == (color.NRGBA{}) {
		o.Background = color.NRGBA{R: 0xf4, G: 0xf1, B: 0xea, A: 0xff}
	}
	if o.Padding <= 0 {
		o.Padding = 0.05
	}
	return o
}

// viewport maps web-mercator coordinates to pixels.
type viewport struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func (v viewport) pixel(p orb.Point) (float32, float32) {
	return float32((p[0]-v.minX)*v.scale + v.offX),
		float32((v.maxY-p[1])*v.scale + v.offY)
}

func (v viewport) bounds(w, h int) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: v.minX - v.offX/v.scale, Y: v.maxY - (float64(h)-v.offY)/v.scale},
		Max: geom.Point{X: v.minX + (float64(w)-v.offX)/v.scale, Y: v.maxY + v.offY/v.scale},
	}
}

// RenderStatic finalizes the composition into an image. Layers draw in
// the order they were added; everything is projected to EPSG:3857 first.
func RenderStatic(m *Map, opts StaticOptions) (*image.RGBA, error) {
	opts = opts.withDefaults()

	if len(m.layers) == 0 {
		return nil, fmt.Errorf("render: map has no layers")
	}

	// Project every vector layer up front so extent fitting and drawing
	// happen in one plane.
	projected := make([]*geo.FeatureCollection, len(m.layers))
	for i, l := range m.layers {
		if l.Vector == nil {
			continue
		}
		fc, err := geo.Reproject(l.Vector.Collection, geo.WebMercator)
		if err != nil {
			return nil, fmt.Errorf("render layer %s: %w", l.Name, err)
		}
		projected[i] = fc
	}

	ext, err := m.mercatorExtent(projected)
	if err != nil {
		return nil, err
	}

	vp := fitViewport(ext, opts)
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	for i, l := range m.layers {
		switch {
		case l.Raster != nil:
			if err := drawRaster(dst, l, vp); err != nil {
				return nil, fmt.Errorf("render raster %s: %w", l.Name, err)
			}
		case l.Vector != nil:
			drawVector(dst, l.Vector, projected[i], vp, opts)
		}
	}

	drawChrome(dst, m, opts)

	log.Info().
		Int("width", opts.Width).
		Int("height", opts.Height).
		Int("layers", len(m.layers)).
		Msg("Static map rendered")

	return dst, nil
}

// ExportImage writes a rendered image as PNG or WebP based on extension.
// The format is checked before anything touches the filesystem.
func ExportImage(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".webp":
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if ext == ".png" {
		return png.Encode(f, img)
	}
	return webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 90})
}

func (m *Map) mercatorExtent(projected []*geo.FeatureCollection) (orb.Bound, error) {
	if m.hasBound {
		fc := geo.NewFeatureCollection(geo.WGS84)
		fc.Append(m.bound.Min, nil)
		fc.Append(m.bound.Max, nil)
		merc, err := geo.Reproject(fc, geo.WebMercator)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("render: project view bounds: %w", err)
		}
		return merc.Bound(), nil
	}

	var ext orb.Bound
	first := true
	for i, l := range m.layers {
		var b orb.Bound
		switch {
		case l.Raster != nil:
			warped, err := l.Raster.Warp(geo.WebMercator, 2)
			if err != nil {
				return orb.Bound{}, err
			}
			minX, minY, maxX, maxY := warped.Bound()
			b = orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
		case projected[i] != nil && projected[i].Len() > 0:
			b = projected[i].Bound()
		default:
			continue
		}
		if first {
			ext = b
			first = false
		} else {
			ext = ext.Union(b)
		}
	}
	if first {
		return orb.Bound{}, fmt.Errorf("render: no drawable extent")
	}
	return ext, nil
}

func fitViewport(ext orb.Bound, opts StaticOptions) viewport {
	w := ext.Max[0] - ext.Min[0]
	h := ext.Max[1] - ext.Min[1]
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	w *= 1 + 2*opts.Padding
	h *= 1 + 2*opts.Padding

	scale := math.Min(float64(opts.Width)/w, float64(opts.Height)/h)

	cx := (ext.Min[0] + ext.Max[0]) / 2
	cy := (ext.Min[1] + ext.Max[1]) / 2

	return viewport{
		minX:  cx,
		maxY:  cy,
		scale: scale,
		offX:  float64(opts.Width) / 2,
		offY:  float64(opts.Height) / 2,
	}
}

// spatialFeature indexes one feature's bounding box; the embedded Geom
// satisfies the rtree interface.
type spatialFeature struct {
	geom.Geom
	index int
}

// drawVector draws the styled features of one layer, skipping features
// entirely outside the viewport via an rtree index.
func drawVector(dst *image.RGBA, l *style.Layer, fc *geo.FeatureCollection, vp viewport, opts StaticOptions) {
	index := rtree.NewTree(25, 50)
	for i, f := range fc.Features {
		b := f.Geom.Bound()
		index.Insert(spatialFeature{
			Geom: &geom.Bounds{
				Min: geom.Point{X: b.Min[0], Y: b.Min[1]},
				Max: geom.Point{X: b.Max[0], Y: b.Max[1]},
			},
			index: i,
		})
	}

	visible := index.SearchIntersect(vp.bounds(opts.Width, opts.Height))
	order := make([]int, 0, len(visible))
	for _, v := range visible {
		order = append(order, v.(spatialFeature).index)
	}
	sort.Ints(order) // rtree results are unordered; keep source order

	for _, i := range order {
		drawGeometry(dst, fc.Features[i].Geom, l.Styles[i], vp)
	}
}

func drawGeometry(dst *image.RGBA, g orb.Geometry, s style.Style, vp viewport) {
	switch v := g.(type) {
	case orb.Point:
		x, y := vp.pixel(v)
		fillCircle(dst, x, y, float32(s.Radius), s.FillRGBA())
		strokeCircle(dst, x, y, float32(s.Radius), float32(s.Weight), s.StrokeColor())
	case orb.MultiPoint:
		for _, p := range v {
			drawGeometry(dst, p, s, vp)
		}
	case orb.LineString:
		strokePolyline(dst, v, float32(s.Weight), s.StrokeColor(), vp, false)
	case orb.MultiLineString:
		for _, ls := range v {
			strokePolyline(dst, ls, float32(s.Weight), s.StrokeColor(), vp, false)
		}
	case orb.Polygon:
		fillPolygon(dst, v, s.FillRGBA(), vp)
		for _, ring := range v {
			strokePolyline(dst, orb.LineString(ring), float32(s.Weight), s.StrokeColor(), vp, true)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			drawGeometry(dst, p, s, vp)
		}
	case orb.Collection:
		for _, sub := range v {
			drawGeometry(dst, sub, s, vp)
		}
	}
}

func drawRaster(dst *image.RGBA, l Layer, vp viewport) error {
	warped, err := l.Raster.Warp(geo.WebMercator, l.Raster.Image.Bounds().Dx())
	if err != nil {
		return err
	}

	minX, minY, maxX, maxY := warped.Bound()
	x0, y0 := vp.pixel(orb.Point{minX, maxY})
	x1, y1 := vp.pixel(orb.Point{maxX, minY})

	rect := image.Rect(int(x0), int(y0), int(x1), int(y1))
	if rect.Empty() {
		return nil
	}

	xdraw.CatmullRom.Scale(dst, rect, warped.Image, warped.Image.Bounds(), draw.Over, nil)
	return nil
}

// --- rasterizer helpers ---

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	z := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	z.DrawOp = draw.Over
	return z
}

// circle approximation constant for cubic Beziers.
const bezierCircle = 0.55228475

func circlePath(z *vector.Rasterizer, cx, cy, r float32, clockwise bool) {
	k := bezierCircle * r
	if !clockwise {
		z.MoveTo(cx+r, cy)
		z.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		z.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		z.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		z.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	} else {
		z.MoveTo(cx+r, cy)
		z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	}
	z.ClosePath()
}

func fillCircle(dst *image.RGBA, cx, cy, r float32, col color.NRGBA) {
	if col.A == 0 {
		return
	}
	z := newRasterizer(dst)
	circlePath(z, cx, cy, r, true)
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// strokeCircle draws a ring: an outer circle with an opposite-winding
// inner circle cut out.
func strokeCircle(dst *image.RGBA, cx, cy, r, w float32, col color.NRGBA) {
	if col.A == 0 || w <= 0 {
		return
	}
	half := w / 2
	z := newRasterizer(dst)
	circlePath(z, cx, cy, r+half, true)
	if r > half {
		circlePath(z, cx, cy, r-half, false)
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// strokePolyline draws each segment as a quad of the stroke width. Joints
// are left square; good enough at map stroke widths.
func strokePolyline(dst *image.RGBA, ls orb.LineString, w float32, col color.NRGBA, vp viewport, closed bool) {
	if len(ls) < 2 || col.A == 0 {
		return
	}

	z := newRasterizer(dst)
	half := w / 2
	if half <= 0 {
		half = 0.5
	}

	n := len(ls)
	segs := n - 1
	if closed {
		segs = n
	}

	for i := 0; i < segs; i++ {
		x0, y0 := vp.pixel(ls[i])
		x1, y1 := vp.pixel(ls[(i+1)%n])

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half

		z.MoveTo(x0+nx, y0+ny)
		z.LineTo(x1+nx, y1+ny)
		z.LineTo(x1-nx, y1-ny)
		z.LineTo(x0-nx, y0-ny)
		z.ClosePath()
	}

	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

func fillPolygon(dst *image.RGBA, poly orb.Polygon, col color.NRGBA, vp viewport) {
	if len(poly) == 0 || col.A == 0 {
		return
	}

	z := newRasterizer(dst)
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		x, y := vp.pixel(ring[0])
		z.MoveTo(x, y)
		for _, p := range ring[1:] {
			px, py := vp.pixel(p)
			z.LineTo(px, py)
		}
		z.ClosePath()
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// drawChrome adds the title and attribution text.
func drawChrome(dst *image.RGBA, m *Map, opts StaticOptions) {
	if m.Title != "" {
		drawText(dst, m.Title, 10, 20)
	}
	if m.Attribution != "" {
		w := font.MeasureString(basicfont.Face7x13, m.Attribution).Ceil()
		drawText(dst, m.Attribution, opts.Width-w-10, opts.Height-8)
	}
}

func drawText(dst *image.RGBA, s string, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
