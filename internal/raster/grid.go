// Package raster loads georeferenced imagery: a pixel grid tied to world
// coordinates by an affine geotransform, with an optional nodata sentinel.
package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cartolab/geopipe/internal/geo"
)

// GeoTransform is the GDAL-style affine transform from pixel to world
// coordinates:
//
//	X = GT[0] + col*GT[1] + row*GT[2]
//	Y = GT[3] + col*GT[4] + row*GT[5]
type GeoTransform [6]float64

// Apply maps a pixel position to world coordinates.
func (gt GeoTransform) Apply(col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return x, y
}

// Invert maps world coordinates back to a pixel position.
func (gt GeoTransform) Invert(x, y float64) (col, row float64, err error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("geotransform is not invertible")
	}
	dx, dy := x-gt[0], y-gt[3]
	col = (dx*gt[5] - dy*gt[2]) / det
	row = (dy*gt[1] - dx*gt[4]) / det
	return col, row, nil
}

// Grid is a decoded raster with its georeferencing.
type Grid struct {
	Image     image.Image
	Transform GeoTransform
	CRS       geo.CRS

	// NoData marks the sentinel gray level; pixels whose R, G and B all
	// equal it are treated as missing. Nil means every pixel is valid.
	NoData *uint8
}

// Load decodes an image file and georeferences it with its world file.
func Load(imagePath, worldPath string, crs geo.CRS, nodata *uint8) (*Grid, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", imagePath, err)
	}

	gt, err := ReadWorldFile(worldPath)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", imagePath).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Raster loaded")

	return &Grid{Image: img, Transform: gt, CRS: crs, NoData: nodata}, nil
}

// Bound returns the world-coordinate extent of the grid in its CRS.
func (g *Grid) Bound() (minX, minY, maxX, maxY float64) {
	b := g.Image.Bounds()
	corners := [4][2]float64{
		{0, 0},
		{float64(b.Dx()), 0},
		{0, float64(b.Dy())},
		{float64(b.Dx()), float64(b.Dy())},
	}
	for i, c := range corners {
		x, y := g.Transform.Apply(c[0], c[1])
		if i == 0 {
			minX, maxX = x, x
			minY, maxY = y, y
			continue
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return minX, minY, maxX, maxY
}

// Normalize returns the grid's pixels as RGBA with every nodata pixel
// fully transparent. The sentinel never survives into rendered output.
func (g *Grid) Normalize() *image.RGBA {
	b := g.Image.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(g.Image.At(x, y)).(color.RGBA)
			if g.NoData != nil && c.R == *g.NoData && c.G == *g.NoData && c.B == *g.NoData {
				continue // leave transparent
			}
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}

	return out
}
