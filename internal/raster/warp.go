package raster

import (
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/geo"
)

// Warp reprojects the grid into the target CRS using nearest-neighbour
// sampling. The output is width pixels wide; height follows the warped
// aspect ratio. Warping to the grid's own CRS only normalizes nodata.
func (g *Grid) Warp(dst geo.CRS, width int) (*Grid, error) {
	if width <= 0 {
		return nil, fmt.Errorf("warp: width must be positive")
	}

	src := g.Normalize()

	if g.CRS.Equal(dst) {
		return &Grid{Image: src, Transform: g.Transform, CRS: g.CRS}, nil
	}
	if !g.CRS.Defined() || !dst.Defined() {
		return nil, fmt.Errorf("warp: CRS undefined")
	}

	fwd, err := g.CRS.SR().NewTransform(dst.SR())
	if err != nil {
		return nil, fmt.Errorf("warp: forward transform: %w", err)
	}
	inv, err := dst.SR().NewTransform(g.CRS.SR())
	if err != nil {
		return nil, fmt.Errorf("warp: inverse transform: %w", err)
	}

	// Extent of the warped grid: the source corners projected forward.
	minX, minY, maxX, maxY := g.Bound()
	corners := [4][2]float64{{minX, minY}, {minX, maxY}, {maxX, minY}, {maxX, maxY}}
	var wMinX, wMinY, wMaxX, wMaxY float64
	for i, c := range corners {
		x, y, err := fwd(c[0], c[1])
		if err != nil {
			return nil, fmt.Errorf("warp: project corner: %w", err)
		}
		if i == 0 {
			wMinX, wMaxX = x, x
			wMinY, wMaxY = y, y
			continue
		}
		if x < wMinX {
			wMinX = x
		}
		if x > wMaxX {
			wMaxX = x
		}
		if y < wMinY {
			wMinY = y
		}
		if y > wMaxY {
			wMaxY = y
		}
	}

	px := (wMaxX - wMinX) / float64(width)
	if px <= 0 {
		return nil, fmt.Errorf("warp: degenerate extent")
	}
	height := int((wMaxY-wMinY)/px + 0.5)
	if height < 1 {
		height = 1
	}

	gt := GeoTransform{wMinX, px, 0, wMaxY, 0, -px}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	srcBounds := src.Bounds()

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			// Destination pixel center back to source pixel.
			wx, wy := gt.Apply(float64(col)+0.5, float64(row)+0.5)
			sx, sy, err := inv(wx, wy)
			if err != nil {
				continue
			}
			scol, srow, err := g.Transform.Invert(sx, sy)
			if err != nil {
				return nil, err
			}
			ix, iy := int(scol), int(srow)
			if ix < 0 || iy < 0 || ix >= srcBounds.Dx() || iy >= srcBounds.Dy() {
				continue
			}
			out.SetRGBA(col, row, src.RGBAAt(ix, iy))
		}
	}

	log.Debug().
		Int("width", width).
		Int("height", height).
		Str("crs", dst.String()).
		Msg("Raster warped")

	return &Grid{Image: out, Transform: gt, CRS: dst}, nil
}
