package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartolab/geopipe/internal/geo"
)

func TestReadWorldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ortho.pgw")
	require.NoError(t, os.WriteFile(path, []byte("2.0\n0.0\n0.0\n-2.0\n500001.0\n5999999.0\n"), 0644))

	gt, err := ReadWorldFile(path)
	require.NoError(t, err)

	// World file values reference the pixel center; the transform origin
	// is the corner of the first pixel.
	assert.InDelta(t, 500000.0, gt[0], 1e-9)
	assert.InDelta(t, 2.0, gt[1], 1e-9)
	assert.InDelta(t, 6000000.0, gt[3], 1e-9)
	assert.InDelta(t, -2.0, gt[5], 1e-9)
}

func TestReadWorldFileErrors(t *testing.T) {
	_, err := ReadWorldFile(filepath.Join(t.TempDir(), "missing.pgw"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "short.pgw")
	require.NoError(t, os.WriteFile(path, []byte("1\n2\n3\n"), 0644))
	_, err = ReadWorldFile(path)
	assert.ErrorContains(t, err, "expected 6 values")

	path = filepath.Join(t.TempDir(), "bad.pgw")
	require.NoError(t, os.WriteFile(path, []byte("1\nx\n3\n4\n5\n6\n"), 0644))
	_, err = ReadWorldFile(path)
	assert.ErrorContains(t, err, "invalid value")
}

func TestGeoTransformRoundTrip(t *testing.T) {
	gt := GeoTransform{500000, 2, 0, 6000000, 0, -2}

	x, y := gt.Apply(10, 20)
	assert.InDelta(t, 500020.0, x, 1e-9)
	assert.InDelta(t, 5999960.0, y, 1e-9)

	col, row, err := gt.Invert(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, col, 1e-9)
	assert.InDelta(t, 20.0, row, 1e-9)
}

func TestGeoTransformNotInvertible(t *testing.T) {
	gt := GeoTransform{0, 0, 0, 0, 0, 0}
	_, _, err := gt.Invert(1, 1)
	assert.Error(t, err)
}

func writeTestRaster(t *testing.T, nodata uint8) (string, string) {
	t.Helper()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x == 0 {
				img.Set(x, y, color.RGBA{nodata, nodata, nodata, 255})
			} else {
				img.Set(x, y, color.RGBA{200, 100, 50, 255})
			}
		}
	}

	imgPath := filepath.Join(dir, "grid.png")
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	worldPath := filepath.Join(dir, "grid.pgw")
	require.NoError(t, os.WriteFile(worldPath, []byte("0.5\n0\n0\n-0.5\n10.25\n50.75\n"), 0644))

	return imgPath, worldPath
}

func TestLoadAndNormalize(t *testing.T) {
	nodata := uint8(0)
	imgPath, worldPath := writeTestRaster(t, nodata)

	g, err := Load(imgPath, worldPath, geo.WGS84, &nodata)
	require.NoError(t, err)

	out := g.Normalize()

	// Nodata column is fully transparent, data pixels keep their color.
	for y := 0; y < 4; y++ {
		assert.Equal(t, uint8(0), out.RGBAAt(0, y).A)
		assert.Equal(t, uint8(255), out.RGBAAt(1, y).A)
		assert.Equal(t, uint8(200), out.RGBAAt(1, y).R)
	}
}

func TestNormalizeWithoutNoData(t *testing.T) {
	imgPath, worldPath := writeTestRaster(t, 0)

	g, err := Load(imgPath, worldPath, geo.WGS84, nil)
	require.NoError(t, err)

	out := g.Normalize()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, uint8(255), out.RGBAAt(x, y).A)
		}
	}
}

func TestGridBound(t *testing.T) {
	imgPath, worldPath := writeTestRaster(t, 0)

	g, err := Load(imgPath, worldPath, geo.WGS84, nil)
	require.NoError(t, err)

	minX, minY, maxX, maxY := g.Bound()
	assert.InDelta(t, 10.0, minX, 1e-9)
	assert.InDelta(t, 12.0, maxX, 1e-9)
	assert.InDelta(t, 49.0, minY, 1e-9)
	assert.InDelta(t, 51.0, maxY, 1e-9)
}

func TestWarpToWebMercator(t *testing.T) {
	nodata := uint8(0)
	imgPath, worldPath := writeTestRaster(t, nodata)

	g, err := Load(imgPath, worldPath, geo.WGS84, &nodata)
	require.NoError(t, err)

	warped, err := g.Warp(geo.WebMercator, 8)
	require.NoError(t, err)

	assert.Equal(t, 8, warped.Image.Bounds().Dx())
	assert.Equal(t, "EPSG:3857", warped.CRS.Code)

	// The nodata sentinel must not survive the warp as an opaque sample.
	rgba := warped.Image.(*image.RGBA)
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := rgba.RGBAAt(x, y)
			if c.A > 0 {
				assert.False(t, c.R == nodata && c.G == nodata && c.B == nodata)
			}
		}
	}
}
