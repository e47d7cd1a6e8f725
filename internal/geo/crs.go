// Package geo holds the feature model, coordinate reference systems and
// reprojection helpers shared by all pipelines.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// PROJ4 definitions for the EPSG codes used in the workshop sessions.
var epsgRegistry = map[int]string{
	4326:  "+proj=longlat +datum=WGS84 +no_defs",
	3857:  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
	2154:  "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3 +x_0=700000 +y_0=6600000 +ellps=GRS80 +units=m +no_defs",
	27700: "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +units=m +no_defs",
	25832: "+proj=utm +zone=32 +ellps=GRS80 +units=m +no_defs",
}

// CRS identifies a coordinate reference system. Code is "EPSG:n" for
// registered systems or empty for systems known only by their parsed
// definition (e.g. a shapefile .prj).
type CRS struct {
	Code string
	sr   *proj.SR
}

// WGS84 is the common lon/lat system all exports are written in.
var WGS84 = MustParseCRS("EPSG:4326")

// WebMercator is the system used for tile basemaps and static rendering.
var WebMercator = MustParseCRS("EPSG:3857")

// ParseCRS resolves an "EPSG:n" identifier or a raw PROJ4 string.
func ParseCRS(name string) (CRS, error) {
	def := strings.TrimSpace(name)
	code := ""

	upper := strings.ToUpper(def)
	if strings.HasPrefix(upper, "EPSG:") {
		n, err := strconv.Atoi(def[5:])
		if err != nil {
			return CRS{}, fmt.Errorf("invalid EPSG code %q: %w", name, err)
		}
		proj4, ok := epsgRegistry[n]
		if !ok {
			return CRS{}, fmt.Errorf("unknown EPSG code %d", n)
		}
		code = "EPSG:" + strconv.Itoa(n)
		def = proj4
	}

	sr, err := proj.Parse(def)
	if err != nil {
		return CRS{}, fmt.Errorf("parse CRS %q: %w", name, err)
	}

	return CRS{Code: code, sr: sr}, nil
}

// MustParseCRS is ParseCRS for registry constants; panics on error.
func MustParseCRS(name string) CRS {
	c, err := ParseCRS(name)
	if err != nil {
		panic(err)
	}
	return c
}

// FromSR wraps an already-parsed spatial reference, e.g. from a .prj file.
func FromSR(sr *proj.SR) CRS {
	return CRS{sr: sr}
}

// SR returns the parsed spatial reference.
func (c CRS) SR() *proj.SR {
	return c.sr
}

// Defined reports whether the CRS carries a usable definition.
func (c CRS) Defined() bool {
	return c.sr != nil
}

// Equal reports whether two systems are known to be the same. Systems
// without a code are never assumed equal and always go through the
// transformer.
func (c CRS) Equal(o CRS) bool {
	return c.Code != "" && c.Code == o.Code
}

// String implements fmt.Stringer.
func (c CRS) String() string {
	if c.Code != "" {
		return c.Code
	}
	if c.sr != nil {
		return "custom (" + c.sr.Name + ")"
	}
	return "undefined"
}
