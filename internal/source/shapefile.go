package source

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/geo"
)

// LoadShapefile reads a shapefile into a feature collection. The CRS is
// taken from the .prj sidecar; fields names the attribute columns to carry
// over (shapefile attribute access is by column name).
func LoadShapefile(path string, fields []string) (*geo.FeatureCollection, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer dec.Close()

	var crs geo.CRS
	sr, err := dec.SR()
	if err != nil {
		log.Warn().
			Str("path", path).
			Err(err).
			Msg("No projection sidecar, assuming WGS84")
		crs = geo.WGS84
	} else {
		crs = geo.FromSR(sr)
	}

	fc := geo.NewFeatureCollection(crs)
	for {
		g, attrs, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}

		og, err := fromGeom(g)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s row %d: %w", path, fc.Len(), err)
		}

		props := make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			props[k] = v
		}
		fc.Append(og, props)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode shapefile %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("features", fc.Len()).
		Msg("Shapefile loaded")

	return fc, nil
}

// fromGeom converts a decoded shapefile geometry into the orb model.
func fromGeom(g geom.Geom) (orb.Geometry, error) {
	switch v := g.(type) {
	case geom.Point:
		return orb.Point{v.X, v.Y}, nil
	case geom.MultiPoint:
		out := make(orb.MultiPoint, len(v))
		for i, p := range v {
			out[i] = orb.Point{p.X, p.Y}
		}
		return out, nil
	case geom.LineString:
		return fromLine(v), nil
	case geom.MultiLineString:
		out := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			out[i] = fromLine(ls)
		}
		return out, nil
	case geom.Polygon:
		return fromPolygon(v), nil
	case geom.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out[i] = fromPolygon(p)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported shapefile geometry %T", g)
	}
}

func fromLine(ls geom.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func fromPolygon(p geom.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = orb.Point{pt.X, pt.Y}
		}
		// shapefile rings are not required to be closed
		if len(r) > 0 && r[0] != r[len(r)-1] {
			r = append(r, r[0])
		}
		out[i] = r
	}
	return out
}
