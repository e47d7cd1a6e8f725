package geo

import (
	"fmt"

	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
)

// Reproject returns an equivalent collection in the target CRS.
// Reprojecting to the collection's own CRS is a no-op and returns the
// receiver unchanged.
func Reproject(fc *FeatureCollection, dst CRS) (*FeatureCollection, error) {
	if fc.CRS.Equal(dst) {
		return fc, nil
	}
	if !fc.CRS.Defined() {
		return nil, fmt.Errorf("cannot reproject: source CRS undefined")
	}
	if !dst.Defined() {
		return nil, fmt.Errorf("cannot reproject: target CRS undefined")
	}

	trans, err := fc.CRS.SR().NewTransform(dst.SR())
	if err != nil {
		return nil, fmt.Errorf("build transform %s -> %s: %w", fc.CRS, dst, err)
	}

	out := NewFeatureCollection(dst)
	out.Features = make([]Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		g, err := TransformGeometry(f.Geom, trans)
		if err != nil {
			return nil, fmt.Errorf("reproject feature %d: %w", i, err)
		}
		out.Features = append(out.Features, Feature{Geom: g, Props: f.Props})
	}

	return out, nil
}

// TransformGeometry applies a coordinate transform to every position of a
// geometry, returning a new geometry of the same type.
func TransformGeometry(g orb.Geometry, trans proj.Transformer) (orb.Geometry, error) {
	switch v := g.(type) {
	case orb.Point:
		return transformPoint(v, trans)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(v))
		for i, p := range v {
			tp, err := transformPoint(p, trans)
			if err != nil {
				return nil, err
			}
			out[i] = tp
		}
		return out, nil
	case orb.LineString:
		out, err := transformLine(v, trans)
		if err != nil {
			return nil, err
		}
		return out, nil
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			tl, err := transformLine(ls, trans)
			if err != nil {
				return nil, err
			}
			out[i] = tl
		}
		return out, nil
	case orb.Ring:
		ls, err := transformLine(orb.LineString(v), trans)
		if err != nil {
			return nil, err
		}
		return orb.Ring(ls), nil
	case orb.Polygon:
		out, err := transformPolygon(v, trans)
		if err != nil {
			return nil, err
		}
		return out, nil
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			tp, err := transformPolygon(p, trans)
			if err != nil {
				return nil, err
			}
			out[i] = tp
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, len(v))
		for i, sub := range v {
			tg, err := TransformGeometry(sub, trans)
			if err != nil {
				return nil, err
			}
			out[i] = tg
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func transformPoint(p orb.Point, trans proj.Transformer) (orb.Point, error) {
	x, y, err := trans(p[0], p[1])
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{x, y}, nil
}

func transformLine(ls orb.LineString, trans proj.Transformer) (orb.LineString, error) {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		tp, err := transformPoint(p, trans)
		if err != nil {
			return nil, err
		}
		out[i] = tp
	}
	return out, nil
}

func transformPolygon(p orb.Polygon, trans proj.Transformer) (orb.Polygon, error) {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		tr, err := transformLine(orb.LineString(ring), trans)
		if err != nil {
			return nil, err
		}
		out[i] = orb.Ring(tr)
	}
	return out, nil
}
