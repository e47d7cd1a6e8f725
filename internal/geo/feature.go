package geo

import (
	"github.com/paulmach/orb"
)

// Feature is one geometry with its attribute table.
type Feature struct {
	Geom  orb.Geometry
	Props map[string]interface{}
}

// FeatureCollection is an ordered set of features sharing one CRS.
// Every loader returns one and every transformation preserves the
// single-CRS invariant.
type FeatureCollection struct {
	CRS      CRS
	Features []Feature
}

// NewFeatureCollection returns an empty collection in the given CRS.
func NewFeatureCollection(crs CRS) *FeatureCollection {
	return &FeatureCollection{CRS: crs}
}

// Append adds a feature, keeping insertion order.
func (fc *FeatureCollection) Append(g orb.Geometry, props map[string]interface{}) {
	fc.Features = append(fc.Features, Feature{Geom: g, Props: props})
}

// Len returns the feature count.
func (fc *FeatureCollection) Len() int {
	return len(fc.Features)
}

// Bound returns the bounding box of all geometries in the collection's CRS.
func (fc *FeatureCollection) Bound() orb.Bound {
	var b orb.Bound
	for i, f := range fc.Features {
		if i == 0 {
			b = f.Geom.Bound()
			continue
		}
		b = b.Union(f.Geom.Bound())
	}
	return b
}
