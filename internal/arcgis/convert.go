package arcgis

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ToOrb converts an ESRI JSON geometry into the orb model. Paths become a
// LineString (or MultiLineString when more than one), rings a Polygon with
// closure enforced.
func (g *Geometry) ToOrb() (orb.Geometry, error) {
	if g == nil {
		return nil, fmt.Errorf("feature has no geometry")
	}

	switch {
	case g.X != nil && g.Y != nil:
		return orb.Point{*g.X, *g.Y}, nil

	case len(g.Paths) > 0:
		lines := make(orb.MultiLineString, 0, len(g.Paths))
		for _, path := range g.Paths {
			ls := make(orb.LineString, 0, len(path))
			for _, pt := range path {
				if len(pt) < 2 {
					continue
				}
				ls = append(ls, orb.Point{pt[0], pt[1]})
			}
			if len(ls) > 0 {
				lines = append(lines, ls)
			}
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("polyline with no valid paths")
		}
		if len(lines) == 1 {
			return lines[0], nil
		}
		return lines, nil

	case len(g.Rings) > 0:
		poly := make(orb.Polygon, 0, len(g.Rings))
		for _, ring := range g.Rings {
			r := make(orb.Ring, 0, len(ring)+1)
			for _, pt := range ring {
				if len(pt) < 2 {
					continue
				}
				r = append(r, orb.Point{pt[0], pt[1]})
			}
			if len(r) == 0 {
				continue
			}
			if r[0] != r[len(r)-1] {
				r = append(r, r[0])
			}
			poly = append(poly, r)
		}
		if len(poly) == 0 {
			return nil, fmt.Errorf("polygon with no valid rings")
		}
		return poly, nil

	default:
		return nil, fmt.Errorf("unrecognized ESRI geometry")
	}
}
