package terrainrgb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const (
	cutoutMinChildren = 4
	cutoutMaxChildren = 16
	cutoutTolerance   = 1e-9
)

var errEmptyPolygon = errors.New("empty polygon")

// A Cutout is a set of polygons outside of which pixels are masked. The zero
// Cutout and a nil *Cutout contain every point.
//
// A point on the boundary of a polygon's outer ring is inside the polygon. A
// point on the boundary of a hole is outside the polygon.
//
// A Cutout is immutable and safe for concurrent use.
type Cutout struct {
	polygons []orb.Polygon
	tree     *rtreego.Rtree
}

// A cutoutItem is a polygon in a Cutout's index.
type cutoutItem struct {
	polygon orb.Polygon
	rect    *rtreego.Rect
}

func (i *cutoutItem) Bounds() *rtreego.Rect {
	return i.rect
}

// NewCutout returns a new Cutout containing geometries, which must be
// polygons, multipolygons, rings, bounds, or collections of these.
func NewCutout(geometries ...orb.Geometry) (*Cutout, error) {
	c := &Cutout{}
	for _, geometry := range geometries {
		if err := c.addGeometry(geometry); err != nil {
			return nil, err
		}
	}
	if len(c.polygons) == 0 {
		return c, nil
	}

	c.tree = rtreego.NewTree(2, cutoutMinChildren, cutoutMaxChildren)
	for _, polygon := range c.polygons {
		rect, err := boundRect(polygon.Bound())
		if err != nil {
			return nil, err
		}
		c.tree.Insert(&cutoutItem{
			polygon: polygon,
			rect:    rect,
		})
	}
	return c, nil
}

// LoadCutoutGeoJSON returns a new Cutout from a GeoJSON FeatureCollection,
// Feature, or Geometry.
func LoadCutoutGeoJSON(data []byte) (*Cutout, error) {
	var object struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, err
	}
	switch object.Type {
	case "FeatureCollection":
		featureCollection, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		geometries := make([]orb.Geometry, 0, len(featureCollection.Features))
		for _, feature := range featureCollection.Features {
			geometries = append(geometries, feature.Geometry)
		}
		return NewCutout(geometries...)
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		return NewCutout(feature.Geometry)
	default:
		geometry, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		return NewCutout(geometry.Geometry())
	}
}

// Len returns the number of polygons in c.
func (c *Cutout) Len() int {
	if c == nil {
		return 0
	}
	return len(c.polygons)
}

// Contains returns whether p is inside at least one polygon of c. It returns
// true if c has no polygons.
func (c *Cutout) Contains(p orb.Point) bool {
	if c.Len() == 0 {
		return true
	}
	for _, spatial := range c.tree.SearchIntersect(rtreego.Point{p.X(), p.Y()}.ToRect(cutoutTolerance)) {
		if planar.PolygonContains(spatial.(*cutoutItem).polygon, p) {
			return true
		}
	}
	return false
}

func (c *Cutout) addGeometry(geometry orb.Geometry) error {
	switch g := geometry.(type) {
	case nil:
		return nil
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 3 {
			return errEmptyPolygon
		}
		c.polygons = append(c.polygons, g)
	case orb.MultiPolygon:
		for _, polygon := range g {
			if err := c.addGeometry(polygon); err != nil {
				return err
			}
		}
	case orb.Ring:
		return c.addGeometry(orb.Polygon{g})
	case orb.Bound:
		return c.addGeometry(g.ToPolygon())
	case orb.Collection:
		for _, child := range g {
			if err := c.addGeometry(child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unsupported cutout geometry", geometry.GeoJSONType())
	}
	return nil
}

// boundRect returns the index rectangle of bound. Degenerate bounds are
// widened so that they remain indexable.
func boundRect(bound orb.Bound) (*rtreego.Rect, error) {
	lengths := []float64{
		math.Max(bound.Max.X()-bound.Min.X(), cutoutTolerance),
		math.Max(bound.Max.Y()-bound.Min.Y(), cutoutTolerance),
	}
	return rtreego.NewRect(rtreego.Point{bound.Min.X(), bound.Min.Y()}, lengths)
}
