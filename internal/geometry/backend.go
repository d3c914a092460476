// Package geometry converts the raw GML boundary fragments of a filing into
// polygons and WKT.
package geometry

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/a3tai/mcp-dtdict/internal/declaration"
	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

// Backend turns one boundary fragment into a polygon and merges polygons.
// dimension is the coordinate dimension declared by the filing; 0 lets the
// backend decide.
type Backend interface {
	Convert(fragment, epsg string, dimension int) (*geom.Polygon, error)
	Union(polygons []*geom.Polygon) (*geom.MultiPolygon, error)
}

// Boundary is a merged works area.
type Boundary struct {
	Geometry *geom.MultiPolygon
	EPSG     string
}

// WKT returns the boundary as well-known text.
func (b *Boundary) WKT() (string, error) {
	if b == nil || b.Geometry == nil {
		return "", nil
	}
	s, err := wkt.Marshal(b.Geometry)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeGeometryConversion, "cannot encode boundary as WKT", err)
	}
	return s, nil
}

// Area returns the planar area in the units of the reference system.
func (b *Boundary) Area() float64 {
	if b == nil || b.Geometry == nil {
		return 0
	}
	return b.Geometry.Area()
}

// Polygons returns the number of member polygons.
func (b *Boundary) Polygons() int {
	if b == nil || b.Geometry == nil {
		return 0
	}
	return b.Geometry.NumPolygons()
}

// Merge converts every fragment of a parsed boundary and unions them.
// A boundary without fragments yields nil and no error.
func Merge(backend Backend, boundary declaration.Boundary) (*Boundary, error) {
	if boundary.Empty() {
		return nil, nil
	}

	dimension := 0
	if d, err := strconv.Atoi(strings.TrimSpace(boundary.CoordinateDimension)); err == nil {
		dimension = d
	}

	polygons := make([]*geom.Polygon, 0, len(boundary.Fragments))
	for i, fragment := range boundary.Fragments {
		p, err := backend.Convert(fragment, boundary.SpatialReferenceID, dimension)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeGeometryConversion,
				"cannot convert boundary member "+strconv.Itoa(i+1), err)
		}
		polygons = append(polygons, p)
	}

	merged, err := backend.Union(polygons)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeGeometryConversion, "cannot merge boundary members", err)
	}
	return &Boundary{Geometry: merged, EPSG: boundary.SpatialReferenceID}, nil
}
