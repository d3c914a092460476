package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/twpayne/go-geom"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

// GMLBackend reads GML 2 and GML 3 polygons: Polygon or PolygonPatch with
// exterior/interior (or outerBoundaryIs/innerBoundaryIs) LinearRings given
// as posList, pos or coordinates.
type GMLBackend struct {
	// DefaultDimension applies when neither the caller nor the fragment
	// declares one.
	DefaultDimension int
}

// NewGMLBackend returns a backend defaulting to 2D coordinates.
func NewGMLBackend() *GMLBackend {
	return &GMLBackend{DefaultDimension: 2}
}

// Convert parses fragment and returns its first polygon.
func (g *GMLBackend) Convert(fragment, epsg string, dimension int) (*geom.Polygon, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeGeometryConversion, "boundary member is not well-formed XML", err)
	}

	poly := findElement(doc, "Polygon", "PolygonPatch")
	if poly == nil {
		return nil, errs.New(errs.ErrorTypeGeometryConversion, "boundary member holds no polygon")
	}

	dim := dimension
	if d := declaredDimension(poly); d > 0 {
		dim = d
	}
	if dim <= 0 {
		dim = g.DefaultDimension
	}
	if dim != 2 && dim != 3 {
		return nil, errs.New(errs.ErrorTypeGeometryConversion, fmt.Sprintf("unsupported coordinate dimension %d", dim))
	}

	var rings [][]geom.Coord
	for _, boundary := range childElements(poly) {
		switch boundary.Data {
		case "exterior", "outerBoundaryIs", "interior", "innerBoundaryIs":
		default:
			continue
		}
		ring := findElement(boundary, "LinearRing")
		if ring == nil {
			return nil, errs.New(errs.ErrorTypeGeometryConversion, "polygon boundary without LinearRing")
		}
		coords, err := ringCoords(ring, dim)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeGeometryConversion, "invalid ring coordinates", err)
		}
		if boundary.Data == "exterior" || boundary.Data == "outerBoundaryIs" {
			rings = append([][]geom.Coord{coords}, rings...)
		} else {
			rings = append(rings, coords)
		}
	}
	if len(rings) == 0 {
		return nil, errs.New(errs.ErrorTypeGeometryConversion, "polygon has no exterior ring")
	}

	layout := geom.XY
	if dim == 3 {
		layout = geom.XYZ
	}
	p, err := geom.NewPolygon(layout).SetCoords(rings)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeGeometryConversion, "invalid polygon", err)
	}
	if srid, err := strconv.Atoi(epsg); err == nil {
		p.SetSRID(srid)
	}
	return p, nil
}

// Union gathers the polygons into one multipolygon without dissolving shared
// edges. All polygons must share a layout.
func (g *GMLBackend) Union(polygons []*geom.Polygon) (*geom.MultiPolygon, error) {
	if len(polygons) == 0 {
		return nil, errs.New(errs.ErrorTypeGeometryConversion, "nothing to merge")
	}
	mp := geom.NewMultiPolygon(polygons[0].Layout()).SetSRID(polygons[0].SRID())
	for i, p := range polygons {
		if err := mp.Push(p); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeGeometryConversion, fmt.Sprintf("polygon %d", i+1), err)
		}
	}
	return mp, nil
}

// parseFragment reads a boundary member. Elements are matched by local
// name, so a fragment whose prefixes are declared outside it is read with a
// non-strict decoder when the strict one rejects it.
func parseFragment(fragment string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(fragment))
	if err == nil {
		return doc, nil
	}
	lenient, lerr := xmlquery.ParseWithOptions(strings.NewReader(fragment), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{Strict: false},
	})
	if lerr != nil || lenient.FirstChild == nil {
		return nil, err
	}
	return lenient, nil
}

func ringCoords(ring *xmlquery.Node, dim int) ([]geom.Coord, error) {
	var values []float64
	var err error

	switch {
	case findElement(ring, "posList") != nil:
		values, err = parseFloats(strings.Fields(findElement(ring, "posList").InnerText()))
	case findElement(ring, "coordinates") != nil:
		// GML 2: tuples separated by spaces, ordinates by commas.
		text := findElement(ring, "coordinates").InnerText()
		values, err = parseFloats(strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}))
	default:
		for _, pos := range childElements(ring) {
			if pos.Data != "pos" {
				continue
			}
			v, perr := parseFloats(strings.Fields(pos.InnerText()))
			if perr != nil {
				return nil, perr
			}
			values = append(values, v...)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values)%dim != 0 {
		return nil, fmt.Errorf("%d ordinates do not form %dD positions", len(values), dim)
	}

	coords := make([]geom.Coord, 0, len(values)/dim+1)
	for i := 0; i < len(values); i += dim {
		c := make(geom.Coord, dim)
		copy(c, values[i:i+dim])
		coords = append(coords, c)
	}
	if len(coords) < 3 {
		return nil, fmt.Errorf("ring has %d positions", len(coords))
	}
	if !coordsEqual(coords[0], coords[len(coords)-1]) {
		coords = append(coords, coords[0])
	}
	return coords, nil
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ordinate %q", t)
		}
		out = append(out, v)
	}
	return out, nil
}

func coordsEqual(a, b geom.Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func declaredDimension(n *xmlquery.Node) int {
	for ; n != nil; n = n.Parent {
		if v := n.SelectAttr("srsDimension"); v != "" {
			if d, err := strconv.Atoi(v); err == nil {
				return d
			}
		}
	}
	return 0
}

// findElement returns the first descendant (or n itself) whose local name is
// one of names.
func findElement(n *xmlquery.Node, names ...string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	if n.Type == xmlquery.ElementNode {
		for _, name := range names {
			if n.Data == name {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, names...); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
