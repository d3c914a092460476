package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/a3tai/mcp-dtdict/internal/declaration"
	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

const square = `<gml:Polygon gml:id="p1"><gml:exterior><gml:LinearRing>` +
	`<gml:posList>0 0 10 0 10 10 0 10 0 0</gml:posList>` +
	`</gml:LinearRing></gml:exterior></gml:Polygon>`

func TestGMLBackend_Convert(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		dimension int
		wantArea  float64
		wantRings int
		layout    geom.Layout
	}{
		{
			name:      "posList",
			fragment:  square,
			wantArea:  100,
			wantRings: 1,
			layout:    geom.XY,
		},
		{
			name: "pos elements, ring left open",
			fragment: `<Polygon><exterior><LinearRing>` +
				`<pos>0 0</pos><pos>4 0</pos><pos>4 4</pos><pos>0 4</pos>` +
				`</LinearRing></exterior></Polygon>`,
			wantArea:  16,
			wantRings: 1,
			layout:    geom.XY,
		},
		{
			name: "GML 2 coordinates with a hole",
			fragment: `<gml:Polygon><gml:outerBoundaryIs><gml:LinearRing>` +
				`<gml:coordinates>0,0 10,0 10,10 0,10 0,0</gml:coordinates>` +
				`</gml:LinearRing></gml:outerBoundaryIs><gml:innerBoundaryIs><gml:LinearRing>` +
				`<gml:coordinates>2,2 4,2 4,4 2,4 2,2</gml:coordinates>` +
				`</gml:LinearRing></gml:innerBoundaryIs></gml:Polygon>`,
			wantArea:  96,
			wantRings: 2,
			layout:    geom.XY,
		},
		{
			name: "3D posList",
			fragment: `<gml:Polygon><gml:exterior><gml:LinearRing>` +
				`<gml:posList>0 0 5 2 0 5 2 2 5 0 2 5 0 0 5</gml:posList>` +
				`</gml:LinearRing></gml:exterior></gml:Polygon>`,
			dimension: 3,
			wantArea:  4,
			wantRings: 1,
			layout:    geom.XYZ,
		},
		{
			name: "surface patch",
			fragment: `<gml:Surface><gml:patches><gml:PolygonPatch><gml:exterior><gml:LinearRing>` +
				`<gml:posList>0 0 3 0 3 3 0 3 0 0</gml:posList>` +
				`</gml:LinearRing></gml:exterior></gml:PolygonPatch></gml:patches></gml:Surface>`,
			wantArea:  9,
			wantRings: 1,
			layout:    geom.XY,
		},
	}

	backend := NewGMLBackend()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := backend.Convert(tt.fragment, "2154", tt.dimension)
			require.NoError(t, err)
			assert.Equal(t, tt.layout, p.Layout())
			assert.Equal(t, tt.wantRings, p.NumLinearRings())
			assert.InDelta(t, tt.wantArea, p.Area(), 1e-9)
			assert.Equal(t, 2154, p.SRID())
		})
	}
}

func TestGMLBackend_ConvertFailures(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{"not xml", "<gml:Polygon"},
		{"no polygon", "<gml:Point><gml:pos>1 2</gml:pos></gml:Point>"},
		{"bad ordinate", `<Polygon><exterior><LinearRing><posList>0 0 x 0 1 1 0 0</posList></LinearRing></exterior></Polygon>`},
		{"odd ordinates", `<Polygon><exterior><LinearRing><posList>0 0 1 0 1</posList></LinearRing></exterior></Polygon>`},
		{"too few positions", `<Polygon><exterior><LinearRing><posList>0 0 1 1</posList></LinearRing></exterior></Polygon>`},
		{"no rings", `<Polygon></Polygon>`},
	}

	backend := NewGMLBackend()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.Convert(tt.fragment, "2154", 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrGeometryConversion))
		})
	}
}

func TestGMLBackend_ConvertDeclaredNamespaces(t *testing.T) {
	backend := NewGMLBackend()
	tests := []struct {
		name     string
		fragment string
	}{
		{
			name: "declared on the member",
			fragment: `<gml:Polygon xmlns:gml="http://www.opengis.net/gml/3.2" gml:id="p1"><gml:exterior><gml:LinearRing>` +
				`<gml:posList>0 0 10 0 10 10 0 10 0 0</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>`,
		},
		{
			name:     "declared outside the member",
			fragment: square,
		},
		{
			name: "default namespace",
			fragment: `<Polygon xmlns="http://www.opengis.net/gml"><exterior><LinearRing>` +
				`<posList>0 0 10 0 10 10 0 10 0 0</posList></LinearRing></exterior></Polygon>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := backend.Convert(tt.fragment, "2154", 2)
			require.NoError(t, err)
			assert.InDelta(t, 100.0, p.Area(), 1e-9)
		})
	}
}

func TestMerge(t *testing.T) {
	other := `<gml:Polygon><gml:exterior><gml:LinearRing>` +
		`<gml:posList>20 20 30 20 30 30 20 30 20 20</gml:posList>` +
		`</gml:LinearRing></gml:exterior></gml:Polygon>`

	b, err := Merge(NewGMLBackend(), declaration.Boundary{
		SRSName:             "EPSG:2154",
		SpatialReferenceID:  "2154",
		CoordinateDimension: "2",
		Fragments:           []string{square, other},
	})
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.Equal(t, 2, b.Polygons())
	assert.InDelta(t, 200, b.Area(), 1e-9)
	assert.Equal(t, "2154", b.EPSG)

	text, err := b.WKT()
	require.NoError(t, err)
	assert.Equal(t, "MULTIPOLYGON (((0 0, 10 0, 10 10, 0 10, 0 0)), ((20 20, 30 20, 30 30, 20 30, 20 20)))", text)
}

func TestMerge_EmptyAndFailing(t *testing.T) {
	b, err := Merge(NewGMLBackend(), declaration.Boundary{})
	assert.NoError(t, err)
	assert.Nil(t, b)

	text, err := b.WKT()
	assert.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = Merge(NewGMLBackend(), declaration.Boundary{Fragments: []string{"<broken"}})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeGeometryConversion, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "member 1")
}

func TestMerge_FromParsedFiling(t *testing.T) {
	doc, err := declaration.Parse("../declaration/testdata/dt.xml")
	require.NoError(t, err)

	b, err := Merge(NewGMLBackend(), doc.Boundary)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Polygons())
	assert.InDelta(t, 200, b.Area(), 1e-9)
}
