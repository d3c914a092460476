package declaration

import "github.com/a3tai/mcp-dtdict/internal/fields"

// Document is the read-only result of parsing one filing.
type Document struct {
	Kind              Kind       `json:"-" yaml:"-"`
	TypeDemande       string     `json:"type_demande" yaml:"type_demande"`
	TeleserviceNumber string     `json:"no_teleservice" yaml:"no_teleservice"`
	Fields            fields.Map `json:"fields" yaml:"fields"`
	Boundary          Boundary   `json:"boundary" yaml:"boundary"`
	SourcePath        string     `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Boundary is the works-area block of a filing. Fragments are raw GML
// members in source order; merging them is left to a geometry backend.
type Boundary struct {
	SRSName             string   `json:"srs_name,omitempty" yaml:"srs_name,omitempty"`
	SpatialReferenceID  string   `json:"epsg,omitempty" yaml:"epsg,omitempty"`
	CoordinateDimension string   `json:"srs_dimension,omitempty" yaml:"srs_dimension,omitempty"`
	Fragments           []string `json:"fragments,omitempty" yaml:"fragments,omitempty"`
}

// Empty reports whether the filing declared no boundary member.
func (b Boundary) Empty() bool {
	return len(b.Fragments) == 0
}

func (b Boundary) clone() Boundary {
	out := b
	if b.Fragments != nil {
		out.Fragments = make([]string, len(b.Fragments))
		copy(out.Fragments, b.Fragments)
	}
	return out
}
