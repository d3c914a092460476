package service

import (
	"github.com/a3tai/mcp-dtdict/internal/fields"
	"github.com/a3tai/mcp-dtdict/internal/pdf"
	"github.com/a3tai/mcp-dtdict/internal/register"
)

// InspectResult describes a parsed filing without producing anything.
type InspectResult struct {
	Path          string     `json:"path" yaml:"path"`
	Kind          string     `json:"kind" yaml:"kind"`
	NoTeleservice string     `json:"no_teleservice" yaml:"no_teleservice"`
	Fields        fields.Map `json:"fields" yaml:"fields"`
	SRSName       string     `json:"srs_name,omitempty" yaml:"srs_name,omitempty"`
	EPSG          string     `json:"epsg,omitempty" yaml:"epsg,omitempty"`
	Members       int        `json:"members" yaml:"members"`
	Polygons      int        `json:"polygons" yaml:"polygons"`
	Area          float64    `json:"area,omitempty" yaml:"area,omitempty"`
	WKT           string     `json:"wkt,omitempty" yaml:"wkt,omitempty"`
	GeometryError string     `json:"geometry_error,omitempty" yaml:"geometry_error,omitempty"`
}

// ProcessResult reports what Process produced for one filing.
type ProcessResult struct {
	Path            string   `json:"path" yaml:"path"`
	Kind            string   `json:"kind" yaml:"kind"`
	NoTeleservice   string   `json:"no_teleservice" yaml:"no_teleservice"`
	ReceiptName     string   `json:"receipt_name" yaml:"receipt_name"`
	MapName         string   `json:"map_name" yaml:"map_name"`
	OutputDirectory string   `json:"output_directory" yaml:"output_directory"`
	FDFPath         string   `json:"fdf_path,omitempty" yaml:"fdf_path,omitempty"`
	PDFPath         string   `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	Entries         int      `json:"entries" yaml:"entries"`
	MissingTags     []string `json:"missing_tags,omitempty" yaml:"missing_tags,omitempty"`
	RecordID        string   `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Warnings        []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// CloseResult reports a closed dossier.
type CloseResult struct {
	NoTeleservice   string           `json:"no_teleservice" yaml:"no_teleservice"`
	Days            int              `json:"days" yaml:"days"`
	Message         string           `json:"message" yaml:"message"`
	OutputDirectory string           `json:"output_directory" yaml:"output_directory"`
	Annexes         []string         `json:"annexes,omitempty" yaml:"annexes,omitempty"`
	Archive         string           `json:"archive" yaml:"archive"`
	Archived        []string         `json:"archived,omitempty" yaml:"archived,omitempty"`
	Record          *register.Record `json:"record" yaml:"record"`
}

// Info summarizes the running configuration and the work waiting.
type Info struct {
	Name            string   `json:"name" yaml:"name"`
	Version         string   `json:"version" yaml:"version"`
	XMLDirectory    string   `json:"xml_directory" yaml:"xml_directory"`
	OutputDirectory string   `json:"output_directory" yaml:"output_directory"`
	Template        string   `json:"template,omitempty" yaml:"template,omitempty"`
	Filler          string   `json:"filler" yaml:"filler"`
	Fill            bool     `json:"fill" yaml:"fill"`
	Database        string   `json:"database" yaml:"database"`
	Pending         []string `json:"pending" yaml:"pending"`
	OpenDossiers    int      `json:"open_dossiers" yaml:"open_dossiers"`
	ClosedDossiers  int      `json:"closed_dossiers" yaml:"closed_dossiers"`
}

// TemplateReport lists the fields of a receipt form.
type TemplateReport struct {
	Template    string              `json:"template" yaml:"template"`
	Pages       int                 `json:"pages" yaml:"pages"`
	Fields      []pdf.TemplateField `json:"fields" yaml:"fields"`
	Filing      string              `json:"filing,omitempty" yaml:"filing,omitempty"`
	MissingTags []string            `json:"missing_tags,omitempty" yaml:"missing_tags,omitempty"`
}
