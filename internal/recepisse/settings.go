package recepisse

// OperatorSettings holds the network operator block printed on every
// receipt. Fields left empty are not emitted.
type OperatorSettings struct {
	RaisonSociale      string `mapstructure:"coordDenom" yaml:"coordDenom" json:"coordDenom,omitempty"`
	Contact            string `mapstructure:"coordPersonne" yaml:"coordPersonne" json:"coordPersonne,omitempty"`
	NoVoie             string `mapstructure:"coordNumVoie" yaml:"coordNumVoie" json:"coordNumVoie,omitempty"`
	LieuditBP          string `mapstructure:"coordBP" yaml:"coordBP" json:"coordBP,omitempty"`
	CodePostal         string `mapstructure:"coordCP" yaml:"coordCP" json:"coordCP,omitempty"`
	Commune            string `mapstructure:"coordCommune" yaml:"coordCommune" json:"coordCommune,omitempty"`
	Tel                string `mapstructure:"coordTel" yaml:"coordTel" json:"coordTel,omitempty"`
	Fax                string `mapstructure:"coordFax" yaml:"coordFax" json:"coordFax,omitempty"`
	CategorieReseau    string `mapstructure:"categorieReseau" yaml:"categorieReseau" json:"categorieReseau,omitempty"`
	Representant       string `mapstructure:"representant" yaml:"representant" json:"representant,omitempty"`
	TelModification    string `mapstructure:"telModification" yaml:"telModification" json:"telModification,omitempty"`
	TelEndommagement   string `mapstructure:"telEndommagement" yaml:"telEndommagement" json:"telEndommagement,omitempty"`
	Endommagement      string `mapstructure:"endommagement" yaml:"endommagement" json:"endommagement,omitempty"`
	ResponsableNom     string `mapstructure:"respNom" yaml:"respNom" json:"respNom,omitempty"`
	ResponsableService string `mapstructure:"respService" yaml:"respService" json:"respService,omitempty"`
	ResponsableTel     string `mapstructure:"respTel" yaml:"respTel" json:"respTel,omitempty"`
	SignataireNom      string `mapstructure:"signNom" yaml:"signNom" json:"signNom,omitempty"`
}

// Assignment is one form tag and the value to put in it.
type Assignment struct {
	Tag   string
	Value string
}

// Entries returns the operator block in form order, empty values included.
func (s OperatorSettings) Entries() []Assignment {
	return []Assignment{
		{"RaisonSocialeExploitant", s.RaisonSociale},
		{"ContactExploitant", s.Contact},
		{"NoVoieExploitant", s.NoVoie},
		{"LieuditBPExploitant", s.LieuditBP},
		{"CodePostalExploitant", s.CodePostal},
		{"CommuneExploitant", s.Commune},
		{"TelExploitant", s.Tel},
		{"FaxExploitant", s.Fax},
		{"CategorieReseau1", s.CategorieReseau},
		{"RepresentantExploitant", s.Representant},
		{"TelModification", s.TelModification},
		{"TelEndommagement", s.TelEndommagement},
		{"Endommagement", s.Endommagement},
		{"NomResponsableDossier", s.ResponsableNom},
		{"DésignationService", s.ResponsableService},
		{"TelResponsableDossier", s.ResponsableTel},
		{"NomSignataire", s.SignataireNom},
	}
}

// Map returns the non-empty settings keyed by form tag.
func (s OperatorSettings) Map() map[string]string {
	out := make(map[string]string)
	for _, a := range s.Entries() {
		if a.Value != "" {
			out[a.Tag] = a.Value
		}
	}
	return out
}
