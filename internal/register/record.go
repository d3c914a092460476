// Package register keeps the "en cours" dossier register: one record per
// teleservice number, updated on every processed filing and closed once the
// operator has answered.
package register

import (
	"time"

	"github.com/a3tai/mcp-dtdict/internal/fields"
)

// Dossier states.
const (
	StateOpen   = "en"
	StateClosed = "re"
)

// Record is one row of the register.
type Record struct {
	ID            string `db:"id" json:"id" yaml:"id"`
	NoTeleservice string `db:"no_teleservice" json:"no_teleservice" yaml:"no_teleservice"`
	TypeDemande   string `db:"type_demande" json:"type_demande" yaml:"type_demande"`
	Filename      string `db:"filename" json:"filename" yaml:"filename"`

	TvxCommune     string `db:"tvx_commune" json:"tvx_commune,omitempty" yaml:"tvx_commune,omitempty"`
	TvxCodeINSEE   string `db:"tvx_code_insee" json:"tvx_code_insee,omitempty" yaml:"tvx_code_insee,omitempty"`
	TvxAdresse     string `db:"tvx_adresse" json:"tvx_adresse,omitempty" yaml:"tvx_adresse,omitempty"`
	TvxDescription string `db:"tvx_description" json:"tvx_description,omitempty" yaml:"tvx_description,omitempty"`

	DecDenomination string `db:"dec_denomination" json:"dec_denomination,omitempty" yaml:"dec_denomination,omitempty"`
	DecTypeEntite   string `db:"dec_type_entite" json:"dec_type_entite,omitempty" yaml:"dec_type_entite,omitempty"`
	DecSiret        string `db:"dec_siret" json:"dec_siret,omitempty" yaml:"dec_siret,omitempty"`
	DecAdresse2     string `db:"dec_adresse2" json:"dec_adresse2,omitempty" yaml:"dec_adresse2,omitempty"`
	DecNoVoie       string `db:"dec_no_voie" json:"dec_no_voie,omitempty" yaml:"dec_no_voie,omitempty"`
	DecLieuditBP    string `db:"dec_lieudit_bp" json:"dec_lieudit_bp,omitempty" yaml:"dec_lieudit_bp,omitempty"`
	DecCodePostal   string `db:"dec_code_postal" json:"dec_code_postal,omitempty" yaml:"dec_code_postal,omitempty"`
	DecCommune      string `db:"dec_commune" json:"dec_commune,omitempty" yaml:"dec_commune,omitempty"`
	DecPays         string `db:"dec_pays" json:"dec_pays,omitempty" yaml:"dec_pays,omitempty"`
	DecContact      string `db:"dec_contact" json:"dec_contact,omitempty" yaml:"dec_contact,omitempty"`
	DecEmail        string `db:"dec_email" json:"dec_email,omitempty" yaml:"dec_email,omitempty"`
	DecTel          string `db:"dec_tel" json:"dec_tel,omitempty" yaml:"dec_tel,omitempty"`
	DecFax          string `db:"dec_fax" json:"dec_fax,omitempty" yaml:"dec_fax,omitempty"`
	DecAffaire      string `db:"dec_affaire" json:"dec_affaire,omitempty" yaml:"dec_affaire,omitempty"`

	ExpRaisonSociale string `db:"exp_raison_sociale" json:"exp_raison_sociale,omitempty" yaml:"exp_raison_sociale,omitempty"`
	ExpContact       string `db:"exp_contact" json:"exp_contact,omitempty" yaml:"exp_contact,omitempty"`
	ExpNoVoie        string `db:"exp_no_voie" json:"exp_no_voie,omitempty" yaml:"exp_no_voie,omitempty"`
	ExpAdresse2      string `db:"exp_adresse2" json:"exp_adresse2,omitempty" yaml:"exp_adresse2,omitempty"`
	ExpLieuditBP     string `db:"exp_lieudit_bp" json:"exp_lieudit_bp,omitempty" yaml:"exp_lieudit_bp,omitempty"`
	ExpCodePostal    string `db:"exp_code_postal" json:"exp_code_postal,omitempty" yaml:"exp_code_postal,omitempty"`
	ExpCommune       string `db:"exp_commune" json:"exp_commune,omitempty" yaml:"exp_commune,omitempty"`
	ExpTelephone     string `db:"exp_telephone" json:"exp_telephone,omitempty" yaml:"exp_telephone,omitempty"`
	ExpFax           string `db:"exp_fax" json:"exp_fax,omitempty" yaml:"exp_fax,omitempty"`
	ExpRepresentant  string `db:"exp_representant" json:"exp_representant,omitempty" yaml:"exp_representant,omitempty"`
	ExpTelModif      string `db:"exp_tel_modif" json:"exp_tel_modif,omitempty" yaml:"exp_tel_modif,omitempty"`
	ExpTelDommage    string `db:"exp_tel_dommage" json:"exp_tel_dommage,omitempty" yaml:"exp_tel_dommage,omitempty"`
	ExpRespDossier   string `db:"exp_resp_dossier" json:"exp_resp_dossier,omitempty" yaml:"exp_resp_dossier,omitempty"`
	ExpSignataire    string `db:"exp_signataire" json:"exp_signataire,omitempty" yaml:"exp_signataire,omitempty"`

	BoundaryWKT string `db:"boundary_wkt" json:"boundary_wkt,omitempty" yaml:"boundary_wkt,omitempty"`
	EPSG        string `db:"epsg" json:"epsg,omitempty" yaml:"epsg,omitempty"`

	State          string     `db:"etat" json:"etat" yaml:"etat"`
	DeclarationAt  *time.Time `db:"declaration_at" json:"declaration_at,omitempty" yaml:"declaration_at,omitempty"`
	ReceptionAt    *time.Time `db:"reception_at" json:"reception_at,omitempty" yaml:"reception_at,omitempty"`
	TransmissionAt *time.Time `db:"transmission_at" json:"transmission_at,omitempty" yaml:"transmission_at,omitempty"`
	RetourAt       *time.Time `db:"retour_at" json:"retour_at,omitempty" yaml:"retour_at,omitempty"`
	ReponseAt      *time.Time `db:"reponse_at" json:"reponse_at,omitempty" yaml:"reponse_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// NewRecord copies the declaration fields of a parsed filing into a record.
func NewRecord(f fields.Map) *Record {
	return &Record{
		NoTeleservice:   f.Get(fields.NoTeleservice),
		TypeDemande:     f.Get(fields.TypeDemande),
		TvxCommune:      f.Get(fields.TvxCommune),
		TvxCodeINSEE:    f.Get(fields.TvxCodeINSEE),
		TvxAdresse:      f.Get(fields.TvxAdresse),
		TvxDescription:  f.Get(fields.TvxDescription),
		DecDenomination: f.Get(fields.DecDenomination),
		DecTypeEntite:   f.Get(fields.DecTypeEntite),
		DecSiret:        f.Get(fields.DecSiret),
		DecAdresse2:     f.Get(fields.DecAdresse2),
		DecNoVoie:       f.Get(fields.DecNoVoie),
		DecLieuditBP:    f.Get(fields.DecLieuditBP),
		DecCodePostal:   f.Get(fields.DecCodePostal),
		DecCommune:      f.Get(fields.DecCommune),
		DecPays:         f.Get(fields.DecPays),
		DecContact:      f.Get(fields.DecContact),
		DecEmail:        f.Get(fields.DecEmail),
		DecTel:          f.Get(fields.DecTel),
		DecFax:          f.Get(fields.DecFax),
		DecAffaire:      f.Get(fields.DecAffaire),
		State:           StateOpen,
	}
}

// Closed reports whether the dossier was answered.
func (r *Record) Closed() bool {
	return r.State == StateClosed
}

// columns lists the table columns in Record order.
var columns = []string{
	"id", "no_teleservice", "type_demande", "filename",
	"tvx_commune", "tvx_code_insee", "tvx_adresse", "tvx_description",
	"dec_denomination", "dec_type_entite", "dec_siret", "dec_adresse2", "dec_no_voie",
	"dec_lieudit_bp", "dec_code_postal", "dec_commune", "dec_pays", "dec_contact",
	"dec_email", "dec_tel", "dec_fax", "dec_affaire",
	"exp_raison_sociale", "exp_contact", "exp_no_voie", "exp_adresse2", "exp_lieudit_bp",
	"exp_code_postal", "exp_commune", "exp_telephone", "exp_fax", "exp_representant",
	"exp_tel_modif", "exp_tel_dommage", "exp_resp_dossier", "exp_signataire",
	"boundary_wkt", "epsg",
	"etat", "declaration_at", "reception_at", "transmission_at", "retour_at", "reponse_at",
	"created_at", "updated_at",
}

// refreshed lists the columns an upsert overwrites on an existing record.
// State and closure dates belong to Close.
var refreshed = []string{
	"type_demande", "filename",
	"tvx_commune", "tvx_code_insee", "tvx_adresse", "tvx_description",
	"dec_denomination", "dec_type_entite", "dec_siret", "dec_adresse2", "dec_no_voie",
	"dec_lieudit_bp", "dec_code_postal", "dec_commune", "dec_pays", "dec_contact",
	"dec_email", "dec_tel", "dec_fax", "dec_affaire",
	"exp_raison_sociale", "exp_contact", "exp_no_voie", "exp_adresse2", "exp_lieudit_bp",
	"exp_code_postal", "exp_commune", "exp_telephone", "exp_fax", "exp_representant",
	"exp_tel_modif", "exp_tel_dommage", "exp_resp_dossier", "exp_signataire",
	"boundary_wkt", "epsg",
	"declaration_at", "reception_at",
	"updated_at",
}
