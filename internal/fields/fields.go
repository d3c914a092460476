// Package fields defines the field-key vocabulary shared by the declaration
// parser and the receipt builder.
package fields

import "sort"

// Keys written by the declaration parser.
const (
	TypeDemande     = "type_demande"
	NoTeleservice   = "no_teleservice"
	TvxCommune      = "tvx_commune"
	TvxCodeINSEE    = "tvx_code_insee"
	TvxAdresse      = "tvx_adresse"
	TvxDescription  = "tvx_description"
	DecDenomination = "dec_denomination"
	DecTypeEntite   = "dec_type_entite"
	DecSiret        = "dec_siret"
	DecAdresse2     = "dec_adresse2"
	DecNoVoie       = "dec_no_voie"
	DecVoie         = "dec_voie"
	DecLieuditBP    = "dec_lieudit_bp"
	DecCodePostal   = "dec_code_postal"
	DecCommune      = "dec_commune"
	DecPays         = "dec_pays"
	DecContact      = "dec_contact"
	DecEmail        = "dec_email"
	DecTel          = "dec_tel"
	DecFax          = "dec_fax"
	DecAffaire      = "dec_affaire"
	DeclarationAt   = "declaration_at"
	TailleDesPlans  = "taille_des_plans"
	CouleurDesPlans = "couleur_des_plans"
	PlansVectoriels = "plans_vectoriels"
)

var vocabulary = []string{
	TypeDemande, NoTeleservice,
	TvxCommune, TvxCodeINSEE, TvxAdresse, TvxDescription,
	DecDenomination, DecTypeEntite, DecSiret, DecAdresse2, DecNoVoie, DecVoie,
	DecLieuditBP, DecCodePostal, DecCommune, DecPays, DecContact, DecEmail,
	DecTel, DecFax, DecAffaire, DeclarationAt,
	TailleDesPlans, CouleurDesPlans, PlansVectoriels,
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(vocabulary))
	for _, k := range vocabulary {
		m[k] = true
	}
	return m
}()

// Vocabulary returns every key the parser may write, in declaration order.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// IsKnown reports whether key belongs to the vocabulary.
func IsKnown(key string) bool {
	return known[key]
}

// Map holds extracted field values. A missing key means the element was not
// declared; an empty value means it was declared empty.
type Map map[string]string

// Lookup returns the value for key and whether it is present.
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Get returns the value for key or "" when absent.
func (m Map) Get(key string) string {
	return m[key]
}

// Keys returns the present keys sorted alphabetically.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
