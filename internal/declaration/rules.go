package declaration

import "github.com/a3tai/mcp-dtdict/internal/fields"

// rule is one optional lookup: the first node matched by path becomes key.
// When path yields nothing, fallback (if any) is tried.
type rule struct {
	key      string
	path     string
	fallback string
}

var dtRules = []rule{
	{key: fields.DecAffaire, path: "/descendant::{ts}DT/{ts}noAffaireDuResponsableDuProjet"},
	{key: fields.DeclarationAt, path: "/descendant::{ts}DT/{ts}dateDeLaDeclaration"},
	{key: fields.DecTypeEntite, path: "/descendant::{ts}DT/{ts}typeEntite"},
	{key: fields.TvxCommune, path: "/descendant::{ts}DT/{ts}emplacementDuProjet/{ts}communePrincipale"},
	{key: fields.TvxCodeINSEE, path: "/descendant::{ts}DT/{ts}emplacementDuProjet/{ts}codeINSEE"},
	{key: fields.TvxAdresse, path: "/descendant::{ts}DT/{ts}emplacementDuProjet/{ts}adresse"},
	{key: fields.DecDenomination, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}denomination"},
	{key: fields.DecNoVoie, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}numero"},
	{key: fields.DecVoie, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}voie"},
	{key: fields.DecLieuditBP, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}lieuDitBP"},
	{key: fields.DecAdresse2, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}adresse2"},
	{key: fields.DecCodePostal, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}codePostal"},
	{key: fields.DecCommune, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}commune"},
	// The DT schema places the country under the project owner, not its representative.
	{key: fields.DecPays, path: "/descendant::{ts}DT/{ts}responsableDuProjet/{ts}pays"},
	{key: fields.DecContact, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}personneAcontacter"},
	{key: fields.DecEmail, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}courriel"},
	{key: fields.DecTel, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}tel"},
	{key: fields.DecFax, path: "/descendant::{ts}DT/{ts}representantDuResponsableDeProjet/{ts}fax"},
}

var dictRules = []rule{
	{key: fields.DecAffaire, path: "/descendant::{ts}DICT/{ts}noAffaireDeLexecutantDesTravaux"},
	{key: fields.DeclarationAt, path: "/descendant::{ts}DICT/{ts}dateDeLaDeclaration"},
	{key: fields.TvxCommune, path: "/descendant::{ts}DICT/{ts}emplacementDesTravaux/{ts}communePrincipale"},
	{key: fields.TvxCodeINSEE, path: "/descendant::{ts}DICT/{ts}emplacementDesTravaux/{ts}codeINSEE"},
	{key: fields.TvxAdresse, path: "/descendant::{ts}DICT/{ts}emplacementDesTravaux/{ts}adresse"},
	{key: fields.DecSiret, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}noSiret"},
	{key: fields.DecDenomination, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}denomination"},
	{key: fields.DecNoVoie, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}numero"},
	{key: fields.DecVoie, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}voie"},
	{key: fields.DecLieuditBP, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}lieuDitBP"},
	{key: fields.DecAdresse2, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}complementService"},
	{key: fields.DecCodePostal, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}codePostal"},
	{key: fields.DecCommune, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}commune"},
	{key: fields.DecPays, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}pays"},
	{key: fields.DecContact, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}nomDeLaPersonneAContacter"},
	{key: fields.DecEmail, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}courriel"},
	{key: fields.DecTel, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}tel"},
	{key: fields.DecFax, path: "/descendant::{ts}DICT/{ts}executantDesTravaux/{ts}fax"},
}

// DC filings nest a DT part and a DICT part under dtDictConjointes.
var dcRules = []rule{
	{key: fields.DecAffaire, path: "/descendant::{ts}partieDICT/{ts}noAffaireDeLexecutantDesTravaux"},
	{key: fields.DeclarationAt, path: "/descendant::{ts}dtDictConjointes/{ts}dateDeLaDeclaration"},
	{key: fields.DecTypeEntite, path: "/descendant::{ts}partieDT/{ts}typeEntite"},
	{key: fields.TvxCommune, path: "/descendant::{ts}partieDICT/{ts}emplacementDesTravaux/{ts}communePrincipale"},
	{key: fields.TvxCodeINSEE, path: "/descendant::{ts}partieDICT/{ts}emplacementDesTravaux/{ts}codeINSEE"},
	{key: fields.TvxAdresse, path: "/descendant::{ts}partieDICT/{ts}emplacementDesTravaux/{ts}adresse"},
	{key: fields.DecDenomination, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}denomination"},
	{key: fields.DecNoVoie, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}numero"},
	{key: fields.DecVoie, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}voie"},
	{key: fields.DecLieuditBP, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}lieuDitBP"},
	{key: fields.DecAdresse2, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}complementService"},
	{key: fields.DecCodePostal, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}codePostal"},
	{key: fields.DecCommune, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}commune"},
	{key: fields.DecPays, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}pays"},
	{key: fields.DecContact, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}nomDeLaPersonneAContacter"},
	{key: fields.DecEmail, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}courriel"},
	{key: fields.DecTel, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}tel"},
	{key: fields.DecFax, path: "/descendant::{ts}partieDICT/{ts}executantDesTravaux/{ts}fax"},
}

var atuRules = []rule{
	{key: fields.DeclarationAt, path: "/descendant::{ts}ATU/{ts}date"},
	{
		key:      fields.TvxCommune,
		path:     "/descendant::{ts}ATU/{ts}travauxEmplacementDureeDescription/{ts}commune",
		fallback: "/descendant::{ts}listeDesEmplacementsDesCommunesConcerneesATU/{ts}emplacementDeLaCommuneConcernee/{ts}nomDeLaCommune",
	},
	{key: fields.TvxCodeINSEE, path: "/descendant::{ts}listeDesEmplacementsDesCommunesConcerneesATU/{ts}emplacementDeLaCommuneConcernee/{ts}codeINSEE"},
	{key: fields.TvxAdresse, path: "/descendant::{ts}ATU/{ts}travauxEmplacementDureeDescription/{ts}adresse"},
	{key: fields.DecDenomination, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}nom"},
	{key: fields.DecNoVoie, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}numero"},
	{key: fields.DecVoie, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}voie"},
	{key: fields.DecLieuditBP, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}lieuDitBP"},
	{key: fields.DecAdresse2, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}complementService"},
	{key: fields.DecCodePostal, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}codePostal"},
	{key: fields.DecCommune, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}commune"},
	{key: fields.DecPays, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}pays"},
	{key: fields.DecContact, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}nomDeLaPersonneAContacter"},
	{key: fields.DecEmail, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}courriel"},
	{key: fields.DecTel, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}tel"},
	{key: fields.DecFax, path: "/descendant::{ts}ATU/{ts}personneOrdonnantLesTravauxUrgents/{ts}fax"},
}

// planRules apply to DT, DICT and DC; ATU filings carry no reception preferences.
var planRules = []rule{
	{key: fields.TailleDesPlans, path: "/descendant::{ts}modeReceptionElectronique/{ts}tailleDesPlans"},
	{key: fields.CouleurDesPlans, path: "/descendant::{ts}modeReceptionElectronique/{ts}couleurDesPlans"},
	{key: fields.PlansVectoriels, path: "/descendant::{ts}modeReceptionElectronique/{ts}souhaitDePlansVectoriels"},
}

func rulesFor(k Kind) []rule {
	switch k {
	case KindDT:
		return dtRules
	case KindDICT:
		return dictRules
	case KindDC:
		return dcRules
	case KindATU:
		return atuRules
	default:
		return nil
	}
}

const (
	// The namespace of the body element is checked by the parser.
	pathDeclarationBody = "/{ts}dossierConsultation/*"
	pathTeleservice     = "/{ts}dossierConsultation/*/{ts}noConsultationDuTeleservice"
	pathTeleservice16   = "/{ts}dossierConsultation/*/{ts}noConsultationDuTeleserviceSeize"
	pathGeometry        = "/descendant::{ts}emprise/{ts}geometrie"
	pathSurfaceMembers  = "/descendant::{ts}emprise/{ts}geometrie/{gml}surfaceMembers/*"
)
