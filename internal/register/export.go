package register

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

// SheetName is the worksheet written by ExportXLSX.
const SheetName = "en_cours"

var exportHeader = []string{
	"no_teleservice", "type_demande", "etat", "filename",
	"tvx_commune", "tvx_code_insee", "tvx_adresse", "tvx_description",
	"dec_denomination", "dec_contact", "dec_email", "dec_tel", "dec_affaire",
	"declaration_at", "reception_at", "transmission_at", "retour_at", "reponse_at",
	"epsg", "boundary_wkt",
}

func exportRow(r Record) []interface{} {
	return []interface{}{
		r.NoTeleservice, r.TypeDemande, r.State, r.Filename,
		r.TvxCommune, r.TvxCodeINSEE, r.TvxAdresse, r.TvxDescription,
		r.DecDenomination, r.DecContact, r.DecEmail, r.DecTel, r.DecAffaire,
		formatDate(r.DeclarationAt), formatDate(r.ReceptionAt), formatDate(r.TransmissionAt),
		formatDate(r.RetourAt), formatDate(r.ReponseAt),
		r.EPSG, r.BoundaryWKT,
	}
}

// ExportXLSX writes the records matching filter to a spreadsheet at path and
// returns the number of records written.
func (s *Store) ExportXLSX(ctx context.Context, path string, filter Filter) (int, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeRegister, "cannot name worksheet", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeRegister, "cannot write header", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, errs.Wrap(errs.ErrorTypeRegister, "cannot address row", err)
		}
		row := exportRow(r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return 0, errs.Wrap(errs.ErrorTypeRegister, "cannot write row", err).WithContext(r.NoTeleservice)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeRegister, "cannot save spreadsheet", err).WithFile(path)
	}
	s.logger.Info("register exported", "path", path, "records", len(records))
	return len(records), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("02/01/2006 15:04")
}
