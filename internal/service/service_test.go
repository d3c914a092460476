package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-dtdict/internal/config"
	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/fdf"
	"github.com/a3tai/mcp-dtdict/internal/recepisse"
	"github.com/a3tai/mcp-dtdict/internal/register"
)

const (
	dictNumber = "2024040200077"
	dtNumber   = "2024031500123A01"
)

// recordingFiller stands in for pdfcpu and pdftk.
type recordingFiller struct {
	calls []string
	err   error
}

func (f *recordingFiller) Name() string { return "recording" }

func (f *recordingFiller) Fill(_ context.Context, template string, buf *fdf.Buffer, out string) error {
	f.calls = append(f.calls, out)
	if f.err != nil {
		return f.err
	}
	data, err := buf.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

type env struct {
	cfg    *config.Config
	svc    *Service
	filler *recordingFiller
	store  *register.Store
}

func newEnv(t *testing.T, modify func(*config.Config)) *env {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.XMLDirectory = filepath.Join(root, "in")
	cfg.OutputDirectory = filepath.Join(root, "out")
	cfg.AnnexesDirectory = filepath.Join(root, "annexes")
	cfg.Database = filepath.Join(root, "register.db")
	cfg.Operator = recepisse.OperatorSettings{RaisonSociale: "Regie de Golbey", CodePostal: "88190"}
	if modify != nil {
		modify(cfg)
	}
	require.NoError(t, os.MkdirAll(cfg.XMLDirectory, 0o755))

	for _, name := range []string{"dict.xml", "dt.xml", "unknown.xml", "broken.xml"} {
		data, err := os.ReadFile(filepath.Join("..", "declaration", "testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(cfg.XMLDirectory, name), data, 0o644))
	}

	store, err := register.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	filler := &recordingFiller{}
	svc, err := New(cfg,
		WithRegister(store),
		WithFiller(filler),
		WithBuilderOptions(recepisse.WithClock(func() time.Time {
			return time.Date(2024, 4, 3, 9, 0, 0, 0, time.UTC)
		})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return &env{cfg: cfg, svc: svc, filler: filler, store: store}
}

// writeBlankPDF writes a one-page PDF without form fields.
func writeBlankPDF(t *testing.T, path string) {
	t.Helper()
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.XMLDirectory = t.TempDir()
	cfg.OutputDirectory = t.TempDir()
	cfg.Database = filepath.Join(t.TempDir(), "register.db")
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, svc.Config())
	assert.NoError(t, svc.Close(), "owned register is closed")

	cfg.Filler = "acrobat"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestService_ProcessDICT(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	result, err := e.svc.Process(ctx, "dict.xml")
	require.NoError(t, err)

	assert.Equal(t, "DICT", result.Kind)
	assert.Equal(t, dictNumber, result.NoTeleservice)
	assert.Equal(t, "Recepisse-DICT-"+dictNumber, result.ReceiptName)
	assert.Equal(t, "Plan-DICT-"+dictNumber, result.MapName)
	assert.Equal(t, e.cfg.OutputDirectory, result.OutputDirectory)
	assert.Equal(t, filepath.Join(e.cfg.OutputDirectory, result.ReceiptName+".fdf"), result.FDFPath)
	assert.Empty(t, result.PDFPath, "fill is off")
	assert.Empty(t, e.filler.calls)
	assert.NotZero(t, result.Entries)
	assert.NotEmpty(t, result.RecordID)

	data, err := os.ReadFile(result.FDFPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%FDF-1.4\n")))
	assert.Contains(t, string(data), "/F ("+result.ReceiptName+".pdf)")
	assert.Contains(t, string(data), "<</V("+dictNumber+")/T(NoGU)>>")
	assert.Contains(t, string(data), "<</V(Regie de Golbey)/T(RaisonSocialeExploitant)>>")
	assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))

	rec, err := e.svc.Dossier(ctx, dictNumber)
	require.NoError(t, err)
	assert.Equal(t, result.RecordID, rec.ID)
	assert.Equal(t, "DICT", rec.TypeDemande)
	assert.Equal(t, "dict.xml", rec.Filename)
	assert.Equal(t, "Golbey", rec.TvxCommune)
	assert.Equal(t, "Regie de Golbey", rec.ExpRaisonSociale)
	assert.Equal(t, "88190", rec.ExpCodePostal)
	require.NotNil(t, rec.DeclarationAt)
	assert.True(t, rec.DeclarationAt.Equal(time.Date(2024, 4, 2, 8, 30, 0, 0, time.UTC)))
	require.NotNil(t, rec.ReceptionAt)
	assert.Empty(t, rec.BoundaryWKT, "DICT fixture has no boundary")
}

func TestService_ProcessRecordsBoundary(t *testing.T) {
	e := newEnv(t, nil)

	result, err := e.svc.Process(context.Background(), filepath.Join(e.cfg.XMLDirectory, "dt.xml"))
	require.NoError(t, err)
	assert.Equal(t, "DT", result.Kind)

	rec, err := e.store.Get(context.Background(), dtNumber)
	require.NoError(t, err)
	assert.Contains(t, rec.BoundaryWKT, "MULTIPOLYGON")
	assert.Equal(t, "2154", rec.EPSG)
}

func TestService_ProcessExpandsOutputDirectory(t *testing.T) {
	e := newEnv(t, func(c *config.Config) {
		c.OutputDirectory = filepath.Join(filepath.Dir(c.XMLDirectory), "out", "@dict_type_demande", "@dict_no_teleservice")
	})

	result, err := e.svc.Process(context.Background(), "dict.xml")
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(e.cfg.XMLDirectory), "out", "DICT", dictNumber)
	assert.Equal(t, want, result.OutputDirectory)
	assert.FileExists(t, filepath.Join(want, result.ReceiptName+".fdf"))
}

func TestService_ProcessFillsTemplate(t *testing.T) {
	var template string
	e := newEnv(t, func(c *config.Config) {
		template = filepath.Join(filepath.Dir(c.XMLDirectory), "recepisse.pdf")
		c.Template = template
		c.Fill = true
		c.CleanFDF = true
	})
	writeBlankPDF(t, template)

	result, err := e.svc.Process(context.Background(), "dict.xml")
	require.NoError(t, err)

	pdfPath := filepath.Join(e.cfg.OutputDirectory, result.ReceiptName+".pdf")
	assert.Equal(t, []string{pdfPath}, e.filler.calls)
	assert.Equal(t, pdfPath, result.PDFPath)
	assert.FileExists(t, pdfPath)
	assert.Empty(t, result.FDFPath, "FDF removed once the PDF is filled")
	assert.NoFileExists(t, filepath.Join(e.cfg.OutputDirectory, result.ReceiptName+".fdf"))
	assert.Contains(t, result.MissingTags, "NoGU", "blank template defines no field")
}

func TestService_ProcessFillFailure(t *testing.T) {
	var template string
	e := newEnv(t, func(c *config.Config) {
		template = filepath.Join(filepath.Dir(c.XMLDirectory), "recepisse.pdf")
		c.Template = template
		c.Fill = true
	})
	writeBlankPDF(t, template)
	e.filler.err = fmt.Errorf("form is locked")

	result, err := e.svc.Process(context.Background(), "dict.xml")
	assert.ErrorIs(t, err, errs.ErrFormFill)
	require.NotNil(t, result)
	assert.FileExists(t, result.FDFPath, "FDF is kept when filling fails")

	_, err = e.store.Get(context.Background(), dictNumber)
	assert.ErrorIs(t, err, register.ErrNotFound, "nothing recorded on failure")
}

func TestService_ProcessInvalidTemplate(t *testing.T) {
	e := newEnv(t, func(c *config.Config) {
		c.Template = filepath.Join(filepath.Dir(c.XMLDirectory), "missing.pdf")
		c.Fill = true
	})

	_, err := e.svc.Process(context.Background(), "dict.xml")
	assert.ErrorIs(t, err, errs.ErrFormFill)
	assert.Empty(t, e.filler.calls)
}

func TestService_ProcessRejects(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.svc.Process(ctx, "unknown.xml")
	assert.ErrorIs(t, err, errs.ErrUnrecognizedKind)

	_, err = e.svc.Process(ctx, "broken.xml")
	assert.ErrorIs(t, err, errs.ErrDocumentUnreadable)

	_, err = e.svc.Process(ctx, "missing.xml")
	assert.ErrorIs(t, err, errs.ErrDocumentUnreadable)

	_, err = e.svc.Process(ctx, "")
	assert.Error(t, err)

	outside := filepath.Join(t.TempDir(), "dict.xml")
	require.NoError(t, os.WriteFile(outside, []byte("<x/>"), 0o644))
	_, err = e.svc.Process(ctx, outside)
	assert.ErrorIs(t, err, errs.ErrSecurityRestriction)

	_, err = e.svc.Process(ctx, "../escape.xml")
	assert.ErrorIs(t, err, errs.ErrSecurityRestriction)

	entries, err := os.ReadDir(e.cfg.OutputDirectory)
	if err == nil {
		assert.Empty(t, entries, "nothing written for rejected filings")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.svc.Process(cancelled, "dict.xml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Inspect(t *testing.T) {
	e := newEnv(t, nil)

	result, err := e.svc.Inspect("dt.xml")
	require.NoError(t, err)

	assert.Equal(t, "DT", result.Kind)
	assert.Equal(t, dtNumber, result.NoTeleservice)
	assert.Equal(t, "2154", result.EPSG)
	assert.Equal(t, 2, result.Members)
	assert.Equal(t, 2, result.Polygons)
	assert.Greater(t, result.Area, 0.0)
	assert.Contains(t, result.WKT, "MULTIPOLYGON")
	assert.Empty(t, result.GeometryError)

	_, err = e.store.Get(context.Background(), dtNumber)
	assert.ErrorIs(t, err, register.ErrNotFound, "inspect records nothing")

	_, err = e.svc.Inspect("unknown.xml")
	assert.ErrorIs(t, err, errs.ErrUnrecognizedKind)
}

func TestService_CloseDossier(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(e.cfg.AnnexesDirectory, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.AnnexesDirectory, "guide.pdf"), []byte("guide"), 0o644))

	processed, err := e.svc.Process(ctx, "dict.xml")
	require.NoError(t, err)
	// the filled receipt would normally sit next to the FDF
	require.NoError(t, os.WriteFile(filepath.Join(processed.OutputDirectory, processed.ReceiptName+".pdf"), []byte("pdf"), 0o644))

	result, err := e.svc.CloseDossier(ctx, dictNumber, register.Closure{
		ResponseAt: time.Date(2024, 4, 5, 16, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Days)
	assert.Equal(t, "Dossier DICT clôturé en 3 jours", result.Message)
	assert.Equal(t, []string{"guide.pdf"}, result.Annexes)
	assert.Equal(t, filepath.Join(e.cfg.OutputDirectory, dictNumber+".zip"), result.Archive)
	assert.Equal(t, []string{processed.ReceiptName + ".pdf", "guide.pdf"}, result.Archived)
	assert.True(t, result.Record.Closed())

	r, err := zip.OpenReader(result.Archive)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, r.File, 2, "FDF and archive are left out")

	_, err = e.svc.CloseDossier(ctx, "unknown", register.Closure{})
	assert.ErrorIs(t, err, register.ErrNotFound)
	_, err = e.svc.CloseDossier(ctx, " ", register.Closure{})
	assert.ErrorIs(t, err, errs.ErrFieldAbsent)
}

func TestService_InfoAndExport(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.svc.Process(ctx, "dict.xml")
	require.NoError(t, err)
	_, err = e.svc.Process(ctx, "dt.xml")
	require.NoError(t, err)
	_, err = e.svc.CloseDossier(ctx, dtNumber, register.Closure{})
	require.NoError(t, err)

	info, err := e.svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mcp-dtdict", info.Name)
	assert.Equal(t, "recording", info.Filler)
	assert.Equal(t, []string{"broken.xml", "dict.xml", "dt.xml", "unknown.xml"}, info.Pending)
	assert.Equal(t, 1, info.OpenDossiers)
	assert.Equal(t, 1, info.ClosedDossiers)

	open, err := e.svc.Dossiers(ctx, register.Filter{State: register.StateOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, dictNumber, open[0].NoTeleservice)

	out := filepath.Join(t.TempDir(), "register.xlsx")
	n, err := e.svc.ExportRegister(ctx, out, register.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, out)
}

func TestService_CheckTemplate(t *testing.T) {
	var template string
	e := newEnv(t, func(c *config.Config) {
		template = filepath.Join(filepath.Dir(c.XMLDirectory), "recepisse.pdf")
		c.Template = template
	})
	writeBlankPDF(t, template)

	report, err := e.svc.CheckTemplate("", "")
	require.NoError(t, err)
	assert.Equal(t, template, report.Template)
	assert.Equal(t, 1, report.Pages)
	assert.Empty(t, report.Fields)
	assert.Empty(t, report.MissingTags)

	report, err = e.svc.CheckTemplate(template, "dict.xml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.cfg.XMLDirectory, "dict.xml"), report.Filing)
	assert.Contains(t, report.MissingTags, "NoGU")
	assert.NoFileExists(t, filepath.Join(e.cfg.OutputDirectory, "Recepisse-DICT-"+dictNumber+".fdf"), "nothing written")

	_, err = e.svc.CheckTemplate(filepath.Join(t.TempDir(), "missing.pdf"), "")
	assert.ErrorIs(t, err, errs.ErrFormFill)

	_, err = e.svc.CheckTemplate(template, "unknown.xml")
	assert.ErrorIs(t, err, errs.ErrUnrecognizedKind)
}

func TestService_CheckTemplateUnset(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.svc.CheckTemplate("", "")
	assert.ErrorIs(t, err, errs.ErrFormFill)
}
