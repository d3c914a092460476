// Package service wires the declaration parser, the receipt builder, the
// form filler and the dossier register into the operations exposed by the
// MCP server and the command line.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/a3tai/mcp-dtdict/internal/archive"
	"github.com/a3tai/mcp-dtdict/internal/config"
	"github.com/a3tai/mcp-dtdict/internal/declaration"
	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/fdf"
	"github.com/a3tai/mcp-dtdict/internal/fields"
	"github.com/a3tai/mcp-dtdict/internal/geometry"
	"github.com/a3tai/mcp-dtdict/internal/pdf"
	"github.com/a3tai/mcp-dtdict/internal/pdf/security"
	"github.com/a3tai/mcp-dtdict/internal/recepisse"
	"github.com/a3tai/mcp-dtdict/internal/register"
)

// Register is the part of the dossier register the service needs.
type Register interface {
	Upsert(ctx context.Context, rec *register.Record) (*register.Record, error)
	Get(ctx context.Context, no string) (*register.Record, error)
	List(ctx context.Context, filter register.Filter) ([]register.Record, error)
	CloseDossier(ctx context.Context, no string, c register.Closure) (*register.Outcome, error)
	ExportXLSX(ctx context.Context, path string, filter register.Filter) (int, error)
	Delete(ctx context.Context, no string) error
}

// Service handles filings by orchestrating the receipt components
type Service struct {
	cfg       *config.Config
	logger    *slog.Logger
	validator *pdf.Validator
	paths     *security.PathValidator
	builder   *recepisse.Builder
	filler    pdf.Filler
	backend   geometry.Backend
	register  Register
	closer    func() error

	// Processing the same filing twice at once would race on its outputs.
	mu sync.Mutex

	templateOnce   sync.Once
	templateFields []pdf.TemplateField
	templateErr    error

	builderOpts []recepisse.Option
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFiller replaces the filler selected by the configuration.
func WithFiller(f pdf.Filler) Option {
	return func(s *Service) { s.filler = f }
}

// WithBackend replaces the GML geometry backend.
func WithBackend(b geometry.Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithRegister uses r instead of opening the configured database. The
// caller keeps ownership of r.
func WithRegister(r Register) Option {
	return func(s *Service) { s.register = r }
}

// WithBuilderOptions passes options to the receipt builder.
func WithBuilderOptions(opts ...recepisse.Option) Option {
	return func(s *Service) { s.builderOpts = append(s.builderOpts, opts...) }
}

// New creates a service for cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	s := &Service{
		cfg:       cfg,
		logger:    slog.Default(),
		validator: pdf.NewValidator(cfg.MaxFileSize),
	}
	for _, opt := range opts {
		opt(s)
	}

	paths, err := security.NewPathValidator(cfg.Roots()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	s.paths = paths

	s.builder = recepisse.NewBuilder(cfg.Operator, append([]recepisse.Option{recepisse.WithLogger(s.logger)}, s.builderOpts...)...)

	if s.filler == nil {
		filler, err := pdf.NewFiller(cfg.Filler, cfg.PdftkPath, s.logger)
		if err != nil {
			return nil, err
		}
		s.filler = filler
	}
	if s.backend == nil {
		s.backend = geometry.NewGMLBackend()
	}
	if s.register == nil {
		store, err := register.Open(cfg.Database, register.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.register = store
		s.closer = store.Close
	}

	return s, nil
}

// Close releases the register when the service opened it.
func (s *Service) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// resolveFiling validates a filing path given absolute or relative to the
// XML inbox.
func (s *Service) resolveFiling(path string) (string, error) {
	if path == "" {
		return "", errs.New(errs.ErrorTypeDocumentUnreadable, "filing path cannot be empty")
	}
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeSecurityRestriction, "security validation failed", err).WithFile(path)
	}
	path = resolved
	if err := s.validator.ValidateFiling(path); err != nil {
		return "", errs.Wrap(errs.ErrorTypeDocumentUnreadable, "invalid filing", err).WithFile(path)
	}
	return path, nil
}

func (s *Service) parse(path string) (*declaration.Document, error) {
	doc, err := declaration.Parse(path, declaration.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	doc.SourcePath = path
	return doc, nil
}

// Inspect parses a filing and merges its works boundary. Geometry failures
// are reported in the result, not returned.
func (s *Service) Inspect(path string) (*InspectResult, error) {
	path, err := s.resolveFiling(path)
	if err != nil {
		return nil, err
	}
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}

	result := &InspectResult{
		Path:          path,
		Kind:          doc.Kind.String(),
		NoTeleservice: doc.TeleserviceNumber,
		Fields:        doc.Fields,
		SRSName:       doc.Boundary.SRSName,
		EPSG:          doc.Boundary.SpatialReferenceID,
		Members:       len(doc.Boundary.Fragments),
	}

	boundary, err := geometry.Merge(s.backend, doc.Boundary)
	if err != nil {
		result.GeometryError = err.Error()
		return result, nil
	}
	if boundary != nil {
		result.Polygons = boundary.Polygons()
		result.Area = boundary.Area()
		if wkt, err := boundary.WKT(); err == nil {
			result.WKT = wkt
		} else {
			result.GeometryError = err.Error()
		}
	}
	return result, nil
}

// Process answers one filing: it writes the receipt FDF, fills the PDF
// template when enabled and records the dossier in the register.
func (s *Service) Process(ctx context.Context, path string) (*ProcessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolveFiling(path)
	if err != nil {
		return nil, err
	}
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}

	kind := doc.Fields.Get(fields.TypeDemande)
	no := doc.TeleserviceNumber
	result := &ProcessResult{
		Path:          path,
		Kind:          doc.Kind.String(),
		NoTeleservice: no,
		ReceiptName:   s.cfg.Naming.ReceiptName(kind, no),
		MapName:       s.cfg.Naming.MapName(kind, no),
	}

	vars := s.variables(doc.Fields, path)
	outdir, err := s.outputDirectory(vars)
	if err != nil {
		return nil, err
	}
	result.OutputDirectory = outdir

	buf, err := s.builder.Build(result.ReceiptName+".pdf", doc.Fields)
	if err != nil {
		return nil, err
	}
	result.Entries = buf.Len()

	result.FDFPath = filepath.Join(outdir, result.ReceiptName+".fdf")
	if err := buf.WriteFile(result.FDFPath); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFormFill, "cannot write FDF", err).WithFile(result.FDFPath)
	}
	s.logger.Info("receipt FDF written", "no_teleservice", no, "path", result.FDFPath, "entries", result.Entries)

	if s.cfg.Template != "" {
		if tf, err := s.templateTags(); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cannot list template fields: %v", err))
		} else if missing := pdf.MissingTags(buf, tf); len(missing) > 0 {
			result.MissingTags = missing
			s.logger.Warn("template lacks receipt fields", "template", s.cfg.Template, "missing", missing)
		}
	}

	if s.cfg.Fill {
		if err := s.fill(ctx, result, buf); err != nil {
			return result, err
		}
	}

	rec, warnings := s.record(doc, path)
	result.Warnings = append(result.Warnings, warnings...)
	stored, err := s.register.Upsert(ctx, rec)
	if err != nil {
		return result, err
	}
	result.RecordID = stored.ID

	return result, nil
}

func (s *Service) fill(ctx context.Context, result *ProcessResult, buf *fdf.Buffer) error {
	if err := s.validator.ValidateTemplate(s.cfg.Template); err != nil {
		return errs.Wrap(errs.ErrorTypeFormFill, "invalid template", err).WithFile(s.cfg.Template)
	}

	out := filepath.Join(result.OutputDirectory, result.ReceiptName+".pdf")
	if err := s.filler.Fill(ctx, s.cfg.Template, buf, out); err != nil {
		return errs.Wrap(errs.ErrorTypeFormFill, "cannot fill template with "+s.filler.Name(), err).WithFile(out)
	}
	result.PDFPath = out
	s.logger.Info("receipt PDF filled", "no_teleservice", result.NoTeleservice, "path", out, "filler", s.filler.Name())
	if check := s.validator.CheckPDF(out); !check.Valid {
		result.Warnings = append(result.Warnings, "filled receipt is not a readable PDF: "+check.Message)
	}

	if s.cfg.CleanFDF {
		if err := removeStale(result.FDFPath); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cannot remove FDF: %v", err))
		} else {
			result.FDFPath = ""
		}
	}
	return nil
}

// removeStale deletes a leftover form data file; a missing file is fine.
func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Service) templateTags() ([]pdf.TemplateField, error) {
	s.templateOnce.Do(func() {
		s.templateFields, s.templateErr = pdf.TemplateFields(s.cfg.Template)
	})
	return s.templateFields, s.templateErr
}

// CheckTemplate lists the fields of a receipt form. When filing is set, the
// receipt of that filing is built in memory and the tags the form lacks
// are reported; nothing is written.
func (s *Service) CheckTemplate(template, filing string) (*TemplateReport, error) {
	if template == "" {
		template = s.cfg.Template
	}
	if template == "" {
		return nil, errs.New(errs.ErrorTypeFormFill, "no template configured")
	}
	check := s.validator.CheckPDF(template)
	if !check.Valid {
		return nil, errs.New(errs.ErrorTypeFormFill, "invalid template").WithFile(template).WithContext(check.Message)
	}
	tf, err := pdf.TemplateFields(template)
	if err != nil {
		return nil, err
	}
	report := &TemplateReport{Template: template, Pages: check.Pages, Fields: tf}
	if filing == "" {
		return report, nil
	}

	path, err := s.resolveFiling(filing)
	if err != nil {
		return nil, err
	}
	doc, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	name := s.cfg.Naming.ReceiptName(doc.Fields.Get(fields.TypeDemande), doc.TeleserviceNumber)
	buf, err := s.builder.Build(name+".pdf", doc.Fields)
	if err != nil {
		return nil, err
	}
	report.Filing = path
	report.MissingTags = pdf.MissingTags(buf, tf)
	return report, nil
}

// variables returns the @dict_* values of a filing.
func (s *Service) variables(f fields.Map, path string) map[string]string {
	kind := f.Get(fields.TypeDemande)
	no := f.Get(fields.NoTeleservice)
	return map[string]string{
		config.VarFullFilename:   path,
		config.VarTypeDemande:    kind,
		config.VarNoTeleservice:  no,
		config.VarTvxAdresse:     f.Get(fields.TvxAdresse),
		config.VarTvxCommune:     f.Get(fields.TvxCommune),
		config.VarTvxDescription: f.Get(fields.TvxDescription),
		config.VarFilename:       s.cfg.Naming.ReceiptName(kind, no),
		config.VarMapFilename:    s.cfg.Naming.MapName(kind, no),
	}
}

// outputDirectory expands the configured output directory for one dossier
// and creates it.
func (s *Service) outputDirectory(vars map[string]string) (string, error) {
	dir := config.ExpandVariables(s.cfg.OutputDirectory, vars)
	if config.HasVariables(dir) {
		s.logger.Warn("output directory keeps unknown variables", "path", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeSecurityRestriction, "cannot resolve output directory", err).WithFile(dir)
	}
	if err := s.paths.ValidatePath(abs); err != nil {
		return "", errs.Wrap(errs.ErrorTypeSecurityRestriction, "security validation failed", err).WithFile(abs)
	}
	if err := os.MkdirAll(abs, config.DefaultDirPerm); err != nil {
		return "", errs.Wrap(errs.ErrorTypeFormFill, "cannot create output directory", err).WithFile(abs)
	}
	return abs, nil
}

// record builds the register row of a parsed filing.
func (s *Service) record(doc *declaration.Document, path string) (*register.Record, []string) {
	var warnings []string

	rec := register.NewRecord(doc.Fields)
	rec.Filename = filepath.Base(path)

	op := s.cfg.Operator
	rec.ExpRaisonSociale = op.RaisonSociale
	rec.ExpContact = op.Contact
	rec.ExpNoVoie = op.NoVoie
	rec.ExpLieuditBP = op.LieuditBP
	rec.ExpCodePostal = op.CodePostal
	rec.ExpCommune = op.Commune
	rec.ExpTelephone = op.Tel
	rec.ExpFax = op.Fax
	rec.ExpRepresentant = op.Representant
	rec.ExpTelModif = op.TelModification
	rec.ExpTelDommage = op.TelEndommagement
	rec.ExpRespDossier = op.ResponsableNom
	rec.ExpSignataire = op.SignataireNom

	if raw, ok := doc.Fields.Lookup(fields.DeclarationAt); ok {
		if at, err := recepisse.ParseDeclarationDate(raw); err == nil {
			rec.DeclarationAt = &at
			rec.ReceptionAt = &at
		} else {
			warnings = append(warnings, err.Error())
		}
	}

	boundary, err := geometry.Merge(s.backend, doc.Boundary)
	switch {
	case err != nil:
		warnings = append(warnings, err.Error())
		s.logger.Warn("works boundary not recorded", "no_teleservice", doc.TeleserviceNumber, "error", err)
	case boundary != nil:
		if wkt, err := boundary.WKT(); err == nil {
			rec.BoundaryWKT = wkt
			rec.EPSG = boundary.EPSG
		} else {
			warnings = append(warnings, err.Error())
		}
	}
	return rec, warnings
}

// CloseDossier closes a dossier in the register, copies the annexes into
// its output directory and zips that directory as <no>.zip.
func (s *Service) CloseDossier(ctx context.Context, no string, closure register.Closure) (*CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	no = strings.TrimSpace(no)
	if no == "" {
		return nil, errs.New(errs.ErrorTypeFieldAbsent, "teleservice number is required").WithField(fields.NoTeleservice)
	}

	outcome, err := s.register.CloseDossier(ctx, no, closure)
	if err != nil {
		return nil, err
	}
	rec := outcome.Record

	outdir, err := s.outputDirectory(s.recordVariables(rec))
	if err != nil {
		return nil, err
	}

	result := &CloseResult{
		NoTeleservice:   no,
		Days:            outcome.Days,
		Message:         outcome.Message,
		OutputDirectory: outdir,
		Archive:         filepath.Join(outdir, no+".zip"),
		Record:          rec,
	}

	if s.cfg.AnnexesDirectory != "" {
		copied, err := archive.CopyAnnexes(s.cfg.AnnexesDirectory, outdir)
		if err != nil {
			return result, err
		}
		result.Annexes = copied
	}

	archived, err := archive.ZipDir(outdir, result.Archive)
	if err != nil {
		return result, err
	}
	result.Archived = archived

	s.logger.Info(outcome.Message, "no_teleservice", no, "description", rec.TvxDescription, "archive", result.Archive)
	return result, nil
}

func (s *Service) recordVariables(rec *register.Record) map[string]string {
	f := fields.Map{
		fields.TypeDemande:    rec.TypeDemande,
		fields.NoTeleservice:  rec.NoTeleservice,
		fields.TvxAdresse:     rec.TvxAdresse,
		fields.TvxCommune:     rec.TvxCommune,
		fields.TvxDescription: rec.TvxDescription,
	}
	return s.variables(f, filepath.Join(s.cfg.XMLDirectory, rec.Filename))
}

// Dossiers lists register records.
func (s *Service) Dossiers(ctx context.Context, filter register.Filter) ([]register.Record, error) {
	return s.register.List(ctx, filter)
}

// Dossier returns one register record.
func (s *Service) Dossier(ctx context.Context, no string) (*register.Record, error) {
	return s.register.Get(ctx, no)
}

// DeleteDossier removes a dossier from the register. Files already written
// are left in place.
func (s *Service) DeleteDossier(ctx context.Context, no string) error {
	if err := s.register.Delete(ctx, no); err != nil {
		return err
	}
	s.logger.Info("dossier removed from register", "no_teleservice", no)
	return nil
}

// ExportRegister writes the register to a spreadsheet.
func (s *Service) ExportRegister(ctx context.Context, path string, filter register.Filter) (int, error) {
	return s.register.ExportXLSX(ctx, path, filter)
}

// Pending lists the XML filings waiting in the inbox, sorted by name.
func (s *Service) Pending() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.XMLDirectory)
	if err != nil {
		return nil, fmt.Errorf("cannot read XML directory: %w", err)
	}
	pending := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			pending = append(pending, e.Name())
		}
	}
	sort.Strings(pending)
	return pending, nil
}

// Info reports the configuration in use and the pending work.
func (s *Service) Info(ctx context.Context) (*Info, error) {
	pending, err := s.Pending()
	if err != nil {
		return nil, err
	}
	records, err := s.register.List(ctx, register.Filter{})
	if err != nil {
		return nil, err
	}

	info := &Info{
		Name:            s.cfg.ServerName,
		Version:         s.cfg.Version,
		XMLDirectory:    s.cfg.XMLDirectory,
		OutputDirectory: s.cfg.OutputDirectory,
		Template:        s.cfg.Template,
		Filler:          s.filler.Name(),
		Fill:            s.cfg.Fill,
		Database:        s.cfg.Database,
		Pending:         pending,
	}
	for _, r := range records {
		if r.Closed() {
			info.ClosedDossiers++
		} else {
			info.OpenDossiers++
		}
	}
	return info, nil
}
