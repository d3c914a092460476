package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-dtdict/internal/fdf"
)

// Filler merges a field buffer into a fillable PDF template.
type Filler interface {
	Name() string
	Fill(ctx context.Context, template string, buf *fdf.Buffer, out string) error
}

// Filler names accepted by NewFiller.
const (
	FillerPDFCPU = "pdfcpu"
	FillerPdftk  = "pdftk"
)

// NewFiller returns the filler registered under name. pdftkPath is only
// used by the pdftk filler.
func NewFiller(name, pdftkPath string, logger *slog.Logger) (Filler, error) {
	switch strings.ToLower(name) {
	case "", FillerPDFCPU:
		return NewPDFCPUFiller(logger), nil
	case FillerPdftk:
		return NewPdftkFiller(pdftkPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown filler %q (expected %s or %s)", name, FillerPDFCPU, FillerPdftk)
	}
}

// PDFCPUFiller fills forms in-process with pdfcpu.
type PDFCPUFiller struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewPDFCPUFiller creates a pdfcpu-backed filler
func NewPDFCPUFiller(logger *slog.Logger) *PDFCPUFiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUFiller{logger: logger, now: time.Now}
}

// Name returns the filler name
func (f *PDFCPUFiller) Name() string {
	return FillerPDFCPU
}

// pdfcpu form data, as read by its form fill command.
type formData struct {
	Header formHeader `json:"header"`
	Forms  []formPage `json:"forms"`
}

type formHeader struct {
	Source   string `json:"source"`
	Version  string `json:"version"`
	Creation string `json:"creation"`
	Title    string `json:"title,omitempty"`
}

type formPage struct {
	TextFields []textField `json:"textfield,omitempty"`
	CheckBoxes []checkBox  `json:"checkbox,omitempty"`
}

type textField struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type checkBox struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

// FormJSON renders buf as pdfcpu form data. Later entries for a tag
// override earlier ones.
func (f *PDFCPUFiller) FormJSON(template string, buf *fdf.Buffer) ([]byte, error) {
	var page formPage
	textIndex := make(map[string]int)
	boxIndex := make(map[string]int)

	for _, e := range buf.Entries() {
		switch e.Kind {
		case fdf.Checkbox:
			cb := checkBox{Pages: []int{}, Name: e.Tag, Value: e.Value == fdf.CheckboxOn}
			if i, ok := boxIndex[e.Tag]; ok {
				page.CheckBoxes[i] = cb
				continue
			}
			boxIndex[e.Tag] = len(page.CheckBoxes)
			page.CheckBoxes = append(page.CheckBoxes, cb)
		default:
			tf := textField{Pages: []int{}, Name: e.Tag, Value: e.Value}
			if i, ok := textIndex[e.Tag]; ok {
				page.TextFields[i] = tf
				continue
			}
			textIndex[e.Tag] = len(page.TextFields)
			page.TextFields = append(page.TextFields, tf)
		}
	}

	data := formData{
		Header: formHeader{
			Source:   template,
			Version:  "dtdict",
			Creation: f.now().Format("2006-01-02 15:04:05 MST"),
			Title:    buf.Filename(),
		},
		Forms: []formPage{page},
	}
	return json.MarshalIndent(data, "", "  ")
}

// Fill writes template filled with buf to out.
func (f *PDFCPUFiller) Fill(ctx context.Context, template string, buf *fdf.Buffer, out string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := f.FormJSON(template, buf)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	in, err := os.Open(template)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer in.Close()

	w, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err = api.FillForm(in, bytes.NewReader(data), w, conf); err != nil {
		return fmt.Errorf("pdfcpu form fill failed: %w", err)
	}

	f.logger.Debug("form filled", "filler", f.Name(), "template", template, "output", out, "entries", buf.Len())
	return nil
}

// PdftkFiller shells out to the pdftk command line tool.
type PdftkFiller struct {
	path   string
	logger *slog.Logger
}

// NewPdftkFiller creates a filler running the pdftk binary at path ("pdftk"
// when empty).
func NewPdftkFiller(path string, logger *slog.Logger) *PdftkFiller {
	if path == "" {
		path = "pdftk"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PdftkFiller{path: path, logger: logger}
}

// Name returns the filler name
func (f *PdftkFiller) Name() string {
	return FillerPdftk
}

// Check runs "pdftk --version" and expects the output to mention pdftk.
func (f *PdftkFiller) Check(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, f.path, "--version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftk not usable at %s: %w", f.path, err)
	}
	if !strings.Contains(strings.ToLower(string(out)), "pdftk") {
		return fmt.Errorf("%s does not look like pdftk", f.path)
	}
	return nil
}

// Fill writes buf to a temporary FDF file and runs pdftk fill_form. The
// temporary file is removed on every path.
func (f *PdftkFiller) Fill(ctx context.Context, template string, buf *fdf.Buffer, out string) error {
	if err := f.Check(ctx); err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "dtdict-*.fdf")
	if err != nil {
		return fmt.Errorf("failed to create temporary FDF: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary FDF: %w", err)
	}

	cmd := exec.CommandContext(ctx, f.path, template, "fill_form", tmpName, "output", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftk fill_form failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	f.logger.Debug("form filled", "filler", f.Name(), "template", template, "output", out, "entries", buf.Len())
	return nil
}
