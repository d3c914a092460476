// Package recepisse turns extracted filing fields and operator settings into
// the ordered field buffer of an acknowledgement receipt.
package recepisse

import (
	"fmt"
	"log/slog"
	"time"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/fdf"
	"github.com/a3tai/mcp-dtdict/internal/fields"
)

// Builder emits receipt fields in the order the receipt form expects.
type Builder struct {
	settings OperatorSettings
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithClock replaces time.Now for the receipt date.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the builder logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder bound to one operator configuration.
func NewBuilder(settings OperatorSettings, opts ...Option) *Builder {
	b := &Builder{
		settings: settings,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Settings returns the operator settings the builder was created with.
func (b *Builder) Settings() OperatorSettings {
	return b.settings
}

// Build fills a new buffer for the document named filename (the value of
// /F, usually the receipt PDF name).
//
// When declaration_at cannot be parsed the buffer built so far is returned,
// unsealed, together with a DateParseFailure error.
func (b *Builder) Build(filename string, f fields.Map) (*fdf.Buffer, error) {
	buf := fdf.NewBuffer()
	buf.Open(filename)

	kind := f.Get(fields.TypeDemande)
	buf.AddCheckbox(kind == "DT", "Recepisse_DT")
	buf.AddCheckbox(kind == "DICT", "Recepisse_DICT")
	buf.AddCheckbox(kind == "DC", "Recepisse_DC")
	buf.AddText(f.Get(fields.NoTeleservice), "NoGU")

	for _, a := range b.settings.Entries() {
		buf.AddText(a.Value, a.Tag)
	}

	if err := b.addDeclarant(buf, f); err != nil {
		return buf, err
	}

	today := b.now()
	addDate(buf, today, "JourRecepisse", "MoisRecepisse", "AnneeRecepisse")

	buf.Close()

	b.logger.Debug("receipt buffer built",
		"filename", filename,
		"type_demande", kind,
		"entries", buf.Len())
	return buf, nil
}

func (b *Builder) addDeclarant(buf *fdf.Buffer, f fields.Map) error {
	buf.AddText(f.Get(fields.NoTeleservice), "NoGU")
	buf.AddText(f.Get(fields.DecDenomination), "Denomination")
	buf.AddText(f.Get(fields.DecAdresse2), "ComplementAdresse")

	// A street number without a street name is not printed.
	number, hasNumber := f.Lookup(fields.DecNoVoie)
	street, hasStreet := f.Lookup(fields.DecVoie)
	switch {
	case hasNumber && hasStreet:
		buf.AddText(number+" "+street, "NoVoie")
	case hasStreet:
		buf.AddText(street, "NoVoie")
	}

	buf.AddText(f.Get(fields.DecLieuditBP), "LieuditBP")
	buf.AddText(f.Get(fields.DecCodePostal), "CodePostal")
	buf.AddText(f.Get(fields.DecCommune), "Commune")
	buf.AddText(f.Get(fields.DecPays), "Pays")
	buf.AddText(f.Get(fields.DecAffaire), "NoAffaireDeclarant")
	buf.AddText(f.Get(fields.DecContact), "Personne_Contacter")

	if raw, ok := f.Lookup(fields.DeclarationAt); ok {
		at, err := ParseDeclarationDate(raw)
		if err != nil {
			return err
		}
		addDate(buf, at, "JourReception", "MoisReception", "AnneeReception")
	}

	buf.AddText(f.Get(fields.TvxCommune), "CommuneTravaux")
	buf.AddText(f.Get(fields.TvxAdresse), "AdresseTravaux")
	return nil
}

// isoLayouts are the ISO-8601 forms accepted for declaration_at, extended
// and basic, most precise first. Fractional seconds after the seconds field
// are accepted by time.Parse without a layout of their own.
var isoLayouts = func() []string {
	dates := []string{"2006-01-02", "20060102"}
	clocks := []string{"15:04:05", "15:04", "150405", "1504", "15"}
	zones := []string{"Z07:00", "Z0700", "Z07", ""}

	var layouts []string
	for _, d := range dates {
		for _, sep := range []string{"T", " "} {
			for _, c := range clocks {
				for _, z := range zones {
					layouts = append(layouts, d+sep+c+z)
				}
			}
		}
	}
	return append(layouts, "2006-01-02", "20060102", "2006-01")
}()

// ParseDeclarationDate parses an ISO-8601 declaration timestamp. The
// calendar day is taken in the timestamp's own offset; a timestamp without
// offset is read as written.
func ParseDeclarationDate(raw string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, errs.New(errs.ErrorTypeDateParseFailure, "invalid declaration date").
		WithField(fields.DeclarationAt).
		WithContext(raw)
}

func addDate(buf *fdf.Buffer, t time.Time, dayTag, monthTag, yearTag string) {
	buf.AddText(fmt.Sprintf("%02d", t.Day()), dayTag)
	buf.AddText(fmt.Sprintf("%02d", int(t.Month())), monthTag)
	buf.AddText(fmt.Sprintf("%04d", t.Year()), yearTag)
}
