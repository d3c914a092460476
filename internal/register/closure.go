package register

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
)

// Closure carries the dates recorded when a dossier is answered. Zero dates
// keep the value already stored; a zero ResponseAt means now.
type Closure struct {
	DeclarationAt  time.Time
	ReceptionAt    time.Time
	TransmissionAt time.Time
	RetourAt       time.Time
	ResponseAt     time.Time
}

// Outcome is the result of closing a dossier.
type Outcome struct {
	Record  *Record
	Days    int
	Message string
}

// CloseDossier marks the dossier answered, stores the closure dates and
// returns the number of calendar days between reception and response.
// Reception falls back to the declaration date.
func (s *Store) CloseDossier(ctx context.Context, no string, c Closure) (*Outcome, error) {
	rec, err := s.Get(ctx, no)
	if err != nil {
		return nil, err
	}

	if c.ResponseAt.IsZero() {
		c.ResponseAt = s.now()
	}
	reception := firstDate(&c.ReceptionAt, rec.ReceptionAt, &c.DeclarationAt, rec.DeclarationAt)
	if reception.IsZero() {
		return nil, errs.New(errs.ErrorTypeFieldAbsent, "dossier has no reception date").
			WithField("reception_at").WithContext(no)
	}
	days := DaysBetween(reception, c.ResponseAt)

	_, err = s.db.ExecContext(ctx, `UPDATE dossiers SET
			etat = ?,
			declaration_at = COALESCE(?, declaration_at),
			reception_at = COALESCE(?, reception_at),
			transmission_at = COALESCE(?, transmission_at),
			retour_at = COALESCE(?, retour_at),
			reponse_at = ?,
			updated_at = ?
		WHERE no_teleservice = ?`,
		StateClosed,
		utc(&c.DeclarationAt),
		utc(&c.ReceptionAt),
		utc(&c.TransmissionAt),
		utc(&c.RetourAt),
		utc(&c.ResponseAt),
		s.now().UTC(),
		no,
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRegister, "close failed", err).WithContext(no)
	}

	closed, err := s.Get(ctx, no)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dossier closed", "no_teleservice", no, "days", days)

	return &Outcome{
		Record:  closed,
		Days:    days,
		Message: ClosureMessage(closed.TypeDemande, days),
	}, nil
}

// DaysBetween counts the midnights between from and to, in the location of
// to.
func DaysBetween(from, to time.Time) int {
	loc := to.Location()
	f := from.In(loc)
	a := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ClosureMessage is the operator notice for a closed dossier.
func ClosureMessage(kind string, days int) string {
	switch days {
	case 0:
		return fmt.Sprintf("Dossier %s clôturé dans la journée", kind)
	case 1:
		return fmt.Sprintf("Dossier %s clôturé en un jour", kind)
	default:
		return fmt.Sprintf("Dossier %s clôturé en %d jours", kind, days)
	}
}

func firstDate(candidates ...*time.Time) time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			return *t
		}
	}
	return time.Time{}
}

// ParseDate reads a closure date given as text. Dates without an offset are
// taken in local time; an empty string gives the zero time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := cast.ToTimeInDefaultLocationE(raw, time.Local)
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ErrorTypeDateParseFailure, "invalid closure date", err).WithContext(raw)
	}
	return at, nil
}

// ParseClosure builds a Closure from textual reception, transmission, retour
// and response dates.
func ParseClosure(reception, transmission, retour, response string) (Closure, error) {
	var c Closure
	for _, d := range []struct {
		raw string
		dst *time.Time
	}{
		{reception, &c.ReceptionAt},
		{transmission, &c.TransmissionAt},
		{retour, &c.RetourAt},
		{response, &c.ResponseAt},
	} {
		at, err := ParseDate(d.raw)
		if err != nil {
			return Closure{}, err
		}
		*d.dst = at
	}
	return c, nil
}
