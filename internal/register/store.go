package register

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/register/migrations"
)

// ErrNotFound is returned when no record carries the teleservice number.
var ErrNotFound = errors.New("dossier not found")

// Store is the SQLite-backed register.
type Store struct {
	db     *sqlx.DB
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating when needed) the register database at path and
// applies pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errs.New(errs.ErrorTypeRegister, "register path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRegister, "cannot create register directory", err).WithFile(path)
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRegister, "cannot open register", err).WithFile(path)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.ErrorTypeRegister, "running migrations", err).WithFile(path)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
		s.logger.Debug("register migration applied", "version", version, "file", name)
	}
	return nil
}

var (
	selectColumns = strings.Join(columns, ", ")

	upsertQuery = func() string {
		named := make([]string, len(columns))
		for i, c := range columns {
			named[i] = ":" + c
		}
		set := make([]string, len(refreshed))
		for i, c := range refreshed {
			switch c {
			case "declaration_at", "reception_at":
				set[i] = fmt.Sprintf("%s = COALESCE(excluded.%s, dossiers.%s)", c, c, c)
			default:
				set[i] = fmt.Sprintf("%s = excluded.%s", c, c)
			}
		}
		return fmt.Sprintf("INSERT INTO dossiers (%s) VALUES (%s) ON CONFLICT(no_teleservice) DO UPDATE SET %s",
			selectColumns, strings.Join(named, ", "), strings.Join(set, ", "))
	}()
)

// Upsert adds rec, or refreshes the existing record with the same
// teleservice number. The state and closure dates of an existing record are
// kept. It returns the stored record.
func (s *Store) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil || strings.TrimSpace(rec.NoTeleservice) == "" {
		return nil, errs.New(errs.ErrorTypeRegister, "record has no teleservice number").WithField("no_teleservice")
	}

	row := *rec
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.State == "" {
		row.State = StateOpen
	}
	now := s.now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.DeclarationAt = utc(row.DeclarationAt)
	row.ReceptionAt = utc(row.ReceptionAt)
	row.TransmissionAt = utc(row.TransmissionAt)
	row.RetourAt = utc(row.RetourAt)
	row.ReponseAt = utc(row.ReponseAt)

	if _, err := s.db.NamedExecContext(ctx, upsertQuery, &row); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRegister, "upsert failed", err).WithContext(row.NoTeleservice)
	}
	s.logger.Debug("register record stored", "no_teleservice", row.NoTeleservice, "type_demande", row.TypeDemande)
	return s.Get(ctx, row.NoTeleservice)
}

// Get returns the record for a teleservice number.
func (s *Store) Get(ctx context.Context, no string) (*Record, error) {
	var rec Record
	err := s.db.GetContext(ctx, &rec, "SELECT "+selectColumns+" FROM dossiers WHERE no_teleservice = ?", no)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, no)
		}
		return nil, errs.Wrap(errs.ErrorTypeRegister, "get failed", err).WithContext(no)
	}
	return &rec, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	State       string
	TypeDemande string
}

// List returns the records matching filter, most recently updated first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.State != "" {
		where = append(where, "etat = ?")
		args = append(args, filter.State)
	}
	if filter.TypeDemande != "" {
		where = append(where, "type_demande = ?")
		args = append(args, filter.TypeDemande)
	}

	query := "SELECT " + selectColumns + " FROM dossiers"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, no_teleservice"

	records := []Record{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRegister, "list failed", err)
	}
	return records, nil
}

// Delete removes the record for a teleservice number.
func (s *Store) Delete(ctx context.Context, no string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dossiers WHERE no_teleservice = ?", no)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeRegister, "delete failed", err).WithContext(no)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, no)
	}
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
