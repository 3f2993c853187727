// Package store handles SQL persistence for the development backend.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver.

	"github.com/verte-zerg/boothdesk/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownTarget is returned when an assignment names a missing unit.
var ErrUnknownTarget = errors.New("unknown target")

// Store wraps SQL access for election data.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open opens or creates the database and applies migrations. For SQLite the
// dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q (use sqlite or postgres)", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS district (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assembly (
			id BIGINT PRIMARY KEY,
			district_id BIGINT NOT NULL,
			number TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS localbody (
			id BIGINT PRIMARY KEY,
			district_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS booth (
			id BIGINT PRIMARY KEY,
			assembly_id BIGINT NOT NULL,
			number TEXT NOT NULL DEFAULT '',
			suffix TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			localbody_id BIGINT,
			winnable BOOLEAN,
			gap_percent DOUBLE PRECISION,
			verdict TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ward (
			id BIGINT PRIMARY KEY,
			localbody_id BIGINT NOT NULL,
			number TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			assembly_id BIGINT,
			winnable BOOLEAN,
			gap_percent DOUBLE PRECISION,
			verdict TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS booth_vote (
			booth_id BIGINT NOT NULL,
			candidate TEXT NOT NULL,
			party TEXT NOT NULL DEFAULT '',
			alliance TEXT NOT NULL,
			votes BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (booth_id, candidate)
		);`,
		`CREATE TABLE IF NOT EXISTS ward_vote (
			ward_id BIGINT NOT NULL,
			candidate TEXT NOT NULL,
			party TEXT NOT NULL DEFAULT '',
			alliance TEXT NOT NULL,
			votes BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (ward_id, candidate)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_booth_assembly ON booth(assembly_id);`,
		`CREATE INDEX IF NOT EXISTS idx_ward_localbody ON ward(localbody_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Districts lists all districts by id.
func (s *Store) Districts(ctx context.Context) ([]model.Option, error) {
	var out []model.Option
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name FROM district ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	return nonNil(out), nil
}

// Assemblies lists the assemblies of a district.
func (s *Store) Assemblies(ctx context.Context, districtID int64) ([]model.Option, error) {
	var out []model.Option
	query := s.db.Rebind(`SELECT id, name, number FROM assembly WHERE district_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, query, districtID); err != nil {
		return nil, fmt.Errorf("failed to list assemblies: %w", err)
	}
	return nonNil(out), nil
}

// Localbodies lists the localbodies of a district.
func (s *Store) Localbodies(ctx context.Context, districtID int64) ([]model.Option, error) {
	var out []model.Option
	query := s.db.Rebind(`SELECT id, name, type FROM localbody WHERE district_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, query, districtID); err != nil {
		return nil, fmt.Errorf("failed to list localbodies: %w", err)
	}
	return nonNil(out), nil
}

type entityRow struct {
	ID           int64           `db:"id"`
	Number       string          `db:"number"`
	Suffix       string          `db:"suffix"`
	Name         string          `db:"name"`
	ParentID     int64           `db:"parent_id"`
	AssignedID   sql.NullInt64   `db:"assigned_id"`
	AssignedName sql.NullString  `db:"assigned_name"`
	AssignedType sql.NullString  `db:"assigned_type"`
	Winnable     sql.NullBool    `db:"winnable"`
	GapPercent   sql.NullFloat64 `db:"gap_percent"`
	Verdict      sql.NullString  `db:"verdict"`
}

func (r entityRow) entity(kind model.Kind) model.Entity {
	e := model.Entity{
		ID:           r.ID,
		Kind:         kind,
		Number:       r.Number,
		Suffix:       r.Suffix,
		Name:         r.Name,
		ParentID:     r.ParentID,
		AssignedName: r.AssignedName.String,
		AssignedType: r.AssignedType.String,
	}
	if r.AssignedID.Valid {
		id := r.AssignedID.Int64
		e.AssignedID = &id
	}
	if r.Verdict.Valid || r.GapPercent.Valid {
		v := &model.Verdict{Winnable: r.Winnable.Bool, Class: r.Verdict.String}
		if r.GapPercent.Valid {
			gap := r.GapPercent.Float64
			v.GapPercent = &gap
		}
		e.Verdict = v
	}
	return e
}

// Entities lists the booths of an assembly or the wards of a localbody,
// ordered by id.
func (s *Store) Entities(ctx context.Context, kind model.Kind, scopeID int64) ([]model.Entity, error) {
	query := `SELECT b.id, b.number, b.suffix, b.name, b.assembly_id AS parent_id,
			b.localbody_id AS assigned_id, l.name AS assigned_name, l.type AS assigned_type,
			b.winnable, b.gap_percent, b.verdict
		FROM booth b
		LEFT JOIN localbody l ON l.id = b.localbody_id
		WHERE b.assembly_id = ?
		ORDER BY b.id`
	if kind == model.KindWard {
		query = `SELECT w.id, w.number, '' AS suffix, w.name, w.localbody_id AS parent_id,
				w.assembly_id AS assigned_id, a.name AS assigned_name, '' AS assigned_type,
				w.winnable, w.gap_percent, w.verdict
			FROM ward w
			LEFT JOIN assembly a ON a.id = w.assembly_id
			WHERE w.localbody_id = ?
			ORDER BY w.id`
	}
	var rows []entityRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), scopeID); err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	out := make([]model.Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entity(kind))
	}
	return out, nil
}

type voteRow struct {
	EntityID int64  `db:"entity_id"`
	Number   string `db:"number"`
	Suffix   string `db:"suffix"`
	Name     string `db:"name"`
	Alliance string `db:"alliance"`
	Votes    int64  `db:"votes"`
}

// VoteRows sums votes per entity and alliance within a scope, ordered by
// entity id then alliance.
func (s *Store) VoteRows(ctx context.Context, kind model.Kind, scopeID int64) ([]model.VoteRow, error) {
	query := `SELECT b.id AS entity_id, b.number, b.suffix, b.name, v.alliance, SUM(v.votes) AS votes
		FROM booth_vote v
		JOIN booth b ON b.id = v.booth_id
		WHERE b.assembly_id = ?
		GROUP BY b.id, b.number, b.suffix, b.name, v.alliance
		ORDER BY b.id, v.alliance`
	if kind == model.KindWard {
		query = `SELECT w.id AS entity_id, w.number, '' AS suffix, w.name, v.alliance, SUM(v.votes) AS votes
			FROM ward_vote v
			JOIN ward w ON w.id = v.ward_id
			WHERE w.localbody_id = ?
			GROUP BY w.id, w.number, w.name, v.alliance
			ORDER BY w.id, v.alliance`
	}
	var rows []voteRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), scopeID); err != nil {
		return nil, fmt.Errorf("failed to list %s votes: %w", kind, err)
	}
	out := make([]model.VoteRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.VoteRow{
			EntityID:     r.EntityID,
			EntityNumber: r.Number,
			EntitySuffix: r.Suffix,
			EntityLabel:  r.Name,
			Alliance:     r.Alliance,
			Votes:        r.Votes,
		})
	}
	return out, nil
}

// Assign sets or, with a nil target, clears the assignment of every listed
// entity in one statement. It returns the number of rows changed.
func (s *Store) Assign(ctx context.Context, kind model.Kind, ids []int64, target *int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	entityTable, column, targetTable := "booth", "localbody_id", "localbody"
	if kind == model.KindWard {
		entityTable, column, targetTable = "ward", "assembly_id", "assembly"
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if target != nil {
		var exists int
		err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM `+targetTable+` WHERE id = ?`), *target)
		if err != nil {
			return 0, fmt.Errorf("failed to look up %s: %w", targetTable, err)
		}
		if exists == 0 {
			err = fmt.Errorf("%w: %s %d", ErrUnknownTarget, targetTable, *target)
			return 0, err
		}
	}

	query, args, err := sqlx.In(`UPDATE `+entityTable+` SET `+column+` = ? WHERE id IN (?)`, target, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build update: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %ss: %w", entityTable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return affected, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
