package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// schemaVersion must be bumped on any change of the robots columns below
const schemaVersion = "1"

var (
	// ErrDuplicateName returned on attempt to add robot with the name already in the inventory
	ErrDuplicateName = errors.New("duplicate robot name")
	// ErrDuplicateAddress returned on attempt to add robot with the address already in the inventory
	ErrDuplicateAddress = errors.New("duplicate robot address")
	// ErrNotFound returned for unknown robot name
	ErrNotFound = errors.New("robot not found")
	// ErrInvalidRobot returned for robot with empty name or address
	ErrInvalidRobot = errors.New("invalid robot")
)

// Robot is a single controller in the inventory
type Robot struct {
	Name    string `db:"name" yaml:"name"`
	Address string `db:"address" yaml:"address"`
	Family  string `db:"family" yaml:"family"`
}

func (r Robot) String() string {
	return fmt.Sprintf("name: %s || address: %s || family: %s", r.Name, r.Address, r.Family)
}

// SQLite implements inventory and backup history on top of SQLite.
// Reads are concurrent, all writes go through a single writer lock.
type SQLite struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the database at dbPath and makes sure the schema is current
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode so backup jobs can read while history is written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	res := &SQLite{db: db}
	if err := res.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return res, nil
}

// initialize creates the schema, recreating robots table if its version is stale
func (s *SQLite) initialize() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	var ver string
	err := s.db.Get(&ver, `SELECT value FROM meta WHERE key = 'schema_version'`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case ver != schemaVersion:
		log.Printf("[WARN] robots schema version %s, expected %s, recreating table", ver, schemaVersion)
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS robots`); err != nil {
			return fmt.Errorf("failed to drop stale robots table: %w", err)
		}
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS robots (
			name TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL UNIQUE,
			family TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_robots_family ON robots(family)`,
		`CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			robot TEXT NOT NULL,
			address TEXT,
			family TEXT,
			folder TEXT,
			status TEXT NOT NULL,
			error TEXT,
			files INTEGER DEFAULT 0,
			started_at INTEGER,
			finished_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_robot ON backups(robot)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_started_at ON backups(started_at)`,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', '` + schemaVersion + `')`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// CreateRobot adds a new robot. Name checked for duplicates first, then address.
// On any error the inventory stays unchanged.
func (s *SQLite) CreateRobot(ctx context.Context, r Robot) error {
	r.Name, r.Address, r.Family = strings.TrimSpace(r.Name), strings.TrimSpace(r.Address), strings.TrimSpace(r.Family)
	if r.Name == "" || r.Address == "" {
		return fmt.Errorf("%w: name and address required", ErrInvalidRobot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM robots WHERE name = ?`, r.Name); err != nil {
		return fmt.Errorf("failed to check name %q: %w", r.Name, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateName, r.Name)
	}

	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM robots WHERE address = ?`, r.Address); err != nil {
		return fmt.Errorf("failed to check address %q: %w", r.Address, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, r.Address)
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO robots (name, address, family) VALUES (:name, :address, :family)`, r); err != nil {
		return fmt.Errorf("failed to add robot %s: %w", r.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[INFO] robot %s added", r)
	return nil
}

// GetRobot returns robot by exact name
func (s *SQLite) GetRobot(ctx context.Context, name string) (Robot, error) {
	var r Robot
	err := s.db.GetContext(ctx, &r, `SELECT name, address, family FROM robots WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return Robot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Robot{}, fmt.Errorf("failed to get robot %s: %w", name, err)
	}
	return r, nil
}

// DeleteRobot removes robot by exact name, ErrNotFound if nothing removed
func (s *SQLite) DeleteRobot(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM robots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete robot %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	log.Printf("[INFO] robot %s deleted", name)
	return nil
}

// ListRobots returns all robots ordered by family, then name
func (s *SQLite) ListRobots(ctx context.Context) ([]Robot, error) {
	res := []Robot{}
	if err := s.db.SelectContext(ctx, &res, `SELECT name, address, family FROM robots ORDER BY family, name`); err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}
	return res, nil
}

// ListByFamily returns robots with exact family match
func (s *SQLite) ListByFamily(ctx context.Context, family string) ([]Robot, error) {
	res := []Robot{}
	err := s.db.SelectContext(ctx, &res, `SELECT name, address, family FROM robots WHERE family = ? ORDER BY name`, family)
	if err != nil {
		return nil, fmt.Errorf("failed to list robots for family %s: %w", family, err)
	}
	return res, nil
}

// ListFamilies returns distinct families, sorted
func (s *SQLite) ListFamilies(ctx context.Context) ([]string, error) {
	res := []string{}
	if err := s.db.SelectContext(ctx, &res, `SELECT DISTINCT family FROM robots ORDER BY family`); err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	return res, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}
