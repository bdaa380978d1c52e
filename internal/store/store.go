package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/studiodesk/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// sqliteDriver is go-sqlite3 with a Unicode-aware ulower function. The
// built-in lower() only folds ASCII letters.
const sqliteDriver = "sqlite3_studiodesk"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// Schema version tracking (SQLite user_version):
// 1 - records table with (collection, seq) index
const currentSchemaVersion = 1

// Store is a Gateway over a SQL database holding every collection in one
// records table.
type Store struct {
	db       *sql.DB
	compiler *querysql.Compiler
}

var _ Gateway = (*Store)(nil)
var _ Clearer = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, compiler: querysql.NewCompiler(querysql.SQLite)}, nil
}

// OpenPostgres connects to a Postgres database through the pgx stdlib
// driver and creates the records table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range splitStatements(schemaPostgresSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &Store{db: db, compiler: querysql.NewCompiler(querysql.Postgres)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect reports which SQL dialect the store speaks.
func (s *Store) Dialect() querysql.Dialect {
	return s.compiler.Dialect()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. Databases written by a newer build are refused.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// splitStatements splits a schema script into statements, dropping
// comment lines.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	q := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(q).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
