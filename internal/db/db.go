package db

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hudkeep/keeper/internal/tabular"
	"github.com/hudkeep/keeper/internal/util"
)

// insertBatchSize is the number of rows inserted per statement.
const insertBatchSize = 500

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open connects to a database and verifies the connection, retrying the
// initial ping with backoff. The driver must be registered by the caller's
// imports; sqlite3 is compiled in for local use. Credentials and delegated
// auth live entirely in the DSN.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = util.Retry(ctx, util.DefaultRetryConfig(), func() error {
		return database.PingContext(ctx)
	}, nil)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Debug("database connected", "driver", driver)
	return database, nil
}

// LoadTable inserts every row of a parsed table into the named SQL table
// inside a single transaction. Either all rows land or none do. Returns
// the number of rows inserted.
func LoadTable(ctx context.Context, database *sqlx.DB, table string, t *tabular.Table) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	for _, col := range t.Columns {
		if err := validateIdentifier(col); err != nil {
			return 0, err
		}
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table has no columns")
	}

	tx, err := database.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for start := 0; start < len(t.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		batch := t.Rows[start:end]

		query := database.Rebind(buildInsert(table, t.Columns, len(batch)))
		args := make([]any, 0, len(batch)*len(t.Columns))
		for _, row := range batch {
			if len(row) != len(t.Columns) {
				return 0, fmt.Errorf("row %d has %d values, want %d", start, len(row), len(t.Columns))
			}
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to insert rows %d-%d: %w", start, end-1, err)
		}
		inserted += int64(len(batch))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	slog.Debug("table loaded", "table", table, "rows", inserted)
	return inserted, nil
}

// buildInsert produces a multi-row INSERT with '?' placeholders, to be
// rebound for the target driver.
func buildInsert(table string, columns []string, rows int) string {
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = group
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(groups, ", "))
}

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}
