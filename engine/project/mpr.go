package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

var dsnEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// readOnlyDSN builds a SQLite URI so the project database is never written.
func readOnlyDSN(path string) string {
	return "file:" + dsnEscaper.Replace(filepath.ToSlash(path)) + "?mode=ro"
}

func openMPR(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", filepath.Base(path), err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// firstMetadataRow reads the first row of the _MetaData table as strings.
func firstMetadataRow(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM _MetaData LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("sqlite: query metadata: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: metadata columns: %w", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlite: read metadata: %w", err)
		}
		return nil, nil
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("sqlite: scan metadata: %w", err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
		case []byte:
			out[i] = string(val)
		default:
			out[i] = fmt.Sprint(val)
		}
	}
	return out, rows.Err()
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
