// Package db holds the DuckDB connection used for analytics over source files.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// ErrInvalidIdentifier is returned for property names that cannot be used as
// SQL column identifiers.
var ErrInvalidIdentifier = eris.New("db: invalid identifier")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Get returns the singleton DuckDB connection.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			initErr = eris.Wrap(err, "db: create duckdb directory")
			return
		}

		dbPath := filepath.Join(duckdbDir, cfg.DBName+".duckdb")
		instance, initErr = sql.Open("duckdb", dbPath)
		if initErr != nil {
			initErr = eris.Wrap(initErr, "db: open")
			return
		}

		// ST_Read needs spatial; it may already be installed.
		if _, err := instance.Exec("INSTALL spatial; LOAD spatial;"); err != nil {
			zap.L().Warn("duckdb spatial extension unavailable", zap.Error(err))
		}
	})
	return instance, initErr
}

// Close closes the database connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// QuantileQuery builds the SQL computing the k/n quantiles of a positive
// numeric property in a GeoJSON file. The file path is bound as a parameter.
func QuantileQuery(property string, n int) (string, error) {
	if !identRe.MatchString(property) {
		return "", eris.Wrapf(ErrInvalidIdentifier, "property %q", property)
	}
	if n < 1 {
		return "", eris.Errorf("db: quantile count %d must be positive", n)
	}
	qs := make([]string, n)
	for k := 1; k <= n; k++ {
		qs[k-1] = fmt.Sprintf("%g", float64(k)/float64(n))
	}
	return fmt.Sprintf(
		`SELECT quantile_cont(CAST("%s" AS DOUBLE), [%s]) FROM ST_Read(?) WHERE TRY_CAST("%s" AS DOUBLE) > 0`,
		property, strings.Join(qs, ", "), property,
	), nil
}

// Quantiles runs QuantileQuery against path.
func Quantiles(ctx context.Context, conn *sql.DB, path, property string, n int) ([]float64, error) {
	query, err := QuantileQuery(property, n)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := conn.QueryRowContext(ctx, query, path).Scan(&raw); err != nil {
		return nil, eris.Wrap(err, "db: quantiles")
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, eris.Errorf("db: quantiles: unexpected result type %T", raw)
	}
	out := make([]float64, 0, len(list))
	for _, v := range list {
		f, ok := v.(float64)
		if !ok {
			return nil, eris.Errorf("db: quantiles: unexpected element type %T", v)
		}
		out = append(out, f)
	}
	return out, nil
}
