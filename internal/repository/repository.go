package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateKey is returned when an insert or update violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool used by repositories.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Page is offset/limit pagination as requested by callers.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) withDefault(limit int) Page {
	if p.Limit <= 0 {
		p.Limit = limit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

// whereBuilder accumulates positional predicates.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(format string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

// search adds a case-insensitive substring match over every column, sharing
// one placeholder. A column containing a $% verb is used as a complete predicate.
func (w *whereBuilder) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	w.args = append(w.args, "%"+escapeLike(term)+"%")
	idx := len(w.args)
	parts := make([]string, len(columns))
	for i, col := range columns {
		if strings.Contains(col, "$%") {
			parts[i] = fmt.Sprintf(col, idx)
			continue
		}
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, idx)
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
