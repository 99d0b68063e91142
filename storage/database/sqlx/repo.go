package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// repo is embedded by every repository.
type repo struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

// newRepo maps columns to the domain types' json tags (which are the column names)
// and picks the placeholder format of the driver.
func newRepo(db *sqlx.DB) repo {
	mapped := sqlx.NewDb(db.DB, db.DriverName())
	mapped.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)

	var placeholder sq.PlaceholderFormat = sq.Question
	if db.DriverName() == "postgres" {
		placeholder = sq.Dollar
	}
	return repo{
		db:      mapped,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// orderBy applies the safe orderings, falling back to `defaults`.
func orderBy(query sq.SelectBuilder, ordering []core.DBOrdering, allowed []string, defaults ...string) sq.SelectBuilder {
	safe := core.SafeOrderings(ordering, allowed...)
	if len(safe) == 0 {
		return query.OrderBy(defaults...)
	}
	clauses := make([]string, len(safe))
	for i, ord := range safe {
		clauses[i] = ord.String()
	}
	return query.OrderBy(clauses...)
}

// eqIfSet adds an equality condition for every non-empty value.
func eqIfSet(query sq.SelectBuilder, conds map[string]string) sq.SelectBuilder {
	eq := sq.Eq{}
	for col, val := range conds {
		if val != "" {
			eq[col] = val
		}
	}
	if len(eq) == 0 {
		return query
	}
	return query.Where(eq)
}

// dbError wraps a query error. A lost connection is reported as a shutdown error.
func dbError(err error, msg string) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errors.Wrap(core.NewShutdownError("database connection lost: "+err.Error()), msg)
	}
	return errors.Wrap(err, msg)
}
