package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	orderingParam = "ordering"
	dateLayout    = "2006-01-02"
	errDateFormat = "must be a date (YYYY-MM-DD) or an RFC3339 timestamp"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// DateRange holds a pair of "<prefix>_from" & "<prefix>_to" query parameters.
// A bare date as upper bound includes the whole day.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (dr *DateRange) Bind(ctx echo.Context, prefix string) error {
	var err error
	if dr.From, err = timeParam(ctx, prefix+"_from", false); err != nil {
		return err
	}
	dr.To, err = timeParam(ctx, prefix+"_to", true)
	return err
}

func timeParam(ctx echo.Context, name string, endOfDay bool) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(
			errors.Wrapf(err, "parsing %s", name),
			core.FieldError{Field: name, Error: errDateFormat},
		)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// bindQuery binds the query parameters to a filter, the requested page and ordering.
func bindQuery(ctx echo.Context, filter interface{}) (core.PageRequest, Ordering, error) {
	var (
		page     core.PageRequest
		ordering Ordering
	)
	if filter != nil {
		if err := ctx.Bind(filter); err != nil {
			return page, ordering, errors.Wrap(err, "binding query filter")
		}
	}
	if err := ctx.Bind(&page); err != nil {
		return page, ordering, errors.Wrap(err, "binding page request")
	}
	page.Clean()
	ordering.Bind(ctx)
	return page, ordering, nil
}
