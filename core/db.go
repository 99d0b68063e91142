package core

import "regexp"

var orderingFieldRegex = regexp.MustCompile(`^[a-z_]+$`)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// SafeOrderings drops orderings on fields that are not in `allowed` (or not plain column names).
func SafeOrderings(ordering []DBOrdering, allowed ...string) []DBOrdering {
	if len(ordering) == 0 {
		return nil
	}
	safe := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if !orderingFieldRegex.MatchString(ord.Field) {
			continue
		}
		for _, a := range allowed {
			if ord.Field == a {
				safe = append(safe, ord)
				break
			}
		}
	}
	return safe
}
