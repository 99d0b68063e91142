package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/finance"
)

type (
	// DB holds every table in memory. Rows are returned in insertion order unless ordered otherwise.
	DB struct {
		budget     *table[finance.Budget]
		expense    *table[finance.Expense]
		fee        *table[finance.FeePayment]
		salary     *table[finance.SalaryPayment]
		student    *table[academic.Student]
		grade      *table[academic.Grade]
		attendance *table[academic.AttendanceRecord]
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]*T
		keys []string // insertion order
	}
)

func Open() *DB {
	return &DB{
		budget:     newTable[finance.Budget](),
		expense:    newTable[finance.Expense](),
		fee:        newTable[finance.FeePayment](),
		salary:     newTable[finance.SalaryPayment](),
		student:    newTable[academic.Student](),
		grade:      newTable[academic.Grade](),
		attendance: newTable[academic.AttendanceRecord](),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func newID() string { return uuid.NewString() }

// must be called with the lock held
func (t *table[T]) insert(id string, row T) {
	if _, ok := t.rows[id]; !ok {
		t.keys = append(t.keys, id)
	}
	t.rows[id] = &row
}

// must be called with the lock held
func (t *table[T]) delete(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.keys {
		if k == id {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// filter returns copies of the rows matching `keep`; must be called with the (read) lock held
func (t *table[T]) filter(keep func(row T) bool) []T {
	rows := make([]T, 0, len(t.keys))
	for _, k := range t.keys {
		if row := *t.rows[k]; keep == nil || keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// orderBy sorts rows by the given orderings, using the comparators of the allowed fields.
// A comparator returns <0, 0 or >0.
func orderBy[T any](rows []T, ordering []core.DBOrdering, comparators map[string]func(a, b T) int) {
	allowed := make([]string, 0, len(comparators))
	for f := range comparators {
		allowed = append(allowed, f)
	}
	ordering = core.SafeOrderings(ordering, allowed...)
	if len(ordering) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			c := comparators[ord.Field](rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func matches(value, want string) bool {
	return want == "" || value == want
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
