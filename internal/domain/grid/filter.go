package grid

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Default bounds applied when only one side of a date range is given
const (
	DefaultDateFrom = "1970-01-01"
	DefaultDateTo   = "2999-12-31"
)

// Option is one choice of a select filter
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Select declares a discrete-choice equality filter on one field
type Select struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// FilterConfig declares the searchable fields, the select filters and the
// field used for date-range filtering.
type FilterConfig struct {
	SearchKeys []string
	Selects    []Select
	DateKey    string
}

func (f *FilterConfig) hasSelect(key string) bool {
	if f == nil {
		return false
	}
	for _, s := range f.Selects {
		if s.Key == key {
			return true
		}
	}
	return false
}

// predicate decides whether a row survives a filter
type predicate func(Row) bool

// allOf combines predicates with AND. No predicates pass every row.
func allOf(preds ...predicate) predicate {
	return func(r Row) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// searchPredicate matches rows where any searched field contains q,
// case-insensitively. An empty query matches everything.
func searchPredicate(q string, keys []string) predicate {
	needle := strings.ToLower(q)
	if needle == "" {
		return nil
	}
	return func(r Row) bool {
		if len(keys) == 0 {
			for _, v := range r {
				if containsFold(v, needle) {
					return true
				}
			}
			return false
		}
		for _, k := range keys {
			if containsFold(r.Get(k), needle) {
				return true
			}
		}
		return false
	}
}

func containsFold(v Value, lowerNeedle string) bool {
	if v.IsNull() {
		return false
	}
	return strings.Contains(strings.ToLower(v.String()), lowerNeedle)
}

// selectPredicate matches rows whose field equals the chosen value
func selectPredicate(key, chosen string) predicate {
	return func(r Row) bool {
		return r.Get(key).String() == chosen
	}
}

// dateRange is an inclusive [from, to] interval. An invalid range excludes
// every row, like a comparison against an unparseable bound.
type dateRange struct {
	from, to time.Time
	valid    bool
}

func newDateRange(from, to string) dateRange {
	if from == "" {
		from = DefaultDateFrom
	}
	if to == "" {
		to = DefaultDateTo
	}
	f, errFrom := ParseTime(from)
	t, errTo := ParseTime(to)
	if errFrom != nil || errTo != nil {
		return dateRange{}
	}
	if isBareDate(to) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return dateRange{from: f, to: t, valid: true}
}

func (d dateRange) contains(t time.Time) bool {
	return d.valid && !t.Before(d.from) && !t.After(d.to)
}

// ParseTime interprets a field value as a timestamp. Bare dates and
// timestamps without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	return dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
}

// TimeOf reads a row value as a timestamp. Numbers are epoch milliseconds.
func TimeOf(v Value) (time.Time, bool) {
	if n, ok := v.Number(); ok {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	if v.IsNull() {
		return time.Time{}, false
	}
	t, err := ParseTime(v.String())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isBareDate(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
