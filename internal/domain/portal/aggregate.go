package portal

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ibportal/backend/internal/domain/grid"
)

// Period is the bucket width of an aggregation
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// DefaultCountField receives the number of source rows in each bucket
const DefaultCountField = "count"

// Aggregate groups rows into time buckets on the By field, summing the Sum
// fields and counting rows. A "daily volume" report is
// {by: date, period: day, sum: [volume, commission]}.
type Aggregate struct {
	By     string   `yaml:"by"`
	Period Period   `yaml:"period"`
	Sum    []string `yaml:"sum"`
	Count  string   `yaml:"count"`
}

// Validate checks the aggregation is usable
func (a *Aggregate) Validate() error {
	if a.By == "" {
		return fmt.Errorf("aggregate.by is required")
	}
	switch a.Period {
	case "", PeriodDay, PeriodMonth:
	default:
		return fmt.Errorf("aggregate.period must be day or month, got %q", a.Period)
	}
	return nil
}

func (a *Aggregate) layout() string {
	if a.Period == PeriodMonth {
		return "2006-01"
	}
	return DateLayout
}

func (a *Aggregate) countField() string {
	if a.Count != "" {
		return a.Count
	}
	return DefaultCountField
}

type bucket struct {
	sums  []decimal.Decimal
	count int
}

// Apply returns one row per bucket, ordered by bucket ascending. The By
// field of each output row holds the bucket label ("2024-03-05" or
// "2024-03"). Rows whose By field is not a timestamp are left out and
// counted in skipped. Non-numeric summed values count as zero.
func (a *Aggregate) Apply(rows []grid.Row) (out []grid.Row, skipped int) {
	layout := a.layout()
	buckets := make(map[string]*bucket)
	for _, r := range rows {
		t, ok := grid.TimeOf(r.Get(a.By))
		if !ok {
			skipped++
			continue
		}
		key := t.UTC().Format(layout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{sums: make([]decimal.Decimal, len(a.Sum))}
			buckets[key] = b
		}
		b.count++
		for i, field := range a.Sum {
			if d, ok := decimalOf(r.Get(field)); ok {
				b.sums[i] = b.sums[i].Add(d)
			}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	countField := a.countField()
	out = make([]grid.Row, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		row := grid.Row{
			a.By:       grid.StringValue(k),
			countField: grid.NumberValue(float64(b.count)),
		}
		for i, field := range a.Sum {
			row[field] = grid.NumberValue(b.sums[i].InexactFloat64())
		}
		out = append(out, row)
	}
	return out, skipped
}

// BucketStart parses a bucket label back into the start of its period
func (a *Aggregate) BucketStart(label string) (time.Time, error) {
	return time.ParseInLocation(a.layout(), label, time.UTC)
}
