package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AllBuckets is the sentinel bucket index meaning "no time restriction".
const AllBuckets = -1

// Granularity is the width of a time bucket.
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
)

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityYear:
		return GranularityYear, nil
	case GranularityMonth:
		return GranularityMonth, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Bucket groups the events sharing a year or year-month key.
type Bucket struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Year    int     `json:"year"`
	Month   int     `json:"month,omitempty"`
	Members []Event `json:"-"`
}

type bucketKey struct{ year, month int }

// BucketByTime partitions the events that carry valid time fields for g into
// chronologically ordered buckets. Events without a year (or, for month
// granularity, without a month in 1..12) are left out of every bucket.
// Member order within a bucket follows input order.
func BucketByTime(events []Event, g Granularity) []Bucket {
	groups := make(map[bucketKey][]Event)
	for _, e := range events {
		k, ok := keyFor(e, g)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], e)
	}

	keys := make([]bucketKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := Bucket{Key: k.format(g), Year: k.year, Month: k.month, Members: groups[k]}
		if g == GranularityMonth {
			b.Label = fmt.Sprintf("%s %d", time.Month(k.month), k.year)
		} else {
			b.Label = b.Key
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// BucketKey returns the key of the bucket e falls into at g, or false when e
// lacks the time fields g needs.
func BucketKey(e Event, g Granularity) (string, bool) {
	k, ok := keyFor(e, g)
	if !ok {
		return "", false
	}
	return k.format(g), true
}

func (k bucketKey) format(g Granularity) string {
	if g == GranularityMonth {
		return fmt.Sprintf("%d-%02d", k.year, k.month)
	}
	return strconv.Itoa(k.year)
}

func keyFor(e Event, g Granularity) (bucketKey, bool) {
	if e.TimeKey.Year == nil {
		return bucketKey{}, false
	}
	if g != GranularityMonth {
		return bucketKey{year: *e.TimeKey.Year}, true
	}
	if e.TimeKey.Month == nil || *e.TimeKey.Month < 1 || *e.TimeKey.Month > 12 {
		return bucketKey{}, false
	}
	return bucketKey{year: *e.TimeKey.Year, month: *e.TimeKey.Month}, true
}

// Timeline is the bucket list for the active granularity plus the selected
// index (AllBuckets when unrestricted).
type Timeline struct {
	Granularity Granularity
	Buckets     []Bucket
	Index       int
}

// NewTimeline buckets the catalog at g with no bucket selected.
func NewTimeline(events []Event, g Granularity) Timeline {
	return Timeline{Granularity: g, Buckets: BucketByTime(events, g), Index: AllBuckets}
}

// NavigationEnabled reports whether stepping through buckets makes sense.
func (t Timeline) NavigationEnabled() bool { return len(t.Buckets) > 1 }

// Select clamps idx into range. Negative values select AllBuckets.
func (t *Timeline) Select(idx int) {
	if idx < 0 || len(t.Buckets) == 0 {
		t.Index = AllBuckets
		return
	}
	if idx >= len(t.Buckets) {
		idx = len(t.Buckets) - 1
	}
	t.Index = idx
}

// Next advances one bucket, wrapping to the first after the last. From
// AllBuckets it selects the first bucket.
func (t *Timeline) Next() {
	if len(t.Buckets) == 0 {
		t.Index = AllBuckets
		return
	}
	if t.Index < len(t.Buckets)-1 {
		t.Index++
		return
	}
	t.Index = 0
}

// Prev steps back one bucket; it stops at the first.
func (t *Timeline) Prev() {
	if t.Index > 0 {
		t.Index--
	}
}

// Subset returns the selected bucket's members, or all of events at
// AllBuckets.
func (t Timeline) Subset(events []Event) []Event {
	if t.Index < 0 || t.Index >= len(t.Buckets) {
		return events
	}
	return t.Buckets[t.Index].Members
}

// Label describes the current selection for display.
func (t Timeline) Label() string {
	if t.Index < 0 || t.Index >= len(t.Buckets) {
		return "All times"
	}
	return t.Buckets[t.Index].Label
}
