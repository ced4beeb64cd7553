package dashboard

import (
	"sort"
	"strings"

	"github.com/ftad-ncr/tapmonitor/core/feed"
)

const allValues = "all"

// Query narrows the record list. Empty or "all" filters match everything.
type Query struct {
	Search   string `query:"search"`
	Period   string `query:"period"`
	District string `query:"district"`
	Office   string `query:"office"`
}

type FilterOptions struct {
	Periods   []string `json:"periods"`
	Districts []string `json:"districts"`
	Offices   []string `json:"offices"`
}

func matches(filter, value string) bool {
	return filter == "" || strings.EqualFold(filter, allValues) || filter == value
}

func (q Query) match(rec *feed.Record) bool {
	if !matches(q.Period, rec.Period) || !matches(q.District, rec.District) || !matches(q.Office, rec.Office) {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	if search == "" {
		return true
	}
	for _, v := range []string{rec.Office, rec.District, rec.DivisionSchool, rec.TAReceiver, rec.TAProvider} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

// Filter returns the records matching q, in feed order.
func Filter(records []feed.Record, q Query) []feed.Record {
	out := make([]feed.Record, 0, len(records))
	for i := range records {
		if q.match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

func distinct(records []feed.Record, value func(*feed.Record) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range records {
		v := value(&records[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NewFilterOptions lists the sorted distinct non-empty periods, districts and offices.
func NewFilterOptions(records []feed.Record) FilterOptions {
	return FilterOptions{
		Periods:   distinct(records, func(r *feed.Record) string { return r.Period }),
		Districts: distinct(records, func(r *feed.Record) string { return r.District }),
		Offices:   distinct(records, func(r *feed.Record) string { return r.Office }),
	}
}
