package stats

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ftad-ncr/tapmonitor/core/feed"
)

// Bucket is the completion class of a target.
type Bucket int

const (
	Pending Bucket = iota
	Accomplished
	Partial
	Unaccomplished
)

func (b Bucket) String() string {
	switch b {
	case Accomplished:
		return "accomplished"
	case Partial:
		return "partial"
	case Unaccomplished:
		return "unaccomplished"
	}
	return "pending"
}

var (
	accomplishedKeywords   = []string{"accomplished", "met", "complete", "done", "yes"}
	partialKeywords        = []string{"partial"}
	unaccomplishedKeywords = []string{"unaccomplished", "not met", "no"}

	// these negate the completion keyword itself, a stray "no" elsewhere does not ("Done - no issues")
	negatedPhrases = []string{
		"not met", "not yet met", "unmet", "incomplete", "unaccomplished",
		"not accomplished", "not complete", "not done",
	}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// negated reports whether s negates completion, either with a negated phrase
// or by opening with "no"/"not" ("Not partially done", "No, ongoing").
func negated(s string) bool {
	if containsAny(s, negatedPhrases) {
		return true
	}
	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	return len(words) > 0 && (words[0] == "no" || words[0] == "not")
}

// Classify buckets a free-form completion status by keyword containment, case-insensitively.
// Precedence: accomplished, partial, unaccomplished, pending. A negated status ("not yet met")
// skips the accomplished keywords and lands in Unaccomplished unless it mentions "partial".
func Classify(status string) Bucket {
	s := strings.ToLower(strings.TrimSpace(status))
	neg := negated(s)
	switch {
	case !neg && containsAny(s, accomplishedKeywords):
		return Accomplished
	case containsAny(s, partialKeywords):
		return Partial
	case neg || containsAny(s, unaccomplishedKeywords):
		return Unaccomplished
	}
	return Pending
}

type (
	Stats struct {
		TotalInterventions int     `json:"totalInterventions"`
		ResolutionRate     float64 `json:"resolutionRate"`
		TotalTARequests    int     `json:"totalTARequests"`
		AccomplishedTAPs   int     `json:"accomplishedTAPs"`
		PartialTAPs        int     `json:"partialTAPs"`
		UnaccomplishedTAPs int     `json:"unaccomplishedTAPs"`
		PendingTAPs        int     `json:"pendingTAPs"`
	}

	DivisionCount struct {
		Division     string `json:"division"`
		Targets      int    `json:"targets"`
		Accomplished int    `json:"accomplished"`
	}

	CategoryCount struct {
		Category string `json:"category"`
		Items    int    `json:"items"`
	}

	// Report is Stats plus the breakdowns fed to the insights generator.
	Report struct {
		Stats
		Divisions  []DivisionCount `json:"divisions"`
		Categories []CategoryCount `json:"categories"`
	}
)

func (s *Stats) add(b Bucket) {
	switch b {
	case Accomplished:
		s.AccomplishedTAPs++
	case Partial:
		s.PartialTAPs++
	case Unaccomplished:
		s.UnaccomplishedTAPs++
	default:
		s.PendingTAPs++
	}
}

// Aggregate reduces records into counts by completion bucket. Only targets with an objective count.
// ResolutionRate is Accomplished / TotalTARequests * 100, 0 without requests.
func Aggregate(records []feed.Record) Stats {
	s := Stats{TotalInterventions: len(records)}
	for _, rec := range records {
		for _, t := range rec.Targets {
			if t.Objective == "" {
				continue
			}
			s.TotalTARequests++
			s.add(Classify(t.CompletionStatus()))
		}
	}
	if s.TotalTARequests > 0 {
		s.ResolutionRate = float64(s.AccomplishedTAPs) / float64(s.TotalTARequests) * 100
	}
	return s
}

// NewReport aggregates records and keeps the top `limit` divisions by number of targets (limit <= 0 keeps all).
func NewReport(records []feed.Record, limit int) Report {
	r := Report{Stats: Aggregate(records)}

	byDivision := make(map[string]*DivisionCount)
	categories := make(map[string]int, len(feed.Groups))
	for i := range records {
		rec := &records[i]
		name := rec.DivisionSchool
		if name == "" {
			name = rec.Office
		}
		dc, ok := byDivision[name]
		if !ok {
			dc = &DivisionCount{Division: name}
			byDivision[name] = dc
		}
		for _, t := range rec.Targets {
			if t.Objective == "" {
				continue
			}
			dc.Targets++
			if Classify(t.CompletionStatus()) == Accomplished {
				dc.Accomplished++
			}
		}
		for _, group := range feed.Groups {
			categories[group] += len(rec.Category(group))
		}
	}

	r.Divisions = make([]DivisionCount, 0, len(byDivision))
	for _, dc := range byDivision {
		r.Divisions = append(r.Divisions, *dc)
	}
	sort.Slice(r.Divisions, func(i, j int) bool {
		if r.Divisions[i].Targets != r.Divisions[j].Targets {
			return r.Divisions[i].Targets > r.Divisions[j].Targets
		}
		return r.Divisions[i].Division < r.Divisions[j].Division
	})
	if limit > 0 && len(r.Divisions) > limit {
		r.Divisions = r.Divisions[:limit]
	}

	r.Categories = make([]CategoryCount, 0, len(feed.Groups))
	for _, group := range feed.Groups {
		r.Categories = append(r.Categories, CategoryCount{Category: group, Items: categories[group]})
	}
	sort.SliceStable(r.Categories, func(i, j int) bool { return r.Categories[i].Items > r.Categories[j].Items })
	return r
}
