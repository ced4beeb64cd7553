package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftad-ncr/tapmonitor/core/feed"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status string
		want   Bucket
	}{
		{status: "Accomplished", want: Accomplished},
		{status: "MET", want: Accomplished},
		{status: "Completed", want: Accomplished},
		{status: "done ", want: Accomplished},
		{status: "Yes", want: Accomplished},
		{status: "Done - no issues", want: Accomplished},
		{status: "Accomplished (no further TA needed)", want: Accomplished},
		{status: "Yes, no follow-up", want: Accomplished},
		{status: "Completed, no delays", want: Accomplished},
		{status: "Not completed", want: Unaccomplished},
		{status: "Unmet", want: Unaccomplished},
		{status: "Not yet met", want: Unaccomplished},
		{status: "not met", want: Unaccomplished},
		{status: "Unaccomplished", want: Unaccomplished},
		{status: "Incomplete", want: Unaccomplished},
		{status: "No", want: Unaccomplished},
		{status: "None", want: Unaccomplished},
		{status: "Partial", want: Partial},
		{status: "Partially accomplished", want: Accomplished},
		{status: "Not partially done", want: Partial},
		{status: "", want: Pending},
		{status: "Ongoing", want: Pending},
		{status: "For follow-up", want: Pending},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status))
		})
	}
}

func TestAggregate(t *testing.T) {
	records := []feed.Record{
		{Targets: []feed.Target{
			{Objective: "a", TAPStatus: "Accomplished"},
			{Objective: "b", TAPStatus: "Not yet met"},
			{Objective: "c", Status: "Partial"},
			{Objective: "", TAPStatus: "Done"},
		}},
		{Targets: []feed.Target{
			{Objective: "d", Status: "Done", TAPStatus: "Pending review"},
			{Objective: "e", TAPStatus: "met"},
		}},
		{},
	}

	assert.Equal(t, Stats{
		TotalInterventions: 3,
		ResolutionRate:     40,
		TotalTARequests:    5,
		AccomplishedTAPs:   2,
		PartialTAPs:        1,
		UnaccomplishedTAPs: 1,
		PendingTAPs:        1,
	}, Aggregate(records))
}

func TestAggregate_noRequests(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil))

	s := Aggregate([]feed.Record{{Office: "SDO-A"}, {Targets: []feed.Target{{TAPStatus: "Done"}}}})
	assert.Equal(t, 2, s.TotalInterventions)
	assert.Equal(t, 0, s.TotalTARequests)
	assert.Equal(t, float64(0), s.ResolutionRate)
}

func TestAggregate_endToEnd(t *testing.T) {
	text := "a,b\nx\ny\nOFFICE, DIVISION/SCHOOL, OBJECTIVE1, STATUSCOMPLETION1\nSDO-X, , Improve reading scores, Partial\n"
	records, err := feed.Parser{}.ParseText(text)
	require.NoError(t, err)

	s := Aggregate(records)
	assert.Equal(t, 1, s.TotalTARequests)
	assert.Equal(t, 1, s.PartialTAPs)
	assert.Equal(t, float64(0), s.ResolutionRate)
}

func TestNewReport(t *testing.T) {
	records := []feed.Record{
		{Office: "SDO-A", DivisionSchool: "School A", Targets: []feed.Target{{Objective: "a", TAPStatus: "Done"}, {Objective: "b"}},
			Access: []feed.CategoryItem{{Status: "x"}, {Status: "y"}}},
		{Office: "SDO-A", DivisionSchool: "School A", Targets: []feed.Target{{Objective: "c", TAPStatus: "Done"}},
			Quality: []feed.CategoryItem{{Status: "x"}}},
		{Office: "SDO-B", DivisionSchool: "School B", Targets: []feed.Target{{Objective: "d"}}},
		{Office: "SDO-C", Targets: []feed.Target{{Objective: "e"}}},
	}

	r := NewReport(records, 2)
	assert.Equal(t, 4, r.TotalInterventions)
	assert.Equal(t, []DivisionCount{
		{Division: "School A", Targets: 3, Accomplished: 2},
		{Division: "SDO-C", Targets: 1},
	}, r.Divisions)
	require.Len(t, r.Categories, len(feed.Groups))
	assert.Equal(t, CategoryCount{Category: feed.GroupAccess, Items: 2}, r.Categories[0])
	assert.Equal(t, CategoryCount{Category: feed.GroupQuality, Items: 1}, r.Categories[1])
	assert.Equal(t, 0, r.Categories[4].Items)

	assert.Len(t, NewReport(records, 0).Divisions, 3)
}
