package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/dashboard"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/ingest"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/report"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/segment"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

func TestFormatOverview_Unavailable(t *testing.T) {
	var buf bytes.Buffer
	formatOverview(&buf, &dashboard.Overview{})
	assert.Contains(t, buf.String(), "required datasets are empty")
}

func TestFormatOverview_Available(t *testing.T) {
	threshold := 16469.0
	hardship := 42.5
	ov := &dashboard.Overview{
		Version:   3,
		Available: true,
		Filter:    dashboard.Filter{Threshold: &threshold, TopN: 10},
		KPIs:      dashboard.KPIs{Communities: 2, AvgHardship: &hardship},
		Comparison: segment.Comparison{
			Types:  []string{"THEFT"},
			Counts: []segment.TypeCount{{Segment: segment.Low, PrimaryType: "THEFT", Count: 4}},
		},
		Share: []segment.Share{{Segment: segment.Low, Count: 4, Percent: 100}},
		Hotspots: segment.HotspotReport{
			Rows:            []segment.Hotspot{{CommunityName: "West Ridge", Segment: segment.Low, Count: 4}},
			ExcludedUnknown: 2,
		},
	}

	var buf bytes.Buffer
	formatOverview(&buf, ov)
	out := buf.String()
	assert.Contains(t, out, "Snapshot 3")
	assert.Contains(t, out, "42.5")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "THEFT")
	assert.Contains(t, out, "West Ridge")
	assert.Contains(t, out, "2 incidents with unknown income excluded")
	assert.Contains(t, out, "No data available for this view")
}

func TestFormatHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-2 * time.Hour)
	done := started.Add(1500 * time.Millisecond)

	var buf bytes.Buffer
	formatHistory(&buf, []store.IngestEntry{
		{ID: 2, Status: store.StatusFailed, StartedAt: started, CompletedAt: &done, Error: "timeout"},
		{ID: 1, Status: store.StatusRunning, StartedAt: started, CrimeRows: 533000},
	}, now)
	out := buf.String()
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "533,000")
	assert.Contains(t, out, "2 hours ago")

	buf.Reset()
	formatHistory(&buf, nil, now)
	assert.Contains(t, buf.String(), "No ingest runs recorded")
}

func TestFormatIngestResult(t *testing.T) {
	var buf bytes.Buffer
	formatIngestResult(&buf, &ingest.Result{
		Version: 4,
		Sources: []ingest.SourceStats{
			{Table: "CENSUS_DATA", Location: "census.csv", Rows: 78, Missing: []string{"HARDSHIP_INDEX"}},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "CENSUS_DATA")
	assert.Contains(t, out, "HARDSHIP_INDEX")
	assert.Contains(t, out, "census.csv")
}

func TestToReportOutput(t *testing.T) {
	out := toReportOutput([]report.Result{
		{Query: report.Query{ID: 1}, Table: &store.Table{Rows: [][]any{}}},
		{Query: report.Query{ID: 2}, Err: errors.New("report: query 2: no such table")},
	})
	assert.Len(t, out, 2)
	assert.True(t, out[0].NoRows)
	assert.Empty(t, out[0].Error)
	assert.False(t, out[1].NoRows)
	assert.Contains(t, out[1].Error, "no such table")
}
