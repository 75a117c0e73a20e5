package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/focus/internal/ingest"
)

type stubSource struct {
	usage ingest.Usage
	err   error
	last  ingest.Filter
}

func (s *stubSource) UsageByUser(_ context.Context, filter ingest.Filter) (ingest.Usage, error) {
	s.last = filter
	return s.usage, s.err
}

// durationClassifier labels anything over the threshold Focused.
type durationClassifier struct {
	threshold int
}

func (c durationClassifier) ClassifyUsage(usage ingest.Usage) []Activity {
	records := usage.Records()
	out := make([]Activity, 0, len(records))
	for _, rec := range records {
		label := LabelDistracted
		if rec.Duration > c.threshold {
			label = LabelFocused
		}
		out = append(out, Activity{
			AppName:    rec.AppName,
			TabTitle:   rec.AppName,
			Duration:   rec.Duration,
			Label:      label,
			Confidence: 0.60,
			Reason:     "Duration-based fallback",
		})
	}
	return out
}

type memoryStore struct {
	summaries map[string]ProductivitySummary
	getErr    error
	upsertErr error
	upserts   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{summaries: make(map[string]ProductivitySummary)}
}

func (m *memoryStore) GetSummary(_ context.Context, userID, date string) (*ProductivitySummary, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	stored, ok := m.summaries[userID+"|"+date]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

func (m *memoryStore) UpsertSummary(_ context.Context, fresh ProductivitySummary) (ProductivitySummary, bool, error) {
	if m.upsertErr != nil {
		return ProductivitySummary{}, false, m.upsertErr
	}
	m.upserts++
	key := fresh.UserID + "|" + fresh.Date
	var existing *ProductivitySummary
	if stored, ok := m.summaries[key]; ok {
		existing = &stored
	}
	merged := MergeSummaries(existing, fresh)
	m.summaries[key] = merged
	return merged, existing != nil, nil
}

func testUsage() ingest.Usage {
	return ingest.Usage{
		Apps: []ingest.Record{
			{UserID: "user-1", Date: "2026-08-30", AppName: "VS Code", Duration: 1200},
			{UserID: "user-1", Date: "2026-08-30", AppName: "Netflix", Duration: 300},
		},
		Tabs: []ingest.TabRecord{
			{UserID: "user-1", Date: "2026-08-30", Domain: "github.com", Title: "PRs", Duration: 700},
		},
	}
}

func newTestService(source *stubSource, store *memoryStore) *Service {
	return NewService(source, store, durationClassifier{threshold: 600})
}

func TestAnalyzeBuildsBothAggregations(t *testing.T) {
	source := &stubSource{usage: testUsage()}
	service := newTestService(source, newMemoryStore())

	analysis, err := service.Analyze(context.Background(), "user-1", "u@example.com", "2026-08-30")
	require.NoError(t, err)

	require.Equal(t, "user-1", analysis.UserID)
	require.Equal(t, 3, analysis.TotalActivities)
	require.Len(t, analysis.FocusAreas, 1)
	require.Len(t, analysis.DistractionAreas, 1)
	require.Len(t, analysis.FocusAppAreas, 2)
	require.Len(t, analysis.DistractionAppAreas, 1)
	require.Equal(t, "VS Code", analysis.FocusAppAreas[0].Category)

	require.Equal(t, "user-1", source.last.UserID)
	require.Equal(t, "2026-08-30", source.last.Date)
}

func TestAnalyzeNoUsage(t *testing.T) {
	service := newTestService(&stubSource{}, newMemoryStore())

	_, err := service.Analyze(context.Background(), "user-1", "", "2026-08-30")
	require.ErrorIs(t, err, ErrNoUsageData)
}

func TestAnalyzeSourceError(t *testing.T) {
	service := newTestService(&stubSource{err: errors.New("pool exhausted")}, newMemoryStore())

	_, err := service.Analyze(context.Background(), "user-1", "", "2026-08-30")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoUsageData)
}

func TestAnalyzeAndStoreReportsIncrementalMerge(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(&stubSource{usage: testUsage()}, store)

	_, first, merged, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.False(t, merged)
	require.Equal(t, 1900, first.TotalProductiveTime)
	require.Equal(t, 300, first.TotalNonProductive)
	require.Equal(t, 86, first.FocusScore)
	require.Equal(t, "github.com", first.MostVisitedTab)

	_, second, merged, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.True(t, merged)
	require.Equal(t, first.OverallTotalUsage, second.OverallTotalUsage)
}

// fixedLabelClassifier stamps every record with one label so tests can tell
// which classifier produced a given result.
type fixedLabelClassifier struct {
	label  Label
	reason string
}

func (c fixedLabelClassifier) ClassifyUsage(usage ingest.Usage) []Activity {
	records := usage.Records()
	out := make([]Activity, 0, len(records))
	for _, rec := range records {
		out = append(out, Activity{
			AppName:    rec.AppName,
			TabTitle:   rec.AppName,
			Duration:   rec.Duration,
			Label:      c.label,
			Confidence: 0.80,
			Reason:     c.reason,
		})
	}
	return out
}

func TestAnalyzeAndStoreUsesSummaryClassifierOverride(t *testing.T) {
	store := newMemoryStore()
	service := NewService(&stubSource{usage: testUsage()}, store,
		fixedLabelClassifier{label: LabelDistracted, reason: "analysis chain"},
		WithSummaryClassifier(fixedLabelClassifier{label: LabelFocused, reason: "summary policy"}))

	analysis, stored, _, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)

	// The analysis views keep the primary chain's labels.
	require.Empty(t, analysis.FocusAppAreas)
	require.Len(t, analysis.DistractionAppAreas, 3)

	// The persisted summary follows the override.
	require.Equal(t, 2200, stored.TotalProductiveTime)
	require.Equal(t, 0, stored.TotalNonProductive)
	require.Equal(t, 100, stored.FocusScore)
	require.Equal(t, 1, store.upserts)
}

func TestSummaryPrefersStoredRow(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(&stubSource{usage: testUsage()}, store)

	_, _, _, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 1, store.upserts)

	summary, err := service.Summary(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 86, summary.FocusScore)
	require.Equal(t, 1, store.upserts, "stored row must be served without recomputing")
}

func TestSummaryComputesWhenMissing(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(&stubSource{usage: testUsage()}, store)

	summary, err := service.Summary(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 2200, summary.OverallTotalUsage)
	require.Equal(t, 1, store.upserts)
}

func TestQuickStatsDoesNotPersist(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(&stubSource{usage: testUsage()}, store)

	stats, err := service.QuickStats(context.Background(), "user-1", "", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 86, stats.ProductivityScore)
	require.Equal(t, 31, stats.FocusedDurationMinutes)
	require.Equal(t, 0, store.upserts)
}

func TestMostVisitedTabAccumulatesPerDomain(t *testing.T) {
	usage := ingest.Usage{Tabs: []ingest.TabRecord{
		{Domain: "github.com", Duration: 300},
		{Domain: "youtube.com", Duration: 400},
		{Domain: "github.com", Duration: 200},
		{Domain: "unknown", Title: "Local docs", Duration: 100},
	}}

	require.Equal(t, "github.com", mostVisitedTab(usage))
	require.Equal(t, "", mostVisitedTab(ingest.Usage{}))
}

func TestBuildProductivitySummarySkipsInvalidActivities(t *testing.T) {
	activities := []Activity{
		{AppName: "VS Code", Duration: 600, Label: LabelFocused},
		{AppName: "", Duration: 500, Label: LabelFocused},
		{AppName: "Netflix", Duration: 0, Label: LabelDistracted},
		{AppName: "Netflix", Duration: 400, Label: LabelDistracted},
	}

	summary := BuildProductivitySummary("user-1", "u@example.com", "2026-08-30", activities, "github.com")

	require.Equal(t, 600, summary.TotalProductiveTime)
	require.Equal(t, 400, summary.TotalNonProductive)
	require.Equal(t, 1000, summary.OverallTotalUsage)
	require.Equal(t, 60, summary.FocusScore)
	require.Equal(t, "VS Code", summary.MaxProductiveApp)
	require.Equal(t, "VS Code", summary.MostUsedApp)
	require.Equal(t, map[string]int{"Netflix": 400}, summary.DistractionApps)
}
