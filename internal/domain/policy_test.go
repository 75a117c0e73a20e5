package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/focus/internal/classifier"
	"example.com/focus/internal/domain"
	"example.com/focus/internal/ingest"
)

type fixedUsageSource struct {
	usage ingest.Usage
}

func (s fixedUsageSource) UsageByUser(context.Context, ingest.Filter) (ingest.Usage, error) {
	return s.usage, nil
}

type summaryRecorder struct {
	stored *domain.ProductivitySummary
}

func (r *summaryRecorder) GetSummary(context.Context, string, string) (*domain.ProductivitySummary, error) {
	return r.stored, nil
}

func (r *summaryRecorder) UpsertSummary(_ context.Context, fresh domain.ProductivitySummary) (domain.ProductivitySummary, bool, error) {
	merged := domain.MergeSummaries(r.stored, fresh)
	existed := r.stored != nil
	r.stored = &merged
	return merged, existed, nil
}

func newPolicyService(unknownFocused bool, store *summaryRecorder) *domain.Service {
	cfg := classifier.DefaultConfig()
	cfg.DefaultUnknownFocused = unknownFocused

	source := fixedUsageSource{usage: ingest.Usage{Apps: []ingest.Record{
		{UserID: "user-1", Date: "2026-08-31", AppName: "Zotero", Duration: 100},
	}}}

	return domain.NewService(source, store,
		classifier.New(classifier.NewSmartRuleSet(cfg, nil)),
		domain.WithSummaryClassifier(classifier.New(classifier.NewKeywordRuleSet(cfg))))
}

// An app matching no keyword list must land in the stored summary according
// to the unknown-app default policy, while the analysis endpoints keep the
// smart chain's duration fallback.
func TestUnknownAppDefaultShapesStoredSummary(t *testing.T) {
	store := &summaryRecorder{}
	service := newPolicyService(true, store)

	analysis, stored, _, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-31")
	require.NoError(t, err)

	require.Equal(t, "Duration-based fallback", analysis.Activities[0].Reason)
	require.Equal(t, domain.LabelDistracted, analysis.Activities[0].Label)

	require.Equal(t, 100, stored.ProductiveContent["Zotero"])
	require.Empty(t, stored.NonProductiveContent)
	require.Equal(t, 100, stored.FocusScore)
	require.Equal(t, "Zotero", stored.MaxProductiveApp)
}

func TestUnknownAppDefaultDisabledFallsBackToDuration(t *testing.T) {
	store := &summaryRecorder{}
	service := newPolicyService(false, store)

	_, stored, _, err := service.AnalyzeAndStore(context.Background(), "user-1", "", "2026-08-31")
	require.NoError(t, err)

	require.Equal(t, 100, stored.NonProductiveContent["Zotero"])
	require.Empty(t, stored.ProductiveContent)
	require.Equal(t, 0, stored.FocusScore)
	require.Equal(t, "", stored.MaxProductiveApp)
}
