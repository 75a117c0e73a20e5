package domain

import (
	"context"
	"errors"
	"fmt"

	"example.com/focus/internal/ingest"
)

// ErrNoUsageData is returned when no usable usage records exist for the
// requested user and date.
var ErrNoUsageData = errors.New("no usage data for user and date")

// UsageSource supplies the raw usage records to analyze.
type UsageSource interface {
	UsageByUser(ctx context.Context, filter ingest.Filter) (ingest.Usage, error)
}

// SummaryStore persists per-day productivity summaries. Upsert applies the
// positive-delta merge against the stored row under a per-key lock and
// returns the merged result, reporting whether an existing row was merged.
type SummaryStore interface {
	GetSummary(ctx context.Context, userID, date string) (*ProductivitySummary, error)
	UpsertSummary(ctx context.Context, fresh ProductivitySummary) (ProductivitySummary, bool, error)
}

// ActivityClassifier turns normalized usage into classified activities.
type ActivityClassifier interface {
	ClassifyUsage(usage ingest.Usage) []Activity
}

// Service orchestrates the analysis workflows: fetch usage, classify,
// aggregate, and optionally persist the merged summary.
type Service struct {
	usage             UsageSource
	summaries         SummaryStore
	classifier        ActivityClassifier
	summaryClassifier ActivityClassifier
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithSummaryClassifier overrides the classifier used when folding usage into
// the persisted per-day summary. The primary classifier still drives the
// analysis views; the override only shapes what AnalyzeAndStore writes, so the
// unknown-app default policy of the keyword variant can apply to stored
// summaries without touching ad-hoc analysis.
func WithSummaryClassifier(classifier ActivityClassifier) Option {
	return func(s *Service) {
		s.summaryClassifier = classifier
	}
}

// NewService constructs a Service.
func NewService(usage UsageSource, summaries SummaryStore, classifier ActivityClassifier, opts ...Option) *Service {
	s := &Service{usage: usage, summaries: summaries, classifier: classifier}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analysis is the full result of classifying one user's day. Category
// summaries are reported twice: as one bucket per label, and broken out per
// application.
type Analysis struct {
	UserID              string            `json:"user_id"`
	Email               string            `json:"email,omitempty"`
	Date                string            `json:"date"`
	TotalActivities     int               `json:"total_activities"`
	Activities          []Activity        `json:"activities"`
	FocusAreas          []CategorySummary `json:"focus_areas"`
	DistractionAreas    []CategorySummary `json:"distraction_areas"`
	FocusAppAreas       []CategorySummary `json:"focus_app_areas"`
	DistractionAppAreas []CategorySummary `json:"distraction_app_areas"`
	Summary             FocusSummary      `json:"summary"`
}

// Analyze fetches the user's usage for the date, classifies it, and
// aggregates the result.
func (s *Service) Analyze(ctx context.Context, userID, email, date string) (Analysis, error) {
	_, activities, err := s.fetchAndClassify(ctx, userID, email, date)
	if err != nil {
		return Analysis{}, err
	}
	return buildAnalysis(userID, email, date, activities), nil
}

// AnalyzeAndStore runs Analyze and folds the classified activities into the
// persisted per-day summary. When a summary classifier override is configured
// the usage is reclassified through it before the fold, so the stored row
// follows the summary policy rather than the analysis chain. The returned
// summary is the merged row as stored, not the fresh snapshot; the flag
// reports whether an existing row was updated incrementally.
func (s *Service) AnalyzeAndStore(ctx context.Context, userID, email, date string) (Analysis, ProductivitySummary, bool, error) {
	usage, activities, err := s.fetchAndClassify(ctx, userID, email, date)
	if err != nil {
		return Analysis{}, ProductivitySummary{}, false, err
	}

	analysis := buildAnalysis(userID, email, date, activities)

	summaryActivities := activities
	if s.summaryClassifier != nil {
		summaryActivities = s.summaryClassifier.ClassifyUsage(usage)
	}
	fresh := BuildProductivitySummary(userID, email, date, summaryActivities, mostVisitedTab(usage))

	stored, merged, err := s.summaries.UpsertSummary(ctx, fresh)
	if err != nil {
		return Analysis{}, ProductivitySummary{}, false, fmt.Errorf("store summary: %w", err)
	}
	return analysis, stored, merged, nil
}

// Summary returns the persisted summary for the user and date, computing and
// storing one first when none exists yet.
func (s *Service) Summary(ctx context.Context, userID, email, date string) (ProductivitySummary, error) {
	stored, err := s.summaries.GetSummary(ctx, userID, date)
	if err != nil {
		return ProductivitySummary{}, fmt.Errorf("load summary: %w", err)
	}
	if stored != nil {
		return *stored, nil
	}

	_, computed, _, err := s.AnalyzeAndStore(ctx, userID, email, date)
	if err != nil {
		return ProductivitySummary{}, err
	}
	return computed, nil
}

// QuickStats classifies the day's usage and returns only the headline
// statistics, without touching the summary store.
func (s *Service) QuickStats(ctx context.Context, userID, email, date string) (FocusSummary, error) {
	_, activities, err := s.fetchAndClassify(ctx, userID, email, date)
	if err != nil {
		return FocusSummary{}, err
	}
	return GenerateSummary(activities), nil
}

func (s *Service) fetchAndClassify(ctx context.Context, userID, email, date string) (ingest.Usage, []Activity, error) {
	usage, err := s.usage.UsageByUser(ctx, ingest.Filter{UserID: userID, Email: email, Date: date})
	if err != nil {
		return ingest.Usage{}, nil, fmt.Errorf("fetch usage: %w", err)
	}
	if usage.Empty() {
		return ingest.Usage{}, nil, ErrNoUsageData
	}

	activities := s.classifier.ClassifyUsage(usage)
	if len(activities) == 0 {
		return ingest.Usage{}, nil, ErrNoUsageData
	}
	return usage, activities, nil
}

func buildAnalysis(userID, email, date string, activities []Activity) Analysis {
	focus, distraction := CategorizeByLabel(activities)
	appFocus, appDistraction := CategorizeByApp(activities)

	return Analysis{
		UserID:              userID,
		Email:               email,
		Date:                date,
		TotalActivities:     len(activities),
		Activities:          activities,
		FocusAreas:          focus,
		DistractionAreas:    distraction,
		FocusAppAreas:       appFocus,
		DistractionAppAreas: appDistraction,
		Summary:             GenerateSummary(activities),
	}
}

// mostVisitedTab picks the browser domain with the largest accumulated
// duration for the day, falling back to the tab title when the tracker did
// not report a domain. Empty usage yields "".
func mostVisitedTab(usage ingest.Usage) string {
	if len(usage.Tabs) == 0 {
		return ""
	}
	durations := make(map[string]int)
	for _, tab := range usage.Tabs {
		key := tab.Domain
		if key == "" || key == "unknown" {
			key = tab.Title
		}
		if key == "" {
			key = "Browser"
		}
		durations[key] += tab.Duration
	}
	return maxEntry(durations)
}
