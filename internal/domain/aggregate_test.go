package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleActivities() []Activity {
	return []Activity{
		{AppName: "VS Code", TabTitle: "VS Code", Duration: 1800, Label: LabelFocused, Confidence: 0.98, Reason: "Development tool"},
		{AppName: "Terminal", TabTitle: "Terminal", Duration: 600, Label: LabelFocused, Confidence: 0.88, Reason: "Development tool"},
		{AppName: "VS Code", TabTitle: "VS Code", Duration: 600, Label: LabelFocused, Confidence: 0.98, Reason: "Development tool"},
		{AppName: "Netflix", TabTitle: "Netflix", Duration: 900, Label: LabelDistracted, Confidence: 0.60, Reason: "Duration-based fallback"},
	}
}

func TestCategorizeByLabel(t *testing.T) {
	focus, distraction := CategorizeByLabel(sampleActivities())

	require.Len(t, focus, 1)
	require.Equal(t, CategoryProductivity, focus[0].Category)
	require.Equal(t, 3000, focus[0].TotalDuration)
	require.Equal(t, 3, focus[0].ActivityCount)
	require.Equal(t, []string{"VS Code", "Terminal"}, focus[0].Apps)
	require.InDelta(t, (0.98+0.88+0.98)/3, focus[0].AvgConfidence, 1e-9)

	require.Len(t, distraction, 1)
	require.Equal(t, CategoryEntertainment, distraction[0].Category)
	require.Equal(t, 900, distraction[0].TotalDuration)
}

func TestCategorizeByLabelOmitsEmptyGroups(t *testing.T) {
	focus, distraction := CategorizeByLabel([]Activity{
		{AppName: "VS Code", Duration: 100, Label: LabelFocused, Confidence: 0.95},
	})

	require.Len(t, focus, 1)
	require.Empty(t, distraction)
}

func TestCategorizeByAppSortsByDuration(t *testing.T) {
	focus, distraction := CategorizeByApp(sampleActivities())

	require.Len(t, focus, 2)
	require.Equal(t, "VS Code", focus[0].Category)
	require.Equal(t, 2400, focus[0].TotalDuration)
	require.Equal(t, 2, focus[0].ActivityCount)
	require.Equal(t, "Terminal", focus[1].Category)
	require.Equal(t, 600, focus[1].TotalDuration)

	require.Len(t, distraction, 1)
	require.Equal(t, "Netflix", distraction[0].Category)
}

func TestGenerateSummary(t *testing.T) {
	summary := GenerateSummary(sampleActivities())

	// 3000 of 3900 seconds focused, rounded to the nearest percent
	require.Equal(t, 77, summary.ProductivityScore)
	require.Equal(t, 77, summary.FocusPercentage)
	require.Equal(t, 50, summary.FocusedDurationMinutes)
	require.Equal(t, 15, summary.DistractedDurationMinutes)
	require.Equal(t, 65, summary.TotalDurationMinutes)
	require.Equal(t, "VS Code", summary.MostFocusedApp)
	require.Equal(t, "Netflix", summary.MostDistractingApp)
}

func TestGenerateSummaryEmptyInput(t *testing.T) {
	summary := GenerateSummary(nil)

	require.Equal(t, 0, summary.ProductivityScore)
	require.Equal(t, 0, summary.TotalDurationMinutes)
	require.Equal(t, "None", summary.MostFocusedApp)
	require.Equal(t, "None", summary.MostDistractingApp)
}

func TestPercentOfRounds(t *testing.T) {
	require.Equal(t, 33, percentOf(1, 3))
	require.Equal(t, 67, percentOf(2, 3))
	require.Equal(t, 50, percentOf(1, 2))
	require.Equal(t, 0, percentOf(5, 0))
}
