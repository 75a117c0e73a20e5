// Package domain defines the business logic for the focus analysis service.
package domain

// Label is the classification assigned to an observed activity.
type Label string

const (
	LabelFocused    Label = "Focused"
	LabelDistracted Label = "Distracted"
)

// Activity is one classified usage event (application or browser tab).
// Created once during classification, immutable afterwards; only its
// contribution to aggregates is persisted.
type Activity struct {
	AppName    string  `json:"app_name"`
	TabTitle   string  `json:"tab_title"`
	Duration   int     `json:"duration"`
	Label      Label   `json:"predicted_label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"classification_reason"`
}

// CategorySummary aggregates activities sharing a productivity category.
type CategorySummary struct {
	Category      string   `json:"category"`
	TotalDuration int      `json:"total_duration"`
	ActivityCount int      `json:"activity_count"`
	Apps          []string `json:"apps"`
	AvgConfidence float64  `json:"avg_confidence"`
}

// ProductivitySummary is the unit of persistence, keyed by (user_id, date).
type ProductivitySummary struct {
	UserID               string         `json:"user_id"`
	Email                string         `json:"email"`
	Date                 string         `json:"date"`
	ProductiveContent    map[string]int `json:"productive_content"`
	NonProductiveContent map[string]int `json:"non_productive_content"`
	MaxProductiveApp     string         `json:"max_productive_app"`
	TotalProductiveTime  int            `json:"total_productive_time"`
	TotalNonProductive   int            `json:"total_non_productive_time"`
	OverallTotalUsage    int            `json:"overall_total_usage"`
	FocusScore           int            `json:"focus_score"`
	MostVisitedTab       string         `json:"most_visited_tab"`
	MostUsedApp          string         `json:"most_used_app"`
	DistractionApps      map[string]int `json:"distraction_apps"`
}

// UserRef identifies one tracked user.
type UserRef struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// FocusSummary carries per-request summary statistics over classified activities.
type FocusSummary struct {
	ProductivityScore         int    `json:"productivity_score"`
	FocusedDurationMinutes    int    `json:"focused_duration_minutes"`
	DistractedDurationMinutes int    `json:"distracted_duration_minutes"`
	TotalDurationMinutes      int    `json:"total_duration_minutes"`
	MostFocusedApp            string `json:"most_focused_app"`
	MostDistractingApp        string `json:"most_distracting_app"`
	FocusPercentage           int    `json:"focus_percentage"`
}
