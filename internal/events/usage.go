// Package events defines shared cross-service event payloads.
package events

import "time"

// UsageRecorded represents a tracker batch accepted for a user. App usage is
// carried as appName -> seconds; tab usage as individual observations so the
// consumer can rebuild the most-visited-tab statistic.
type UsageRecorded struct {
	UserID     string         `json:"user_id"`
	Email      string         `json:"email,omitempty"`
	Date       string         `json:"date"`
	AppUsage   map[string]int `json:"app_usage,omitempty"`
	TabUsage   []TabUsage     `json:"tab_usage,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// TabUsage is one browser-tab observation inside a UsageRecorded event.
type TabUsage struct {
	Domain   string `json:"domain,omitempty"`
	Title    string `json:"title,omitempty"`
	Duration int    `json:"duration"`
}

// SummaryUpdated is emitted after a productivity summary is merged and
// persisted, so downstream dashboards can refresh without polling.
type SummaryUpdated struct {
	UserID              string    `json:"user_id"`
	Date                string    `json:"date"`
	FocusScore          int       `json:"focus_score"`
	TotalProductiveTime int       `json:"total_productive_time"`
	TotalNonProductive  int       `json:"total_non_productive_time"`
	OverallTotalUsage   int       `json:"overall_total_usage"`
	MaxProductiveApp    string    `json:"max_productive_app,omitempty"`
	MostUsedApp         string    `json:"most_used_app,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}
