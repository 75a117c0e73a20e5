package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/focus/internal/events"
	"example.com/focus/internal/ingest"
)

// UsageStore persists normalized usage batches.
type UsageStore interface {
	RecordUsage(ctx context.Context, usage ingest.Usage) error
}

// UsageHandler decodes usage.recorded events from trackers and writes the
// normalized records into the usage store.
type UsageHandler struct {
	store UsageStore
}

// NewUsageHandler constructs a handler backed by the provided store.
func NewUsageHandler(store UsageStore) *UsageHandler {
	return &UsageHandler{store: store}
}

// Handle persists the usage batch carried by the event. Unknown event types
// are skipped without error so topics can carry mixed traffic.
func (h *UsageHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "usage.recorded" {
		return nil
	}

	usage, err := decodeUsage(msg.Payload)
	if err != nil {
		return fmt.Errorf("decode usage.recorded: %w", err)
	}
	if usage.Empty() {
		return nil
	}
	return h.store.RecordUsage(ctx, usage)
}

// decodeUsage accepts both the structured UsageRecorded payload and the raw
// tracker document format; older trackers still send the latter.
func decodeUsage(payload json.RawMessage) (ingest.Usage, error) {
	var event events.UsageRecorded
	if err := json.Unmarshal(payload, &event); err == nil && event.UserID != "" {
		usage := ingest.Usage{}
		for app, duration := range event.AppUsage {
			if app == "" || duration <= 0 {
				continue
			}
			usage.Apps = append(usage.Apps, ingest.Record{
				UserID:   event.UserID,
				Email:    event.Email,
				Date:     event.Date,
				AppName:  app,
				Duration: duration,
			})
		}
		for _, tab := range event.TabUsage {
			if tab.Duration <= 0 || (tab.Domain == "" && tab.Title == "") {
				continue
			}
			usage.Tabs = append(usage.Tabs, ingest.TabRecord{
				UserID:   event.UserID,
				Email:    event.Email,
				Date:     event.Date,
				Domain:   tab.Domain,
				Title:    tab.Title,
				Duration: tab.Duration,
			})
		}
		return usage, nil
	}

	return ingest.ParseUsagePayload(payload, ingest.Filter{})
}
