package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/focus/internal/domain"
	"example.com/focus/internal/events"
	"example.com/focus/internal/ingest"
	"example.com/focus/internal/observability"
)

// Repository provides Postgres-backed persistence for usage records,
// productivity summaries, and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordUsage persists a usage batch inside a single transaction. App
// durations accumulate per (user, date, app); tab observations are
// append-only so most-visited-tab statistics keep their full resolution.
func (r *Repository) RecordUsage(ctx context.Context, usage ingest.Usage) error {
	if usage.Empty() {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const upsertApp = `INSERT INTO app_usage (user_id, email, date, app_name, duration)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id, date, app_name)
        DO UPDATE SET duration = app_usage.duration + EXCLUDED.duration, email = EXCLUDED.email`

	for _, rec := range usage.Apps {
		if _, err := tx.Exec(ctx, upsertApp, rec.UserID, nullIfEmpty(rec.Email), rec.Date, rec.AppName, rec.Duration); err != nil {
			return err
		}
	}

	const insertTab = `INSERT INTO tab_usage (user_id, email, date, domain, title, duration)
        VALUES ($1,$2,$3,$4,$5,$6)`

	for _, tab := range usage.Tabs {
		if _, err := tx.Exec(ctx, insertTab, tab.UserID, nullIfEmpty(tab.Email), tab.Date, nullIfEmpty(tab.Domain), nullIfEmpty(tab.Title), tab.Duration); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordUsagePersisted(len(usage.Apps), len(usage.Tabs))
	return nil
}

// UsageByUser loads the normalized usage rows matching the filter.
func (r *Repository) UsageByUser(ctx context.Context, filter ingest.Filter) (ingest.Usage, error) {
	const appQuery = `SELECT user_id, COALESCE(email,''), date, app_name, duration
        FROM app_usage WHERE user_id=$1 AND date=$2 ORDER BY app_name`

	rows, err := r.pool.Query(ctx, appQuery, filter.UserID, filter.Date)
	if err != nil {
		return ingest.Usage{}, err
	}
	defer rows.Close()

	var usage ingest.Usage
	for rows.Next() {
		var rec ingest.Record
		if err := rows.Scan(&rec.UserID, &rec.Email, &rec.Date, &rec.AppName, &rec.Duration); err != nil {
			return ingest.Usage{}, err
		}
		usage.Apps = append(usage.Apps, rec)
	}
	if err := rows.Err(); err != nil {
		return ingest.Usage{}, err
	}
	rows.Close()

	const tabQuery = `SELECT user_id, COALESCE(email,''), date, COALESCE(domain,''), COALESCE(title,''), duration
        FROM tab_usage WHERE user_id=$1 AND date=$2 ORDER BY id`

	tabRows, err := r.pool.Query(ctx, tabQuery, filter.UserID, filter.Date)
	if err != nil {
		return ingest.Usage{}, err
	}
	defer tabRows.Close()

	for tabRows.Next() {
		var tab ingest.TabRecord
		if err := tabRows.Scan(&tab.UserID, &tab.Email, &tab.Date, &tab.Domain, &tab.Title, &tab.Duration); err != nil {
			return ingest.Usage{}, err
		}
		usage.Tabs = append(usage.Tabs, tab)
	}
	if err := tabRows.Err(); err != nil {
		return ingest.Usage{}, err
	}
	return usage, nil
}

// ActiveUsers lists the distinct users with any usage recorded for the date.
func (r *Repository) ActiveUsers(ctx context.Context, date string) ([]domain.UserRef, error) {
	const query = `SELECT user_id, MAX(COALESCE(email,'')) FROM (
            SELECT user_id, email FROM app_usage WHERE date=$1
            UNION ALL
            SELECT user_id, email FROM tab_usage WHERE date=$1
        ) u GROUP BY user_id ORDER BY user_id`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserRef
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.UserID, &ref.Email); err != nil {
			return nil, err
		}
		users = append(users, ref)
	}
	return users, rows.Err()
}

// GetSummary loads the stored summary for (user, date), nil when absent.
func (r *Repository) GetSummary(ctx context.Context, userID, date string) (*domain.ProductivitySummary, error) {
	const query = `SELECT payload FROM productivity_summaries WHERE user_id=$1 AND date=$2`

	var payload []byte
	if err := r.pool.QueryRow(ctx, query, userID, date).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var summary domain.ProductivitySummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("decode stored summary: %w", err)
	}
	return &summary, nil
}

// UpsertSummary merges the fresh snapshot into the stored row for the same
// (user, date) key and records a summary.updated outbox event, all inside one
// transaction. The row lock serializes concurrent merges for the key so the
// positive-delta logic always sees the latest stored state. The returned flag
// reports whether an existing row was merged.
func (r *Repository) UpsertSummary(ctx context.Context, fresh domain.ProductivitySummary) (domain.ProductivitySummary, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.ProductivitySummary{}, false, err
	}
	defer tx.Rollback(ctx)

	const selectForUpdate = `SELECT payload FROM productivity_summaries
        WHERE user_id=$1 AND date=$2 FOR UPDATE`

	var existing *domain.ProductivitySummary
	var payload []byte
	err = tx.QueryRow(ctx, selectForUpdate, fresh.UserID, fresh.Date).Scan(&payload)
	switch {
	case err == nil:
		var stored domain.ProductivitySummary
		if err := json.Unmarshal(payload, &stored); err != nil {
			return domain.ProductivitySummary{}, false, fmt.Errorf("decode stored summary: %w", err)
		}
		existing = &stored
	case errors.Is(err, pgx.ErrNoRows):
		// first summary for this key
	default:
		return domain.ProductivitySummary{}, false, err
	}

	merged := domain.MergeSummaries(existing, fresh)
	now := time.Now().UTC()

	body, err := json.Marshal(merged)
	if err != nil {
		return domain.ProductivitySummary{}, false, err
	}

	const upsert = `INSERT INTO productivity_summaries (user_id, date, focus_score, payload, updated_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id, date)
        DO UPDATE SET focus_score = EXCLUDED.focus_score, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := tx.Exec(ctx, upsert, merged.UserID, merged.Date, merged.FocusScore, body, now); err != nil {
		return domain.ProductivitySummary{}, false, err
	}

	if err := r.insertOutbox(ctx, tx, "summary.updated", merged.UserID, events.SummaryUpdated{
		UserID:              merged.UserID,
		Date:                merged.Date,
		FocusScore:          merged.FocusScore,
		TotalProductiveTime: merged.TotalProductiveTime,
		TotalNonProductive:  merged.TotalNonProductive,
		OverallTotalUsage:   merged.OverallTotalUsage,
		MaxProductiveApp:    merged.MaxProductiveApp,
		MostUsedApp:         merged.MostUsedApp,
		UpdatedAt:           now,
	}); err != nil {
		return domain.ProductivitySummary{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ProductivitySummary{}, false, err
	}
	observability.RecordSummaryPersisted(merged.FocusScore, now)
	return merged, existing != nil, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	// every merge emits a distinct event, so the dedupe key carries a fresh id
	dedupeKey := fmt.Sprintf("%s:%s:%s", aggregateID, eventType, uuid.NewString())

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"summary",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(aggregateID),
		body,
		dedupeKey,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(aggregateID string) string
}

var eventCatalog = map[string]EventMetadata{
	"summary.updated": {
		Topic:         "focus_summary_events",
		SchemaSubject: "focus_summary_events-value",
		PartitionKeyFn: func(aggregateID string) string {
			return aggregateID
		},
	},
}
