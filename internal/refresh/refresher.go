package refresh

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"example.com/focus/internal/domain"
	"example.com/focus/internal/ingest"
)

// UserLister enumerates the users with usage recorded for a date.
type UserLister interface {
	ActiveUsers(ctx context.Context, date string) ([]domain.UserRef, error)
}

// Analyzer re-runs the classification pipeline and merges the result into the
// summary store.
type Analyzer interface {
	AnalyzeAndStore(ctx context.Context, userID, email, date string) (domain.Analysis, domain.ProductivitySummary, bool, error)
}

// Status is the snapshot returned by the refresh status endpoint.
type Status struct {
	Enabled        bool          `json:"enabled"`
	Interval       time.Duration `json:"-"`
	IntervalString string        `json:"interval"`
	LastRunAt      time.Time     `json:"last_run_at,omitzero"`
	LastRefreshed  int           `json:"last_refreshed_users"`
	LastError      string        `json:"last_error,omitempty"`
	CachedEntries  int           `json:"cached_entries"`
}

// Refresher periodically re-fetches the current day's usage for every tracked
// user, warms the snapshot cache, and folds fresh results into the stored
// summaries. Failures are logged and the loop continues; a single bad user
// never stalls the rest.
type Refresher struct {
	users        UserLister
	source       Source
	cache        *SnapshotCache
	analyzer     Analyzer
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *log.Logger

	mu            sync.Mutex
	enabled       bool
	lastRunAt     time.Time
	lastRefreshed int
	lastError     string

	shutdownComplete chan struct{}
}

// NewRefresher constructs a Refresher. The loop starts enabled.
func NewRefresher(users UserLister, source Source, cache *SnapshotCache, analyzer Analyzer, interval, fetchTimeout time.Duration) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Refresher{
		users:            users,
		source:           source,
		cache:            cache,
		analyzer:         analyzer,
		interval:         interval,
		fetchTimeout:     fetchTimeout,
		logger:           log.New(log.Writer(), "[refresh] ", log.LstdFlags),
		enabled:          true,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		close(r.shutdownComplete)
	}()

	for {
		if r.Enabled() {
			r.runOnce(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the loop has stopped.
func (r *Refresher) Wait() {
	<-r.shutdownComplete
}

// Enabled reports whether the loop is currently active.
func (r *Refresher) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// SetEnabled toggles the loop without stopping the goroutine.
func (r *Refresher) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
}

// Status returns a snapshot of the loop state.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Enabled:        r.enabled,
		Interval:       r.interval,
		IntervalString: r.interval.String(),
		LastRunAt:      r.lastRunAt,
		LastRefreshed:  r.lastRefreshed,
		LastError:      r.lastError,
		CachedEntries:  r.cache.Len(),
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	date := time.Now().UTC().Format("2006-01-02")

	listCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	users, err := r.users.ActiveUsers(listCtx, date)
	cancel()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Printf("list users error: %v", err)
		}
		r.recordRun(0, err)
		return
	}

	refreshed := 0
	var lastErr error
	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		if err := r.refreshUser(ctx, user, date); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Printf("refresh user=%s error: %v", user.UserID, err)
			lastErr = err
			continue
		}
		refreshed++
	}
	r.recordRun(refreshed, lastErr)
	recordRefreshRun(refreshed)
}

func (r *Refresher) refreshUser(ctx context.Context, user domain.UserRef, date string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	usage, err := r.source.UsageByUser(fetchCtx, ingest.Filter{UserID: user.UserID, Email: user.Email, Date: date})
	if err != nil {
		return err
	}
	if usage.Empty() {
		return nil
	}
	r.cache.Put(user.UserID, date, usage)

	if _, _, _, err := r.analyzer.AnalyzeAndStore(fetchCtx, user.UserID, user.Email, date); err != nil {
		// usage with zero usable records is not a refresh failure
		if errors.Is(err, domain.ErrNoUsageData) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Refresher) recordRun(refreshed int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRunAt = time.Now().UTC()
	r.lastRefreshed = refreshed
	r.lastError = ""
	if err != nil {
		r.lastError = err.Error()
	}
}
