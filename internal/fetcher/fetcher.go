package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/notify"
)

// Status is the fetcher's own lifecycle, orthogonal to the session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// State is a snapshot of the fetcher.
// On error Dataset still holds the last successful result, if any.
type State struct {
	Status    Status
	Dataset   *contracts.Dataset
	Err       error
	FetchedAt time.Time
}

// DataAPI retrieves the MMM dataset
type DataAPI interface {
	FetchMMMData(ctx context.Context, token string) (*contracts.Dataset, error)
}

// Fetcher retrieves the dataset for the active token.
// Each fetch is tagged with a generation; results are applied only if both the
// generation and the token are still current.
// ⭐ SSOT: MMM 데이터 적재 상태는 Fetcher에서만 변경
type Fetcher struct {
	mu         sync.Mutex
	state      State
	token      string
	generation uint64

	api      DataAPI
	notifier *notify.Notifier[State]
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates an idle fetcher
func New(api DataAPI, log *logger.Logger) *Fetcher {
	return &Fetcher{
		state:    State{Status: StatusIdle},
		api:      api,
		notifier: notify.New[State](),
		logger:   log.Component("fetcher"),
		now:      time.Now,
	}
}

// WithMetrics attaches prometheus collectors
func (f *Fetcher) WithMetrics(m *metrics.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// State returns the current snapshot
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ActiveToken returns the token fetches are currently accepted for
func (f *Fetcher) ActiveToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// Subscribe returns a change notification channel seeded with the current state
func (f *Fetcher) Subscribe() *notify.Subscription[State] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifier.SubscribeFrom(f.state)
}

// Close ends all subscriptions
func (f *Fetcher) Close() {
	f.notifier.Close()
}

// Activate accepts fetches for token. A new token invalidates in-flight fetches
// and drops the previous user's dataset. It reports whether the token changed.
func (f *Fetcher) Activate(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token == f.token {
		return false
	}
	f.token = token
	f.generation++
	f.setLocked(State{Status: StatusIdle})
	return true
}

// SessionSource reports the current session
type SessionSource interface {
	Snapshot() contracts.Session
}

// ActivateCurrent activates the token of the current session and returns it.
// The session is read under the fetcher lock, so a logout followed by Reset can
// never be overtaken by a re-activation of the old token.
func (f *Fetcher) ActivateCurrent(src SessionSource) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := src.Snapshot()
	if !s.IsAuthenticated() {
		return "", contracts.ErrMissingToken
	}
	if s.Token != f.token {
		f.token = s.Token
		f.generation++
		f.setLocked(State{Status: StatusIdle})
	}
	return s.Token, nil
}

// Reset invalidates in-flight fetches and returns to Idle
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.token = ""
	f.generation++
	f.setLocked(State{Status: StatusIdle})
}

// Fetch issues one request under token. It never retries.
// A result that arrives after Reset, Activate or a newer Fetch is discarded
// with contracts.ErrStaleResult.
func (f *Fetcher) Fetch(ctx context.Context, token string) (*contracts.Dataset, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	f.mu.Lock()
	if token != f.token {
		f.mu.Unlock()
		return nil, contracts.ErrStaleResult
	}
	f.generation++
	gen := f.generation
	f.setLocked(State{Status: StatusLoading, Dataset: f.state.Dataset, FetchedAt: f.state.FetchedAt})
	f.mu.Unlock()

	start := f.now()
	dataset, err := f.api.FetchMMMData(ctx, token)
	elapsed := f.now().Sub(start)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation || token != f.token {
		f.metrics.IncStaleDiscard()
		f.logger.WithFields(map[string]interface{}{
			"generation": gen,
			"current":    f.generation,
		}).Debug("Discarding stale fetch result")
		return nil, contracts.ErrStaleResult
	}

	if err != nil {
		f.metrics.ObserveFetch(string(StatusErrored), elapsed)
		f.logger.WithError(err).WithField("duration", elapsed).Warn("MMM data fetch failed")
		f.setLocked(State{Status: StatusErrored, Dataset: f.state.Dataset, Err: err, FetchedAt: f.state.FetchedAt})
		return nil, err
	}

	f.metrics.ObserveFetch(string(StatusLoaded), elapsed)
	f.logger.WithFields(map[string]interface{}{
		"channels": len(dataset.Channels),
		"duration": elapsed,
	}).Info("MMM data loaded")
	f.setLocked(State{Status: StatusLoaded, Dataset: dataset, FetchedAt: f.now()})
	return dataset, nil
}

func (f *Fetcher) setLocked(s State) {
	f.state = s
	f.notifier.Publish(s)
}
