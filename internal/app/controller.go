// Package app wires the session, the fetcher and the derivation engine together.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/analytics"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/fetcher"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/guard"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/session"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// AnalysisAPI serves the secondary MMM analysis endpoints
type AnalysisAPI interface {
	Contributions(ctx context.Context, token string) (*contracts.Contributions, error)
	ResponseCurves(ctx context.Context, token string) (*contracts.ResponseCurves, error)
	TimeSeries(ctx context.Context, token string) (*contracts.TimeSeries, error)
	Account(ctx context.Context, token string) (*contracts.Account, error)
}

// FetchView is the presentation form of the fetcher state
type FetchView struct {
	Status    fetcher.Status     `json:"status"`
	Problem   *contracts.Problem `json:"problem,omitempty"`
	FetchedAt *time.Time         `json:"fetched_at,omitempty"`
}

// DashboardView is everything the dashboard page renders
type DashboardView struct {
	Session  contracts.Session      `json:"session"`
	Decision guard.Decision         `json:"decision"`
	Fetch    FetchView              `json:"fetch"`
	Derived  *contracts.DerivedView `json:"derived,omitempty"`
	Problem  *contracts.Problem     `json:"problem,omitempty"`
}

// Controller is the single owner of the session handle
// ⭐ SSOT: 세션 → 가드 → 페처 → 파생 흐름은 Controller가 조율
type Controller struct {
	session  *session.Manager
	fetcher  *fetcher.Fetcher
	analysis AnalysisAPI
	memo     analytics.Memo
	logger   *logger.Logger

	wg sync.WaitGroup
}

// NewController creates a controller
func NewController(sess *session.Manager, f *fetcher.Fetcher, analysis AnalysisAPI, log *logger.Logger) *Controller {
	return &Controller{
		session:  sess,
		fetcher:  f,
		analysis: analysis,
		logger:   log.Component("app"),
	}
}

// Session returns the session manager
func (c *Controller) Session() *session.Manager {
	return c.session
}

// Fetcher returns the data fetcher
func (c *Controller) Fetcher() *fetcher.Fetcher {
	return c.fetcher
}

// Run restores the session and reacts to every session change until ctx ends.
// Authenticated activates the fetcher and starts a fetch; Anonymous resets it.
func (c *Controller) Run(ctx context.Context) error {
	sub := c.session.Subscribe()
	defer sub.Unsubscribe()
	defer c.wg.Wait()

	if _, err := c.session.Restore(ctx); err != nil && !errors.Is(err, contracts.ErrNotInitializing) {
		c.logger.WithError(err).Warn("Session restore failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-sub.C:
			if !ok {
				return nil
			}
			c.apply(ctx, s)
		}
	}
}

func (c *Controller) apply(ctx context.Context, s contracts.Session) {
	switch s.Status {
	case contracts.StatusAuthenticated:
		if !c.fetcher.Activate(s.Token) {
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			_ = c.load(ctx, s.Token)
		}()
	case contracts.StatusAnonymous:
		c.fetcher.Reset()
	}
}

// load fetches under token and forces logout when the API rejects it
func (c *Controller) load(ctx context.Context, token string) error {
	_, err := c.fetcher.Fetch(ctx, token)
	c.handleUnauthorized(ctx, token, err)
	return err
}

func (c *Controller) handleUnauthorized(ctx context.Context, token string, err error) {
	if !errors.Is(err, contracts.ErrUnauthorized) {
		return
	}
	if c.session.Invalidate(ctx, token) {
		c.logger.Warn("API rejected the session token; logged out")
	}
}

// Refresh is the user-initiated reload. It fetches once and reports the outcome.
func (c *Controller) Refresh(ctx context.Context) error {
	token, err := c.fetcher.ActivateCurrent(c.session)
	if err != nil {
		return err
	}
	return c.load(ctx, token)
}

// Dashboard assembles the current dashboard view.
// The derived view is reused as long as the dataset is unchanged.
func (c *Controller) Dashboard() DashboardView {
	s := c.session.Snapshot()
	st := c.fetcher.State()

	view := DashboardView{
		Session:  s,
		Decision: guard.Decide(guard.Protected, s.Status),
		Fetch:    FetchView{Status: st.Status},
	}
	if st.Err != nil {
		p := contracts.UserMessage(st.Err)
		view.Fetch.Problem = &p
	}
	if !st.FetchedAt.IsZero() {
		at := st.FetchedAt
		view.Fetch.FetchedAt = &at
	}

	// A dataset is shown only to the session it was fetched for
	if st.Dataset == nil || !s.IsAuthenticated() || c.fetcher.ActiveToken() != s.Token {
		return view
	}

	derived, err := c.memo.Derive(st.Dataset)
	if err != nil {
		p := contracts.UserMessage(err)
		view.Problem = &p
		return view
	}
	view.Derived = derived
	return view
}

// Contributions proxies the contributions analysis for the current session
func (c *Controller) Contributions(ctx context.Context) (*contracts.Contributions, error) {
	return callAnalysis(ctx, c, c.analysis.Contributions)
}

// ResponseCurves proxies the response curves analysis for the current session
func (c *Controller) ResponseCurves(ctx context.Context) (*contracts.ResponseCurves, error) {
	return callAnalysis(ctx, c, c.analysis.ResponseCurves)
}

// TimeSeries proxies the time series analysis for the current session
func (c *Controller) TimeSeries(ctx context.Context) (*contracts.TimeSeries, error) {
	return callAnalysis(ctx, c, c.analysis.TimeSeries)
}

// Account proxies the account summary for the current session
func (c *Controller) Account(ctx context.Context) (*contracts.Account, error) {
	return callAnalysis(ctx, c, c.analysis.Account)
}

func callAnalysis[T any](ctx context.Context, c *Controller, call func(context.Context, string) (*T, error)) (*T, error) {
	s := c.session.Snapshot()
	if !s.IsAuthenticated() {
		return nil, contracts.ErrMissingToken
	}

	out, err := call(ctx, s.Token)
	if err != nil {
		c.handleUnauthorized(ctx, s.Token, err)
		return nil, err
	}

	// The session may have ended while the request was in flight
	if c.session.Snapshot().Token != s.Token {
		return nil, contracts.ErrStaleResult
	}
	return out, nil
}
