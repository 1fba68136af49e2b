// Package guard decides whether a view may render for the current session.
package guard

import (
	"context"
	"strings"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// Kind classifies a view
type Kind string

const (
	// Protected views require an authenticated session
	Protected Kind = "protected"
	// AnonymousOnly views are landing pages that bounce authenticated users
	AnonymousOnly Kind = "anonymous_only"
)

// Decision is the guard outcome for one view
type Decision string

const (
	Allow               Decision = "allow"
	RedirectToLogin     Decision = "redirect_to_login"
	RedirectToDashboard Decision = "redirect_to_dashboard"
	Wait                Decision = "wait"
)

// Landing paths
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Decide is evaluated on every session change.
// Initializing always waits so the wrong view never flashes before restore finishes.
func Decide(kind Kind, status contracts.SessionStatus) Decision {
	if status == contracts.StatusInitializing {
		return Wait
	}

	authenticated := status == contracts.StatusAuthenticated

	switch kind {
	case Protected:
		if authenticated {
			return Allow
		}
		return RedirectToLogin
	case AnonymousOnly:
		if authenticated {
			return RedirectToDashboard
		}
		return Allow
	default:
		return Allow
	}
}

// Target returns where a redirect decision points, or "" for Allow and Wait
func (d Decision) Target() string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToDashboard:
		return DashboardPath
	default:
		return ""
	}
}

// View is a guarded route
type View struct {
	Path   string
	Prefix bool
	Kind   Kind
}

// Views lists every guarded route of the dashboard
var Views = []View{
	{Path: "/", Kind: AnonymousOnly},
	{Path: LoginPath, Kind: AnonymousOnly},
	{Path: "/register", Kind: AnonymousOnly},
	{Path: DashboardPath, Kind: Protected},
	{Path: "/api/mmm/", Prefix: true, Kind: Protected},
}

// Classify returns the kind of the view serving path
func Classify(path string) (Kind, bool) {
	for _, v := range Views {
		if v.Prefix && strings.HasPrefix(path, v.Path) {
			return v.Kind, true
		}
		if path == v.Path {
			return v.Kind, true
		}
	}
	return "", false
}

// Watch re-evaluates kind on every session update and emits each distinct decision.
// The channel closes when ctx ends or updates closes.
func Watch(ctx context.Context, updates <-chan contracts.Session, kind Kind) <-chan Decision {
	out := make(chan Decision, 1)

	go func() {
		defer close(out)

		var last Decision
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-updates:
				if !ok {
					return
				}
				d := Decide(kind, s.Status)
				if d == last {
					continue
				}
				last = d

				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
