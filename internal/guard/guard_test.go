package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		kind   Kind
		status contracts.SessionStatus
		want   Decision
	}{
		{Protected, contracts.StatusInitializing, Wait},
		{Protected, contracts.StatusAuthenticated, Allow},
		{Protected, contracts.StatusAnonymous, RedirectToLogin},
		{AnonymousOnly, contracts.StatusInitializing, Wait},
		{AnonymousOnly, contracts.StatusAuthenticated, RedirectToDashboard},
		{AnonymousOnly, contracts.StatusAnonymous, Allow},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.kind, tt.status))
		})
	}
}

func TestDecisionTarget(t *testing.T) {
	assert.Equal(t, "/login", RedirectToLogin.Target())
	assert.Equal(t, "/dashboard", RedirectToDashboard.Target())
	assert.Empty(t, Allow.Target())
	assert.Empty(t, Wait.Target())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path   string
		want   Kind
		wantOK bool
	}{
		{"/", AnonymousOnly, true},
		{"/login", AnonymousOnly, true},
		{"/register", AnonymousOnly, true},
		{"/dashboard", Protected, true},
		{"/api/mmm/contributions", Protected, true},
		{"/health", "", false},
		{"/api/auth/login", "", false},
	}

	for _, tt := range tests {
		kind, ok := Classify(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.want, kind, tt.path)
	}
}

func TestWatchEmitsDistinctDecisions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan contracts.Session)
	decisions := Watch(ctx, updates, Protected)

	updates <- contracts.NewInitializingSession()
	assert.Equal(t, Wait, <-decisions)

	updates <- contracts.NewAuthenticatedSession(contracts.User{Username: "alice"}, "tok")
	assert.Equal(t, Allow, <-decisions)

	// Same decision again is suppressed
	updates <- contracts.NewAuthenticatedSession(contracts.User{Username: "alice"}, "tok-2")
	updates <- contracts.NewAnonymousSession()
	assert.Equal(t, RedirectToLogin, <-decisions)

	close(updates)
	_, ok := <-decisions
	assert.False(t, ok)
}
