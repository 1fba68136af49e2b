package contracts

// SessionStatus is the authentication lifecycle state
type SessionStatus string

const (
	// StatusInitializing is the transient startup state before persisted credentials are checked
	StatusInitializing SessionStatus = "initializing"
	// StatusAnonymous means no user and no token
	StatusAnonymous SessionStatus = "anonymous"
	// StatusAuthenticated means both user and token are present
	StatusAuthenticated SessionStatus = "authenticated"
)

// User is the identity record returned by the auth API
type User struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at,omitempty"` // server-local timestamp, kept verbatim
}

// Session is the client-held record of the current identity and credential
// ⭐ SSOT: 세션 상태는 session.Manager만 변경
type Session struct {
	User   *User         `json:"user,omitempty"`
	Token  string        `json:"-"`
	Status SessionStatus `json:"status"`
}

// NewInitializingSession returns the startup session
func NewInitializingSession() Session {
	return Session{Status: StatusInitializing}
}

// NewAnonymousSession returns a cleared session
func NewAnonymousSession() Session {
	return Session{Status: StatusAnonymous}
}

// NewAuthenticatedSession returns a session holding user and token
func NewAuthenticatedSession(user User, token string) Session {
	return Session{User: &user, Token: token, Status: StatusAuthenticated}
}

// IsAuthenticated reports whether the session may access protected views
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// Username returns the username or "" when anonymous
func (s Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// Consistent checks the status/field invariant:
// Authenticated iff user and token are present, Anonymous iff both are absent.
func (s Session) Consistent() bool {
	hasUser := s.User != nil
	hasToken := s.Token != ""

	switch s.Status {
	case StatusAuthenticated:
		return hasUser && hasToken
	case StatusAnonymous:
		return !hasUser && !hasToken
	case StatusInitializing:
		return !hasUser
	default:
		return false
	}
}
