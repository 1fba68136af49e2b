package contracts

// AccountStats is the stats block of GET /api/dashboard
type AccountStats struct {
	LastLogin      string `json:"last_login"` // server-local timestamp, kept verbatim
	AccountAgeDays int    `json:"account_age_days" validate:"gte=0"`
}

// Account is the body of GET /api/dashboard: a greeting plus account stats
type Account struct {
	Message string       `json:"message"`
	User    User         `json:"user"`
	Stats   AccountStats `json:"stats"`
}
