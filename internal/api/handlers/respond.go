package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

const maxRequestBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondProblem renders err as its user-visible message and recovery action
func respondProblem(w http.ResponseWriter, err error) {
	p := contracts.UserMessage(err)
	respondJSON(w, statusFor(err), map[string]interface{}{
		"error":  p.Message,
		"action": p.Action,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var authErr *contracts.AuthenticationError
	var regErr *contracts.RegistrationError
	var svcErr *contracts.ServiceError
	var malformed *contracts.MalformedResponse

	switch {
	case errors.As(err, &authErr):
		switch {
		case authErr.Err == nil:
			return http.StatusBadRequest
		case errors.Is(authErr.Err, contracts.ErrUnauthorized):
			return http.StatusUnauthorized
		default:
			return http.StatusBadGateway
		}
	case errors.As(err, &regErr):
		if regErr.Err == nil {
			return http.StatusBadRequest
		}
		var upstream *contracts.ServiceError
		if errors.As(regErr.Err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 500 {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.Is(err, contracts.ErrUnauthorized), errors.Is(err, contracts.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, contracts.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, contracts.ErrNoChannels):
		return http.StatusUnprocessableEntity
	case errors.As(err, &malformed), errors.As(err, &svcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
