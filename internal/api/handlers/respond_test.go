package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

func TestStatusFor(t *testing.T) {
	unauthorized := &contracts.UnauthorizedError{StatusCode: 401}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"login validation", &contracts.AuthenticationError{Reason: "email is required"}, http.StatusBadRequest},
		{"login rejected", &contracts.AuthenticationError{Reason: "bad", Err: unauthorized}, http.StatusUnauthorized},
		{"login upstream down", &contracts.AuthenticationError{Reason: "down", Err: &contracts.ServiceError{}}, http.StatusBadGateway},
		{"register validation", &contracts.RegistrationError{Reason: "password too short"}, http.StatusBadRequest},
		{"register conflict", &contracts.RegistrationError{Err: &contracts.ServiceError{StatusCode: 400}}, http.StatusBadRequest},
		{"register upstream 500", &contracts.RegistrationError{Err: &contracts.ServiceError{StatusCode: 500}}, http.StatusBadGateway},
		{"unauthorized", unauthorized, http.StatusUnauthorized},
		{"missing token", contracts.ErrMissingToken, http.StatusUnauthorized},
		{"stale", fmt.Errorf("fetch: %w", contracts.ErrStaleResult), http.StatusConflict},
		{"no channels", contracts.ErrNoChannels, http.StatusUnprocessableEntity},
		{"malformed", &contracts.MalformedResponse{Detail: "bad"}, http.StatusBadGateway},
		{"service", &contracts.ServiceError{StatusCode: 503}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	respondProblem(rec, contracts.ErrNoChannels)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"action"`)
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"email":"` + strings.Repeat("a", maxRequestBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dest contracts.LoginRequest
	assert.Error(t, decodeJSON(rec, req, &dest))
}
