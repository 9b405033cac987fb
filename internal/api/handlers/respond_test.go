package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tvkcanada/tvk-be/internal/jobs"
	"github.com/tvkcanada/tvk-be/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("user 1: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrAlreadyMember, http.StatusConflict},
		{fmt.Errorf("%w: pending -> expired", services.ErrInvalidTransition), http.StatusConflict},
		{services.ErrUnknownPlan, http.StatusBadRequest},
		{&services.ValidationError{Field: "email", Message: "is invalid"}, http.StatusBadRequest},
		{services.ErrInvalidSignature, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrPaymentsDisabled, http.StatusServiceUnavailable},
		{services.ErrPDFUnavailable, http.StatusServiceUnavailable},
		{jobs.ErrUnknownJob, http.StatusNotFound},
		{jobs.ErrJobRunning, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	respondErr(rec, req, errors.New("sql: connection refused"), "Failed to load things")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to load things"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	respondErr(rec, req, services.ErrEmailTaken, "Failed to register user")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), services.ErrEmailTaken.Error())
}

func TestDecodeValidates(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
		msg  string
	}{
		{"valid", `{"name":"A","email":"a@example.com","password":"longenough"}`, true, ""},
		{"malformed", `{"name":`, false, "Invalid request body"},
		{"bad email", `{"name":"A","email":"nope","password":"longenough"}`, false, "email (email)"},
		{"missing fields", `{}`, false, "name (required)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p RegisterPayload
			assert.Equal(t, tt.ok, decode(rec, req, &p))
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.msg)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=-3&bad=x", nil)
	assert.Equal(t, 25, queryInt(req, "limit", 50))
	assert.Equal(t, 0, queryInt(req, "offset", 0))
	assert.Equal(t, 7, queryInt(req, "bad", 7))
	assert.Equal(t, 9, queryInt(req, "missing", 9))
}
