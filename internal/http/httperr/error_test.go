package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleetdesk-api/internal/observability/logger"
)

func TestWriteError(t *testing.T) {
	log, _ := logger.New("test", "info")
	ctx := logger.SetLoggerInContext(context.Background(), log)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
	}{
		{
			name:           "401 Unauthorized",
			status:         http.StatusUnauthorized,
			code:           ErrCodeInvalidToken,
			message:        "invalid token provided",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "403 Forbidden",
			status:         http.StatusForbidden,
			code:           ErrCodeOrganizationMismatch,
			message:        "organization mismatch detected",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "400 Bad Request",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidOrganizationID,
			message:        "invalid organization ID format",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, ctx, tt.status, tt.code, tt.message)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			var response ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.OK {
				t.Error("expected ok=false")
			}

			if response.Error == nil {
				t.Fatal("expected error detail, got nil")
			}

			if response.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, response.Error.Code)
			}

			if response.Error.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, response.Error.Message)
			}

			contentType := rr.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", contentType)
			}
		})
	}
}

func TestWriteErrorWithFields(t *testing.T) {
	log, _ := logger.New("test", "info")
	ctx := logger.SetLoggerInContext(context.Background(), log)

	rr := httptest.NewRecorder()
	fields := map[string]string{
		"orgId": "must be alphanumeric",
		"limit": "must be between 1 and 100",
	}

	WriteErrorWithFields(rr, ctx, http.StatusBadRequest, ErrCodeInvalidParameter, "validation failed", fields)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.OK {
		t.Error("expected ok=false")
	}

	if response.Error == nil {
		t.Fatal("expected error detail, got nil")
	}

	if len(response.Error.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(response.Error.Fields))
	}

	if response.Error.Fields["orgId"] != "must be alphanumeric" {
		t.Errorf("unexpected orgId field value: %s", response.Error.Fields["orgId"])
	}
}

func TestStatusHelpers(t *testing.T) {
	log, _ := logger.New("test", "info")
	ctx := logger.SetLoggerInContext(context.Background(), log)

	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Unauthorized401",
			write:      func(w http.ResponseWriter) { Unauthorized401(w, ctx, ErrCodeInvalidToken, "token is invalid") },
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeInvalidToken,
		},
		{
			name:       "Forbidden403",
			write:      func(w http.ResponseWriter) { Forbidden403(w, ctx, ErrCodeForbidden, "access denied") },
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
		},
		{
			name:       "NotFound404",
			write:      func(w http.ResponseWriter) { NotFound404(w, ctx, "equipment not found") },
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "Conflict409",
			write:      func(w http.ResponseWriter) { Conflict409(w, ctx, "duplicate serial number") },
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeConflict,
		},
		{
			name:       "BadRequest400",
			write:      func(w http.ResponseWriter) { BadRequest400(w, ctx, ErrCodeInvalidParameter, "bad input") },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}

			var response ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, response.Error.Code)
			}
		})
	}
}

func TestInternalError500(t *testing.T) {
	log, _ := logger.New("test", "info")
	ctx := logger.SetLoggerInContext(context.Background(), log)

	rr := httptest.NewRecorder()
	InternalError500(rr, ctx, "database connection failed")

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Error.Code != ErrCodeInternalError {
		t.Errorf("expected code %s, got %s", ErrCodeInternalError, response.Error.Code)
	}

	// Internal detail must not leak into the response body.
	if response.Error.Message != "Internal Server Error" {
		t.Errorf("expected generic message, got %s", response.Error.Message)
	}
}
