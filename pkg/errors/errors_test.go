package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected errors.Is to unwrap to original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRoomConflict_Details(t *testing.T) {
	err := RoomConflict("room-1", "booking-9")

	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status 409, got %d", err.HTTPStatus)
	}
	if err.Details["conflicting_id"] != "booking-9" {
		t.Errorf("expected conflicting_id booking-9, got %v", err.Details["conflicting_id"])
	}
	if err.Details["room_id"] != "room-1" {
		t.Errorf("expected room_id room-1, got %v", err.Details["room_id"])
	}
}

func TestStateError_Status(t *testing.T) {
	err := StateError("booking is already cancelled", map[string]any{"status": "cancelled"})

	if err.Code != CodeStateError {
		t.Errorf("expected code %s, got %s", CodeStateError, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status 409, got %d", err.HTTPStatus)
	}
}

func TestIsCode(t *testing.T) {
	err := RoomUnavailable("room-1", "booking-2")

	if !IsCode(err, CodeRoomUnavailable) {
		t.Error("expected IsCode to match ROOM_UNAVAILABLE")
	}
	if IsCode(err, CodeRoomConflict) {
		t.Error("expected IsCode not to match ROOM_CONFLICT")
	}
	if IsCode(errors.New("plain"), CodeRoomUnavailable) {
		t.Error("expected IsCode to reject non-AppError")
	}
}

func TestAsAppError(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("expected plain error to map to %s, got %s", CodeInternal, appErr.Code)
	}

	original := NotFound("Room")
	if AsAppError(original) != original {
		t.Error("expected AsAppError to pass through AppError unchanged")
	}
}
