package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewErrorFields_TypePerStatus(t *testing.T) {
	for _, status := range []StatusCode{
		StatusBadRequest,
		StatusUnauthorized,
		StatusNotFound,
		StatusPayloadTooLarge,
		StatusUnsupportedMedia,
		StatusValidation,
		StatusInternal,
	} {
		fields := NewErrorFields(status)
		want := fmt.Sprintf("%s%d", errorDocURL, status)
		if fields.Type != want {
			t.Errorf("Status %d: expected type %q, got %q", status, want, fields.Type)
		}
		if fields.Title == "" || fields.Detail == "" {
			t.Errorf("Status %d: expected title and detail to be set", status)
		}
	}
}

func TestNewErrorFields_UnknownStatusFallsBackToInternal(t *testing.T) {
	fields := NewErrorFields(StatusCode(418))

	if fields.Status != int(StatusInternal) {
		t.Errorf("Expected status %d, got %d", StatusInternal, fields.Status)
	}
	want := fmt.Sprintf("%s%d", errorDocURL, StatusInternal)
	if fields.Type != want {
		t.Errorf("Expected type %q, got %q", want, fields.Type)
	}
}

func TestPortalError_ToErrorFields(t *testing.T) {
	pErr := NewWithDetail(errors.New("missing track title"), StatusValidation, "Track 1 needs a title")

	fields := pErr.ToErrorFields()
	if fields.Status != int(StatusValidation) {
		t.Errorf("Expected status %d, got %d", StatusValidation, fields.Status)
	}
	if fields.Detail != "Track 1 needs a title" {
		t.Errorf("Expected custom detail, got %q", fields.Detail)
	}
	if fields.Type == "" {
		t.Error("Expected type to be populated")
	}
}

func TestGet(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(errors.New("nope"), StatusNotFound))
	if pErr := Get(wrapped); pErr == nil || pErr.StatusCode != StatusNotFound {
		t.Errorf("Expected wrapped PortalError with status 404, got %+v", pErr)
	}
	if pErr := Get(errors.New("plain")); pErr != nil {
		t.Errorf("Expected nil for non-portal error, got %+v", pErr)
	}
}
