package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsOverloaded(t *testing.T) {
	base := errors.New("overloaded_error")
	oe := NewOverloadedError(base, 529)

	if !IsOverloaded(oe) {
		t.Error("expected overloaded error to be detected")
	}
	if !IsOverloaded(fmt.Errorf("wrapped: %w", oe)) {
		t.Error("expected wrapped overloaded error to be detected")
	}
	if IsOverloaded(base) {
		t.Error("plain error should not be overloaded")
	}
	if IsOverloaded(nil) {
		t.Error("nil should not be overloaded")
	}
}

func TestOverloadedError_Unwrap(t *testing.T) {
	base := errors.New("upstream busy")
	oe := NewOverloadedError(base, 503)

	if !errors.Is(oe, base) {
		t.Error("expected Unwrap to reach base error")
	}
	if oe.Error() != "upstream busy" {
		t.Errorf("unexpected message: %q", oe.Error())
	}
	if oe.StatusCode != 503 {
		t.Errorf("expected status 503, got %d", oe.StatusCode)
	}
}

func TestIsOverloadedHTTPStatus(t *testing.T) {
	overloaded := []int{429, 503, 529}
	for _, code := range overloaded {
		if !IsOverloadedHTTPStatus(code) {
			t.Errorf("expected %d to be overloaded", code)
		}
	}

	notOverloaded := []int{200, 400, 401, 404, 500, 502}
	for _, code := range notOverloaded {
		if IsOverloadedHTTPStatus(code) {
			t.Errorf("expected %d to not be overloaded", code)
		}
	}
}
