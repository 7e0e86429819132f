package errtax

import (
	"errors"
	"testing"
)

func TestKind_Retryable(t *testing.T) {
	cases := map[Kind]bool{
		TargetNotFound:        true,
		StaleElement:          true,
		TimeoutExceeded:       true,
		AssertionFailed:       false,
		NavigationInterrupted: false,
		SessionUnhealthy:      false,
	}
	for kind, want := range cases {
		if got := kind.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestNew_ErrorString(t *testing.T) {
	err := New(TargetNotFound, "no element matched").WithHint("try another selector")
	want := "[TargetNotFound] no element matched (try another selector)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(StaleElement, cause, "")
	if !errors.Is(err, cause) {
		t.Error("Wrap() did not preserve unwrap chain")
	}
	if err.Message != "boom" {
		t.Errorf("Message = %q, want %q", err.Message, "boom")
	}
}

func TestFromError(t *testing.T) {
	taxErr := New(AssertionFailed, "expected visible").WithHint("check postcondition")
	se, ok := FromError(taxErr)
	if !ok {
		t.Fatal("FromError() ok = false, want true")
	}
	if se.Code != "AssertionFailed" || se.Message != "expected visible" || se.RecoveryHint != "check postcondition" {
		t.Errorf("unexpected StructuredError: %+v", se)
	}

	_, ok = FromError(errors.New("plain"))
	if ok {
		t.Error("FromError() ok = true for plain error, want false")
	}
}

func TestIs_KindOf(t *testing.T) {
	err := New(SessionUnhealthy, "pool exhausted")
	if !Is(err, SessionUnhealthy) {
		t.Error("Is() = false, want true")
	}
	kind, ok := KindOf(err)
	if !ok || kind != SessionUnhealthy {
		t.Errorf("KindOf() = (%v, %v), want (SessionUnhealthy, true)", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf() ok = true for plain error, want false")
	}
}
