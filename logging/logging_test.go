package logging

import "testing"

func TestStandardLoggerSetGetLevel(t *testing.T) {
	l := New()
	l.SetLevel(Debug)
	if got := l.GetLevel(); got != Debug {
		t.Fatalf("GetLevel() = %v, want Debug", got)
	}
	l.SetLevel(Error)
	if got := l.GetLevel(); got != Error {
		t.Fatalf("GetLevel() = %v, want Error", got)
	}
}

func TestStandardLoggerWithFieldsReturnsLogger(t *testing.T) {
	l := New()
	withFields := l.WithFields(Fields{"identifier": "p"})
	if withFields == nil {
		t.Fatal("WithFields returned nil")
	}
	// Should not panic and should itself support WithFields/level calls.
	withFields.Debug("hello %s", "world")
}

func TestNoOpLoggerIsInert(t *testing.T) {
	l := NewNoOp()
	l.Debug("x")
	l.Warn("x")
	l.Error("x")
	if got := l.GetLevel(); got != Info {
		t.Fatalf("GetLevel() = %v, want Info", got)
	}
	if l.WithFields(Fields{"a": 1}) == nil {
		t.Fatal("WithFields returned nil")
	}
}
