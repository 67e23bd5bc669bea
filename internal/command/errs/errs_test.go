package errs

import "testing"

func TestDefaultRetryability(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{NetworkError, true},
		{Timeout, true},
		{VideoUnavailable, false},
		{InvalidURL, false},
		{InsufficientSpace, false},
		{MissingDependency, false},
		{CorruptedInstallation, false},
		{PermissionDenied, false},
		{OperationCancelled, false},
	}
	for _, c := range cases {
		e := New(c.kind, "x")
		if got := e.Retryable(); got != c.want {
			t.Errorf("New(%s).Retryable() = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestRetryableOverride(t *testing.T) {
	e := New(DownloadFailed, "timed out").WithRetryable(true)
	if !e.Retryable() {
		t.Errorf("expected override to force retryable")
	}
}

func TestToEnvelope(t *testing.T) {
	e := New(InsufficientSpace, "need more room")
	env := ToEnvelope(e)
	if env.Type != InsufficientSpace {
		t.Errorf("Type = %s, want %s", env.Type, InsufficientSpace)
	}
	if env.SuggestedAction == "" {
		t.Errorf("expected a suggested action for InsufficientSpace")
	}
}

func TestToEnvelopeUnknownError(t *testing.T) {
	env := ToEnvelope(errString("boom"))
	if env.Type != Unknown {
		t.Errorf("Type = %s, want Unknown", env.Type)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
