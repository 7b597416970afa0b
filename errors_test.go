package thoughtbot

import "testing"

func TestErrAdapterMissingError(t *testing.T) {
	tests := []struct {
		adapter string
		op      string
		want    string
	}{
		{"storage", "remember", "thoughtbot: storage adapter not configured for remember"},
		{"message", "respond", "thoughtbot: message adapter not configured for respond"},
	}
	for _, tt := range tests {
		e := &ErrAdapterMissing{Adapter: tt.adapter, Op: tt.op}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrAdapterMissing{%q, %q}.Error() = %q, want %q", tt.adapter, tt.op, got, tt.want)
		}
	}
}

func TestErrAdapterMissingImplementsError(t *testing.T) {
	var _ error = (*ErrAdapterMissing)(nil)
}

func TestErrMethodUnsupportedError(t *testing.T) {
	tests := []struct {
		adapter string
		method  string
		want    string
	}{
		{"telegram", "poke", `thoughtbot: telegram does not support dispatch method "poke"`},
	}
	for _, tt := range tests {
		e := &ErrMethodUnsupported{Adapter: tt.adapter, Method: tt.method}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrMethodUnsupported{%q, %q}.Error() = %q, want %q", tt.adapter, tt.method, got, tt.want)
		}
	}
}

func TestErrMethodUnsupportedImplementsError(t *testing.T) {
	var _ error = (*ErrMethodUnsupported)(nil)
}

func TestErrValidationFailError(t *testing.T) {
	e := &ErrValidationFail{Stage: "understand", Reason: "empty text"}
	want := "thoughtbot: understand validation failed: empty text"
	if got := e.Error(); got != want {
		t.Errorf("ErrValidationFail.Error() = %q, want %q", got, want)
	}
}

func TestErrConfigErrorError(t *testing.T) {
	e := &ErrConfigError{Detail: `unknown middleware registry "bogus"`}
	want := `thoughtbot: config error: unknown middleware registry "bogus"`
	if got := e.Error(); got != want {
		t.Errorf("ErrConfigError.Error() = %q, want %q", got, want)
	}
}

func TestErrEnvelopeInvalidError(t *testing.T) {
	e := &ErrEnvelopeInvalid{Method: "react", Reason: "missing target message id"}
	want := `thoughtbot: envelope invalid for method "react": missing target message id`
	if got := e.Error(); got != want {
		t.Errorf("ErrEnvelopeInvalid.Error() = %q, want %q", got, want)
	}
}

func TestErrEmptyFields(t *testing.T) {
	e := &ErrAdapterMissing{}
	want := "thoughtbot:  adapter not configured for "
	if got := e.Error(); got != want {
		t.Errorf("ErrAdapterMissing{}.Error() = %q, want %q", got, want)
	}
}
