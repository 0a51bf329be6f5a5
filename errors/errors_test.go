package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhasePull,
				Kind:   KindTargetEvaluation,
				Path:   []string{"df", "col"},
				Name:   "sos_df",
				Detail: "NameError: undefined",
			},
			contains: []string{"[pull]", "target_evaluation", "df.col", "variable sos_df", "NameError"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidData,
			},
			contains: []string{"[decode]", "invalid_data"},
		},
		{
			name: "error with text and cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindInvalidData,
				Text:   `[1, 2`,
				Detail: "unterminated array",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"unterminated array", `"[1, 2"`, "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_LongTextIsTruncated(t *testing.T) {
	err := DecodeFailed(strings.Repeat("x", 500), 3, "bad", nil)
	msg := err.Error()
	if !strings.Contains(msg, "...") {
		t.Errorf("expected truncated preview in %q", msg)
	}
	if len(msg) > 200 {
		t.Errorf("message too long: %d bytes", len(msg))
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseChannel,
		Kind:  KindChannel,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhasePush,
		Kind:  KindTargetEvaluation,
		Name:  "x",
	}

	if !err.Is(&Error{Phase: PhasePush, Kind: KindTargetEvaluation}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePull, Kind: KindTargetEvaluation}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhasePush, Kind: KindChannel}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrTargetEvaluation) {
		t.Error("sentinel without phase should match any phase")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("decode sentinel should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindInvalidData).
		Path("a", "b").
		Name("sos_x").
		Text("[1,").
		Value(3).
		Cause(cause).
		Detail("expected %s, got %s", "value", "EOF").
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindInvalidData {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
	}
	if len(err.Path) != 2 || err.Path[0] != "a" || err.Path[1] != "b" {
		t.Errorf("Path = %v, want [a b]", err.Path)
	}
	if err.Name != "sos_x" {
		t.Errorf("Name = %v, want sos_x", err.Name)
	}
	if err.Text != "[1," {
		t.Errorf("Text = %v, want [1,", err.Text)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected value, got EOF" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownVariable", func(t *testing.T) {
		err := UnknownVariable("nmu_var", "num_var")
		if err.Kind != KindUnknownVariable || err.Name != "nmu_var" {
			t.Errorf("got %+v", err)
		}
		if !strings.Contains(err.Error(), `did you mean "num_var"`) {
			t.Errorf("missing suggestion in %q", err.Error())
		}
		if !errors.Is(err, ErrUnknownVariable) {
			t.Error("should match sentinel")
		}
	})

	t.Run("UnknownVariableNoSuggestion", func(t *testing.T) {
		err := UnknownVariable("zzz", "")
		if strings.Contains(err.Error(), "did you mean") {
			t.Errorf("unexpected suggestion in %q", err.Error())
		}
	})

	t.Run("Degraded", func(t *testing.T) {
		err := Degraded([]string{"df", "mixed"}, "converted to string")
		if err.Phase != PhaseEncode || err.Kind != KindDegraded {
			t.Errorf("got %+v", err)
		}
		if !errors.Is(err, ErrDegraded) {
			t.Error("should match sentinel")
		}
	})

	t.Run("TargetEvaluation", func(t *testing.T) {
		err := TargetEvaluation(PhasePull, "x", "NameError", "undefined local variable")
		if err.Detail != "NameError: undefined local variable" {
			t.Errorf("Detail = %q", err.Detail)
		}
		err = TargetEvaluation(PhasePull, "x", "", "boom")
		if err.Detail != "boom" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("DecodeFailed", func(t *testing.T) {
		err := DecodeFailed("[1,", 3, "unexpected end of input", nil)
		if !errors.Is(err, ErrDecode) {
			t.Error("should match decode sentinel")
		}
		if err.Value != 3 {
			t.Errorf("Value = %v, want 3", err.Value)
		}
	})

	t.Run("NoResponse", func(t *testing.T) {
		err := NoResponse([]string{"stream", "execute_result"})
		if !strings.Contains(err.Detail, "stream|execute_result") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})
}

func TestWithName(t *testing.T) {
	orig := DecodeFailed("x", 0, "bad", nil)
	named := WithName(orig, PhasePull, "sos_a")
	if named.Name != "sos_a" || named.Phase != PhaseDecode {
		t.Errorf("got %+v", named)
	}
	if orig.Name != "" {
		t.Error("WithName must not mutate the original")
	}

	plain := WithName(errors.New("pipe closed"), PhasePull, "sos_b")
	if plain.Kind != KindChannel || plain.Name != "sos_b" {
		t.Errorf("got %+v", plain)
	}
}
