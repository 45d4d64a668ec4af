package input

import (
	"errors"
	"fmt"
	"testing"

	"github.com/doeshing/mathool/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantMsg string
	}{
		{name: "zero", raw: "0", want: "0"},
		{name: "prime", raw: "7", want: "7"},
		{name: "surrounding whitespace", raw: "  42\n", want: "42"},
		{name: "negative zero", raw: "-0", want: "0"},
		{name: "explicit plus", raw: "+5", want: "5"},
		{name: "integral fraction", raw: "7.0", want: "7"},
		{name: "exponent", raw: "1e3", want: "1000"},
		{name: "beyond uint64", raw: "100000000000000000000000", want: "100000000000000000000000"},
		{name: "empty", raw: "", wantMsg: domain.MsgInvalidNumber},
		{name: "blank", raw: "   ", wantMsg: domain.MsgInvalidNumber},
		{name: "letters", raw: "abc", wantMsg: domain.MsgInvalidNumber},
		{name: "nan", raw: "NaN", wantMsg: domain.MsgInvalidNumber},
		{name: "ratio", raw: "1/2", wantMsg: domain.MsgInvalidNumber},
		{name: "trailing junk", raw: "12abc", wantMsg: domain.MsgInvalidNumber},
		{name: "fraction", raw: "6.5", wantMsg: domain.MsgNotWholeNumber},
		{name: "infinity", raw: "Infinity", wantMsg: domain.MsgNotWholeNumber},
		{name: "negative fraction is not whole first", raw: "-0.5", wantMsg: domain.MsgNotWholeNumber},
		{name: "negative", raw: "-3", wantMsg: domain.MsgNegativeNumber},
		{name: "huge exponent", raw: "1e999999", wantMsg: domain.MsgNotWholeNumber},
		{name: "tiny exponent", raw: "1e-999999", wantMsg: domain.MsgNotWholeNumber},
		{name: "negative exponent form", raw: "-1e2", wantMsg: domain.MsgNegativeNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)
			if tt.wantMsg != "" {
				var verr *domain.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *domain.ValidationError, got %v", err)
				}
				if verr.Reason != tt.wantMsg {
					t.Errorf("reason = %q, want %q", verr.Reason, tt.wantMsg)
				}
				if verr.Input != tt.raw {
					t.Errorf("input = %q, want %q", verr.Input, tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// For every n, n is accepted while n-0.5, -n-1 and text are rejected with
// their specific messages.
func TestValidateNeighbourhood(t *testing.T) {
	for n := 0; n <= 50; n++ {
		if got, err := Validate(fmt.Sprint(n)); err != nil || got != domain.NewNumber(uint64(n)) {
			t.Fatalf("Validate(%d) = %s, %v", n, got, err)
		}
		assertReason(t, fmt.Sprintf("%g", float64(n)-0.5), domain.MsgNotWholeNumber)
		assertReason(t, fmt.Sprint(-n-1), domain.MsgNegativeNumber)
		assertReason(t, fmt.Sprintf("n%d", n), domain.MsgInvalidNumber)
	}
}

func assertReason(t *testing.T, raw, want string) {
	t.Helper()
	_, err := Validate(raw)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Reason != want {
		t.Fatalf("Validate(%q) = %v, want %q", raw, err, want)
	}
}
