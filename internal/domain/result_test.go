package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/doeshing/mathool/internal/domain"
)

func TestResultRecordOmitsAbsentFields(t *testing.T) {
	raw, err := json.Marshal(domain.ResultRecord{Number: domain.NewNumber(10)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"number":10}` {
		t.Errorf("got %s", raw)
	}
}

func TestResultRecordDecodesOriginalShape(t *testing.T) {
	var rec domain.ResultRecord
	if err := json.Unmarshal([]byte(`{"number":7,"prime":true,"factorial":"5040"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Number.String() != "7" || rec.Prime == nil || !*rec.Prime || rec.Factorial == nil || *rec.Factorial != "5040" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ID != "" {
		t.Errorf("expected empty id, got %s", rec.ID)
	}
}

func TestResultPatchApplyTouchesOnlySetFields(t *testing.T) {
	rec := domain.ResultRecord{ID: "a", Number: domain.NewNumber(4), Factorial: domain.StringPtr("24")}

	got := domain.PrimePatch(false).Apply(rec)

	if got.ID != "a" || got.Number != rec.Number {
		t.Errorf("identity changed: %+v", got)
	}
	if got.Prime == nil || *got.Prime {
		t.Errorf("prime not applied: %+v", got)
	}
	if got.Factorial == nil || *got.Factorial != "24" {
		t.Errorf("factorial changed: %+v", got)
	}
	if rec.Prime != nil {
		t.Error("Apply mutated its input")
	}
}

func TestResultRecordMissing(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.ResultRecord
		want []domain.Mode
	}{
		{name: "nothing known", rec: domain.ResultRecord{}, want: []domain.Mode{domain.ModePrime, domain.ModeFactorial}},
		{name: "prime known", rec: domain.ResultRecord{Prime: domain.BoolPtr(true)}, want: []domain.Mode{domain.ModeFactorial}},
		{name: "both known", rec: domain.ResultRecord{Prime: domain.BoolPtr(true), Factorial: domain.StringPtr("1")}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.Missing()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestStats(t *testing.T) {
	stats := domain.Stats([]domain.ResultRecord{
		{Number: domain.NewNumber(7), Prime: domain.BoolPtr(true), Factorial: domain.StringPtr("5040")},
		{Number: domain.NewNumber(8), Prime: domain.BoolPtr(false)},
		{Number: domain.NewNumber(9)},
	})
	want := domain.HistoryStats{Entries: 3, Primes: 1, NotPrimes: 1, MissingPrime: 1, MissingFactorial: 2}
	if stats != want {
		t.Errorf("got %+v, want %+v", stats, want)
	}
}

func TestParseModeAndPaths(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Mode
		path  string
	}{
		{input: "prime", want: domain.ModePrime, path: "prime"},
		{input: " Factorial ", want: domain.ModeFactorial, path: "factorial"},
		{input: "both", want: domain.ModeBoth, path: "prime-factorial"},
	}
	for _, tt := range tests {
		got, err := domain.ParseMode(tt.input)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tt.input, err)
		}
		if got != tt.want || got.Path() != tt.path {
			t.Errorf("ParseMode(%q) = %s (%s)", tt.input, got, got.Path())
		}
	}
	if _, err := domain.ParseMode("cube"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestServiceErrorFormat(t *testing.T) {
	err := &domain.ServiceError{Response: domain.ErrorResponse{
		StatusCode:    400,
		StatusMessage: "Bad Request",
		Message:       "must be >= 0",
	}}
	if err.Error() != "Error 400 - Bad Request:\nmust be >= 0" {
		t.Errorf("got %q", err.Error())
	}
}
