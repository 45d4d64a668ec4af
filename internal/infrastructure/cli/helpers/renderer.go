package helpers

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/mathool/internal/domain"
)

// MaxInlineDigits is the longest value the history table prints in full.
const MaxInlineDigits = 48

const (
	chipPrime    = "Prime"
	chipNotPrime = "Not Prime"
	hintPrime    = "(Check Prime)"
	hintFact     = "(Calculate Factorial)"
)

// FormatDigits groups a decimal string in thousands. Text that is not a
// decimal integer is returned unchanged.
func FormatDigits(digits string) string {
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return digits
	}
	return humanize.BigComma(n)
}

// Abbreviate keeps the head and tail of a value longer than MaxInlineDigits.
func Abbreviate(digits string) string {
	if len(digits) <= MaxInlineDigits {
		return FormatDigits(digits)
	}
	const keep = 20
	return fmt.Sprintf("%s...%s (%d digits)", digits[:keep], digits[len(digits)-keep:], len(digits))
}

// PrimeLabel renders the primality chip.
func PrimeLabel(prime bool) string {
	if prime {
		return chipPrime
	}
	return chipNotPrime
}

// RenderResult prints the current result card.
func RenderResult(out io.Writer, rec domain.ResultRecord) {
	fmt.Fprintf(out, "Number:    %s\n", FormatDigits(rec.Number.String()))
	if rec.Prime != nil {
		fmt.Fprintf(out, "Prime:     %s\n", PrimeLabel(*rec.Prime))
	}
	if rec.Factorial != nil {
		fmt.Fprintf(out, "Factorial: %s\n", FormatDigits(*rec.Factorial))
	}
}

// RenderHistory prints one row per entry, numbered from #1. Absent fields
// show the hint for the command that fills them. full disables abbreviation.
func RenderHistory(out io.Writer, entries []domain.ResultRecord, full bool) {
	for i, rec := range entries {
		prime := hintPrime
		if rec.Prime != nil {
			prime = PrimeLabel(*rec.Prime)
		}
		factorial := hintFact
		if rec.Factorial != nil {
			if full {
				factorial = FormatDigits(*rec.Factorial)
			} else {
				factorial = Abbreviate(*rec.Factorial)
			}
		}
		fmt.Fprintf(out, "#%-4d %-12s %-15s %s\n", i+1, FormatDigits(rec.Number.String()), prime, factorial)
	}
}

// RenderStats prints the history summary.
func RenderStats(out io.Writer, stats domain.HistoryStats) {
	fmt.Fprintf(out, "Entries:           %d\n", stats.Entries)
	fmt.Fprintf(out, "Prime:             %d\n", stats.Primes)
	fmt.Fprintf(out, "Not prime:         %d\n", stats.NotPrimes)
	fmt.Fprintf(out, "Missing prime:     %d\n", stats.MissingPrime)
	fmt.Fprintf(out, "Missing factorial: %d\n", stats.MissingFactorial)
}

// UserError reduces err to what the user should read. Validation and
// service errors carry their own text; faults below the HTTP layer are
// reported as a failed request.
func UserError(err error) error {
	var verr *domain.ValidationError
	var serr *domain.ServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return verr
	case errors.As(err, &serr):
		return serr
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrMalformedResponse):
		return fmt.Errorf("request failed: %w", err)
	case errors.Is(err, domain.ErrStaleEntry):
		return fmt.Errorf("entry was removed before the answer arrived: %w", err)
	default:
		return err
	}
}

// DescribeError is the text of UserError.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	return UserError(err).Error()
}
