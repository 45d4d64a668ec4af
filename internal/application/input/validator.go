// Package input turns raw user text into a number the math service accepts.
package input

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/doeshing/mathool/internal/domain"
)

// Validate parses raw text into a non-negative integer. Rules apply in order
// and the first match wins: not a number, not whole, negative. Failures are
// *domain.ValidationError values carrying the user-facing reason.
//
// Plain decimal integers of any length are accepted, as are decimal and
// exponent spellings with an integral value ("7.0", "1e3"). There is no upper
// bound.
func Validate(raw string) (domain.Number, error) {
	text := strings.TrimSpace(raw)

	if n, ok := new(big.Int).SetString(text, 10); ok {
		return checkSign(raw, n)
	}

	if exponentTooLarge(text) {
		return domain.Number{}, reject(raw, domain.MsgNotWholeNumber)
	}
	r, ok := parseDecimal(text)
	if !ok {
		if isInfinity(text) {
			return domain.Number{}, reject(raw, domain.MsgNotWholeNumber)
		}
		return domain.Number{}, reject(raw, domain.MsgInvalidNumber)
	}
	if !r.IsInt() {
		return domain.Number{}, reject(raw, domain.MsgNotWholeNumber)
	}
	return checkSign(raw, r.Num())
}

func checkSign(raw string, n *big.Int) (domain.Number, error) {
	if n.Sign() < 0 {
		return domain.Number{}, reject(raw, domain.MsgNegativeNumber)
	}
	num, err := domain.NumberFromBig(n)
	if err != nil {
		return domain.Number{}, reject(raw, domain.MsgNegativeNumber)
	}
	return num, nil
}

// parseDecimal accepts decimal fractions and exponent notation. Fractions of
// the "a/b" form are not numbers as far as the user is concerned.
func parseDecimal(text string) (*big.Rat, bool) {
	if text == "" || strings.ContainsAny(text, "/_") {
		return nil, false
	}
	return new(big.Rat).SetString(text)
}

// maxExponent keeps exponent spellings from allocating unbounded integers.
const maxExponent = 4096

// exponentTooLarge reports a well-formed decimal exponent beyond maxExponent.
// Such values overflow to infinity or vanish below one, neither of which is a
// whole number worth sending.
func exponentTooLarge(text string) bool {
	i := strings.IndexAny(text, "eE")
	if i <= 0 || strings.HasPrefix(strings.TrimLeft(text, "+-"), "0x") {
		return false
	}
	if _, ok := new(big.Rat).SetString(text[:i]); !ok {
		return false
	}
	exp, err := strconv.Atoi(text[i+1:])
	if err != nil {
		return false
	}
	return exp > maxExponent || exp < -maxExponent
}

func isInfinity(text string) bool {
	switch strings.TrimLeft(text, "+-") {
	case "Infinity", "Inf", "inf", "infinity":
		return true
	}
	return false
}

func reject(raw, reason string) *domain.ValidationError {
	return &domain.ValidationError{Input: raw, Reason: reason}
}
