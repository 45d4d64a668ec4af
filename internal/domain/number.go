// Package domain defines core entities and value objects for mathool.
//
// The domain layer is independent of infrastructure concerns: it knows how a
// result record looks and serializes, but not where it is stored or how the
// remote math service is reached.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// Number is a non-negative integer of arbitrary magnitude kept in canonical
// decimal form. The zero value is the number 0, so Numbers compare with ==.
type Number struct {
	digits string
}

// NewNumber builds a Number from a native unsigned integer.
func NewNumber(n uint64) Number {
	v, _ := NumberFromBig(new(big.Int).SetUint64(n))
	return v
}

// NumberFromBig builds a Number from a big.Int. Negative values are rejected.
func NumberFromBig(n *big.Int) (Number, error) {
	switch {
	case n == nil || n.Sign() == 0:
		return Number{}, nil
	case n.Sign() < 0:
		return Number{}, fmt.Errorf("number %s is negative", n.String())
	}
	return Number{digits: n.String()}, nil
}

// String returns the canonical decimal form.
func (n Number) String() string {
	if n.digits == "" {
		return "0"
	}
	return n.digits
}

// Equal reports whether n and o are the same number.
func (n Number) Equal(o Number) bool {
	return n == o
}

// Big returns the value as a freshly allocated big.Int.
func (n Number) Big() *big.Int {
	v, _ := new(big.Int).SetString(n.String(), 10)
	return v
}

// Uint64 returns the value when it fits in 64 bits.
func (n Number) Uint64() (uint64, bool) {
	v := n.Big()
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// MarshalJSON emits the number as a bare JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalJSON accepts a JSON number (or a quoted decimal string) and
// canonicalizes it. Integral values written with an exponent or a ".0"
// fraction are accepted.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	if v, ok := new(big.Int).SetString(string(data), 10); ok {
		parsed, err := NumberFromBig(v)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	}
	r, ok := new(big.Rat).SetString(string(data))
	if !ok {
		return fmt.Errorf("invalid number %s", data)
	}
	if !r.IsInt() {
		return fmt.Errorf("number %s is not an integer", data)
	}
	v := r.Num()
	parsed, err := NumberFromBig(v)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
