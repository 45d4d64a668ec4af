package domain

import (
	"fmt"
	"strings"
)

// Mode selects which attributes a dispatch asks the math service for.
type Mode string

const (
	ModePrime     Mode = "prime"
	ModeFactorial Mode = "factorial"
	ModeBoth      Mode = "both"
)

// Modes lists every mode in selector order.
var Modes = []Mode{ModePrime, ModeFactorial, ModeBoth}

// ParseMode accepts a mode name or one of a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prime", "p":
		return ModePrime, nil
	case "factorial", "f", "fact":
		return ModeFactorial, nil
	case "both", "b", "prime-factorial", "all":
		return ModeBoth, nil
	default:
		return "", fmt.Errorf("%w: %q (want prime|factorial|both)", ErrUnknownMode, s)
	}
}

// Path is the request target under the service base URL.
func (m Mode) Path() string {
	switch m {
	case ModePrime:
		return "prime"
	case ModeFactorial:
		return "factorial"
	default:
		return "prime-factorial"
	}
}

// Label is the human-facing selector label.
func (m Mode) Label() string {
	switch m {
	case ModePrime:
		return "Check Prime"
	case ModeFactorial:
		return "Calculate Factorial"
	default:
		return "Prime & Factorial"
	}
}

// WantsPrime reports whether responses in this mode carry the prime field.
func (m Mode) WantsPrime() bool {
	return m == ModePrime || m == ModeBoth
}

// WantsFactorial reports whether responses in this mode carry the factorial field.
func (m Mode) WantsFactorial() bool {
	return m == ModeFactorial || m == ModeBoth
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}
