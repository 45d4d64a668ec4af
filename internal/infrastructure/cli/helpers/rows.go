package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doeshing/mathool/internal/domain"
)

// ParseRow converts a displayed row ("3" or "#3") to a zero-based index
// into a history of length n.
func ParseRow(arg string, n int) (int, error) {
	text := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	row, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("row must be a number like #1, got %q", arg)
	}
	if row < 1 || row > n {
		if n == 0 {
			return 0, fmt.Errorf("%w: history is empty", domain.ErrIndexOutOfRange)
		}
		return 0, fmt.Errorf("%w: row %d (rows are #1 to #%d)", domain.ErrIndexOutOfRange, row, n)
	}
	return row - 1, nil
}
