package label

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedDate is wrapped by every due-date parse failure.
var ErrMalformedDate = errors.New("label: malformed date")

// DateLayout is the display format of due dates on a label.
const DateLayout = "2006-01-02"

// accepted input layouts, tried in order
var dueDateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04",
	time.RFC3339,
	"2006/01/02",
}

// ParseDueDate parses a calendar date entered by the user.
func ParseDueDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrMalformedDate, s)
}

// FormatDueDate normalizes s to YYYY-MM-DD. The calendar day written by the
// user is kept as is; no time zone conversion happens.
func FormatDueDate(s string) (string, error) {
	t, err := ParseDueDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
