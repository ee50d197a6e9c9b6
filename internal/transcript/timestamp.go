package transcript

import (
	"fmt"
	"strings"
	"time"
)

// MalformedTimestampError reports a date or time token that matched the line
// grammar but could not be parsed in any supported order. It aborts the run.
type MalformedTimestampError struct {
	Token string
	Line  int
}

func (e *MalformedTimestampError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed timestamp %q at line %d", e.Token, e.Line)
	}
	return fmt.Sprintf("malformed timestamp %q", e.Token)
}

// spaceVariants maps the unicode space variants WhatsApp emits between the
// time and the meridiem marker onto a plain space.
var spaceVariants = strings.NewReplacer(" ", " ", " ", " ", " ", " ")

// NormalizeDate converts an exported date such as "9/8/25" to ISO
// "2006-01-02" form. The two-digit year is interpreted relative to 2000.
// Month-first order is tried before day-first, so ambiguous dates resolve
// month-first.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	t, err := time.Parse("1/2/06", s)
	if err != nil {
		t, err = time.Parse("2/1/06", s)
		if err != nil {
			return "", &MalformedTimestampError{Token: raw}
		}
	}
	// time.Parse maps two-digit years 69-99 to the 1900s.
	if t.Year() < 2000 {
		t = time.Date(t.Year()+100, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Format("2006-01-02"), nil
}

// NormalizeTime converts a 12-hour clock token such as "1:32 PM" (or
// "1:32 pm") to 24-hour "15:04" form.
func NormalizeTime(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(spaceVariants.Replace(raw)))
	s = strings.Join(strings.Fields(s), " ")
	// Some exports drop the space before the meridiem entirely.
	if n := len(s); n > 2 && (strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM")) && s[n-3] != ' ' {
		s = s[:n-2] + " " + s[n-2:]
	}
	t, err := time.Parse("3:04 PM", s)
	if err != nil {
		return "", &MalformedTimestampError{Token: raw}
	}
	return t.Format("15:04"), nil
}
