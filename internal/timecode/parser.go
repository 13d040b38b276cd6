package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// TrimRange is the subsegment of source audio to keep, in whole seconds
type TrimRange struct {
	Start int
	End   int
}

// Duration returns the length of the range in seconds
func (r TrimRange) Duration() int {
	return r.End - r.Start
}

func (r TrimRange) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// FormatError reports message text that contains a timecode pair which
// cannot be used as a trim range. Callers branch on it with errors.As to
// tell user-input problems apart from unexpected failures.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "timecode: " + e.Reason
}

// IsFormatError reports whether err (or anything it wraps) is a FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Two integers of 1-4 digits around a colon, optional whitespace, standing
// alone rather than embedded in a longer digit run.
var trimPattern = regexp.MustCompile(`(?:^|[^0-9])([0-9]{1,4})[ \t]*:[ \t]*([0-9]{1,4})(?:[^0-9]|$)`)

// Parse extracts a trim range from free-form message text.
//
// It returns (nil, nil) when the text carries no timecode pair: trimming is
// optional, so absence is not an error. When a pair is present it must
// satisfy end > start, otherwise a *FormatError is returned. Only the first
// pair in the text is considered. Both numbers are raw seconds.
func Parse(text string) (*TrimRange, error) {
	m := trimPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}

	start, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("could not parse %q as a number", m[1])}
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("could not parse %q as a number", m[2])}
	}

	if end <= start {
		return nil, &FormatError{Reason: fmt.Sprintf("end (%d) must exceed start (%d)", end, start)}
	}

	return &TrimRange{Start: start, End: end}, nil
}
