package bridge

import (
	"strings"
	"unicode/utf8"
)

// checkCString reports whether s can be passed to the host as a NUL-terminated
// UTF-8 string without truncation.
func checkCString(field, s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return &EncodingError{Field: field, Value: s, Reason: "embedded NUL byte"}
	}
	if !utf8.ValidString(s) {
		return &EncodingError{Field: field, Value: s, Reason: "invalid UTF-8"}
	}
	return nil
}

// checkCStrings validates name/value pairs in order and returns the first failure.
func checkCStrings(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := checkCString(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
