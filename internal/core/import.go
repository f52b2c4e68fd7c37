package core

// import.go implements parsing for bulk resource imports.
//
// A payload is UTF-8 text with one record per line in the form
// url:login:password. URLs routinely contain colons (scheme, port), so
// records are split on the LAST two colons only. Malformed lines do not
// abort the import; each one becomes a LineError and parsing continues.

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Diagnostic reasons reported for rejected lines.
const (
	ReasonInvalidFormat = "invalid format (expected url:login:pass)"
	ReasonEmptyFields   = "empty fields"
)

// utf8BOM is stripped from the start of a payload before parsing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineError is a non-fatal diagnostic for one rejected import line.
type LineError struct {
	Line   int // 1-based line number in the input
	Reason string
}

func (e LineError) String() string {
	return fmt.Sprintf("Line %d: %s", e.Line, e.Reason)
}

// ImportPlan is the outcome of parsing a payload: the drafts to create and
// the diagnostics for rejected lines, both in line order.
type ImportPlan struct {
	Drafts      []ResourceDraft
	Diagnostics []LineError
}

// Messages renders the diagnostics as display strings.
func (p ImportPlan) Messages() []string {
	msgs := make([]string, len(p.Diagnostics))
	for i, d := range p.Diagnostics {
		msgs[i] = d.String()
	}
	return msgs
}

// DecodeImport validates that raw is UTF-8 and returns it as text.
// A leading byte order mark is dropped.
func DecodeImport(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", &EncodingError{Offset: firstInvalidByte(raw)}
	}
	return string(raw), nil
}

// firstInvalidByte returns the offset of the first byte that does not start
// a valid UTF-8 sequence.
func firstInvalidByte(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// SplitRecord splits line on its last two colons.
// ok is false when the line holds fewer than two colons.
// Fields are returned untrimmed.
func SplitRecord(line string) (url, login, password string, ok bool) {
	last := strings.LastIndexByte(line, ':')
	if last < 0 {
		return "", "", "", false
	}
	prev := strings.LastIndexByte(line[:last], ':')
	if prev < 0 {
		return "", "", "", false
	}
	return line[:prev], line[prev+1 : last], line[last+1:], true
}

// ParseImport turns import text into drafts and per-line diagnostics.
// Blank lines are skipped silently. Format is checked before emptiness,
// so "url::pass" reports empty fields rather than an invalid format.
func ParseImport(text string) ImportPlan {
	var plan ImportPlan

	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		url, login, password, ok := SplitRecord(line)
		if !ok {
			plan.Diagnostics = append(plan.Diagnostics, LineError{Line: lineNum, Reason: ReasonInvalidFormat})
			continue
		}

		draft := ResourceDraft{
			URL:      strings.TrimSpace(url),
			Login:    strings.TrimSpace(login),
			Password: strings.TrimSpace(password),
		}
		if !draft.Valid() {
			plan.Diagnostics = append(plan.Diagnostics, LineError{Line: lineNum, Reason: ReasonEmptyFields})
			continue
		}

		plan.Drafts = append(plan.Drafts, draft)
	}

	return plan
}
