// Package normalizer cleans bilingual statement text before any pattern
// matching happens: invisible and bidi marks are removed, Arabic-Indic digits
// become Western digits and presentation forms are folded with NFKC.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spacePattern     = regexp.MustCompile(`\s+`)
	headerNoise      = regexp.MustCompile(`[^A-Za-z0-9\x{0600}-\x{06FF}]`)
	numericToken     = regexp.MustCompile(`^-?\d+[.,]?\d*$`)
	numericCandidate = regexp.MustCompile(`[^\d.\-]`)
	numericPrefix    = regexp.MustCompile(`^-?\d*\.?\d*`)
)

// isInvisible reports zero-width characters, the byte order mark and
// directional formatting marks.
func isInvisible(r rune) bool {
	switch {
	case r >= '\u200B' && r <= '\u200F':
		return true
	case r >= '\u202A' && r <= '\u202E':
		return true
	case r >= '\u2066' && r <= '\u2069':
		return true
	case r == '\uFEFF', r == '\u061C':
		return true
	}
	return false
}

// westernDigit maps Arabic-Indic and Eastern Arabic-Indic digits to ASCII.
func westernDigit(r rune) rune {
	switch {
	case r >= '\u0660' && r <= '\u0669':
		return '0' + (r - '\u0660')
	case r >= '\u06F0' && r <= '\u06F9':
		return '0' + (r - '\u06F0')
	}
	return r
}

func newTransformer() transform.Transformer {
	return transform.Chain(
		runes.Remove(runes.Predicate(isInvisible)),
		runes.Map(westernDigit),
		norm.NFKC,
	)
}

// Text removes invisible marks, converts digits and trims the result.
func Text(s string) string {
	if s == "" {
		return s
	}
	out, _, err := transform.String(newTransformer(), s)
	if err != nil {
		// Invalid UTF-8 still gets the digit and mark handling.
		out = strings.Map(func(r rune) rune {
			if isInvisible(r) {
				return -1
			}
			return westernDigit(r)
		}, s)
	}
	return strings.TrimSpace(out)
}

// Cell normalizes a grid cell and collapses inner whitespace.
func Cell(s string) string {
	return CollapseSpaces(Text(s))
}

// CollapseSpaces replaces whitespace runs with one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Header reduces a header cell to lowercase Latin letters, digits and Arabic
// characters so that "Transaction Date:" and "transactiondate" compare equal.
func Header(s string) string {
	return strings.ToLower(headerNoise.ReplaceAllString(Text(s), ""))
}

// Row normalizes every cell of a row in place and returns it.
func Row(row []string) []string {
	for i := range row {
		row[i] = Cell(row[i])
	}
	return row
}

// IsNumericToken reports whether s is a bare number such as "120", "-4,5" or
// "12.50".
func IsNumericToken(s string) bool {
	return numericToken.MatchString(s)
}

// NumericValue strips everything except digits, dots and minus signs and
// parses the longest numeric prefix of the remainder, the way a loosely typed
// spreadsheet reader coerces "1,250.00 SAR" to 1250.
func NumericValue(s string) (float64, bool) {
	cleaned := numericCandidate.ReplaceAllString(s, "")
	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" || prefix == "-" || prefix == "." || prefix == "-." {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(prefix, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
