package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`[\s\x{00A0}\x{202F}]+`)
	apostrophes = strings.NewReplacer("\u2019", "'", "\u02bc", "'", "\u00b4", "'")
)

// NormalizeHeader puts a source column name in NFC form with straight
// apostrophes and single spaces so that "Région" typed with a combining accent
// matches the precomposed spelling. Trailing spaces are kept: rate prefixes
// end with one.
func NormalizeHeader(input string) string {
	s := strings.TrimPrefix(input, "\ufeff")
	s = norm.NFC.String(s)
	s = apostrophes.Replace(s)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimLeft(s, " ")
}

// NormalizeValue is NormalizeHeader for cell values: surrounding blanks are
// dropped entirely.
func NormalizeValue(input string) string {
	return strings.TrimSpace(NormalizeHeader(input))
}

func StringPtr(v string) *string {
	return &v
}

func FloatPtr(v float64) *float64 {
	return &v
}

func IntPtr(v int) *int {
	return &v
}

func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
