package sanitizer

import "strings"

// TrimAndNormalize trims the string and collapses every run of whitespace,
// including unicode spaces, to a single blank.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeAddress(address string) string {
	return TrimAndNormalize(address)
}

func NormalizeDescription(description string) string {
	return TrimAndNormalize(description)
}
