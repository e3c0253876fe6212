package tabular

import "strings"

// formulaPrefixes are leading characters a spreadsheet may evaluate.
const formulaPrefixes = "=+-@\t\r"

// EscapeFormula prefixes s with an apostrophe when it would otherwise be
// read as a formula.
func EscapeFormula(s string) string {
	if s != "" && strings.ContainsRune(formulaPrefixes, rune(s[0])) {
		return "'" + s
	}
	return s
}

// UnescapeFormula reverses EscapeFormula.
func UnescapeFormula(s string) string {
	if len(s) > 1 && s[0] == '\'' && strings.ContainsRune(formulaPrefixes, rune(s[1])) {
		return s[1:]
	}
	return s
}
