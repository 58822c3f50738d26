package sqlops

import "strings"

// Literal quotes value as a single-quoted SQL string literal:
// `o'hara` becomes `'o''hara'`.
func Literal(value string) string {
	return "'" + escapeLiteral(value) + "'"
}

func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
