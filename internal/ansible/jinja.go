package ansible

import (
	"regexp"
	"strings"
)

var (
	jinjaExpression = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	jinjaStatement  = regexp.MustCompile(`(?s)\{%.*?%\}`)
	jinjaComment    = regexp.MustCompile(`(?s)\{#.*?#\}`)
)

// Unjinja replaces Jinja expressions, statements and comments with inert
// placeholders so the remaining text can be inspected as plain shell.
func Unjinja(s string) string {
	s = jinjaExpression.ReplaceAllString(s, "JINJA_EXPRESSION")
	s = jinjaStatement.ReplaceAllString(s, "JINJA_STATEMENT")
	return jinjaComment.ReplaceAllString(s, "JINJA_COMMENT")
}

// IsTemplated reports whether s contains Jinja markup.
func IsTemplated(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%") || strings.Contains(s, "{#")
}
