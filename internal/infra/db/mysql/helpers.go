package mysql

import "strings"

// stringOr returns the fallback when the input is empty/whitespace
func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
