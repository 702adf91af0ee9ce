package email

import "strings"

// Normalize lowercases and trims an address so it can be used as a lookup key.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
