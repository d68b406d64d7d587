package models

import "strings"

// KeyPrefixIP namespaces per-IP rate limit buckets.
const KeyPrefixIP = "ip"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit buckets.
//
// Example: An identifier "user:admin" would become "user_admin", preventing
// it from being interpreted as a separate key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPKey builds the bucket key for a client IP.
func NewIPKey(ip string) string {
	return KeyPrefixIP + ":" + SanitizeKeySegment(ip)
}
