// Package device turns raw User-Agent strings into human-readable client
// descriptions and stable fingerprints. Fingerprints ignore minor browser
// versions so routine auto-updates do not read as a client change, while
// major version or OS changes do.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Disabled instances return empty
// fingerprints so callers can leave the wiring in place.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a display name like "Chrome on Mac OS X" for logs
// and audit trails.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	where := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		where = ua.Platform()
	}
	if where == "" {
		where = ua.Platform()
	}
	if where == "" {
		where = "Unknown OS"
	}

	return strings.Join(strings.Fields(browser+" on "+where), " ")
}

// ComputeFingerprint hashes the stable parts of a User-Agent: browser name,
// major version, OS and platform. Returns a SHA-256 hex digest, or the
// empty string when fingerprinting is disabled.
func (s *Service) ComputeFingerprint(raw string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(raw)
	browser, version := ua.Browser()
	major := version
	if idx := strings.Index(version, "."); idx != -1 {
		major = version[:idx]
	}

	stable := strings.Join([]string{browser, major, ua.OSInfo().FullName, ua.Platform()}, "|")
	sum := sha256.Sum256([]byte(stable))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether a stored fingerprint still matches
// and whether the client drifted. Two empty fingerprints mean no data, not
// a match.
func (s *Service) CompareFingerprints(current, stored string) (matched, drift bool) {
	matched = current == stored && current != ""
	drift = current != stored
	return matched, drift
}
