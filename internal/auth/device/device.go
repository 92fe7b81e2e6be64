// Package device derives human-readable device labels and stable fingerprints
// from User-Agent strings. Labels go on session records so people can
// recognize their own logins; fingerprints support drift detection.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Disabled instances return empty
// fingerprints so callers need no branching.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a User-Agent as "<browser> on <platform>". Browser
// and OS fall back to generic labels rather than failing; an empty input is
// the only case labelled Unknown Device.
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + platform)
}

// ComputeFingerprint hashes the stable parts of a User-Agent: browser name,
// browser major version, and OS. Minor and patch version bumps do not move
// the fingerprint; a major version change does.
func (s *Service) ComputeFingerprint(raw string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(raw)
	browser, version := ua.Browser()

	sum := sha256.Sum256([]byte(browser + "|" + majorVersion(version) + "|" + ua.OS()))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether stored and presented fingerprints match
// and whether a drift occurred.
func (s *Service) CompareFingerprints(stored, presented string) (matched, drift bool) {
	matched = stored == presented
	return matched, !matched
}

func majorVersion(version string) string {
	if idx := strings.Index(version, "."); idx != -1 {
		return version[:idx]
	}
	return version
}
