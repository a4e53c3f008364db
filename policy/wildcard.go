package policy

import "strings"

// matchesLicenseURL tests a license URL against one blocklist pattern. Both
// sides are compared case-insensitively.
//
// A pattern without '*' is a plain substring test. A pattern containing '*'
// may match anywhere inside the URL, with each '*' standing for any run of
// characters; a bare "*" therefore matches every URL, and "gnu.org/*"
// matches any absolute URL with a path under that host. The two code paths
// deliberately differ: the substring "ab" never matches "aXb", while the
// wildcard "a*b" does.
func matchesLicenseURL(url, pattern string) bool {
	if pattern == "" {
		return false
	}

	url = strings.ToLower(url)
	pattern = strings.ToLower(pattern)

	if !strings.Contains(pattern, "*") {
		return strings.Contains(url, pattern)
	}
	// Unanchored: the pattern may start matching anywhere in the URL.
	return wildcardMatch(url, "*"+pattern+"*")
}

// wildcardMatch reports whether s matches pattern in full, where '*' matches
// any (possibly empty) run of characters. Iterative backtracking over the
// last-seen star.
func wildcardMatch(s, pattern string) bool {
	si, pi := 0, 0
	star, mark := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == s[si]):
			si++
			pi++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
