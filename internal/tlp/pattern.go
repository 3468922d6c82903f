package tlp

import "strings"

// MatchPattern reports whether a vault-relative path matches a policy pattern.
//
// Supported shapes:
//   - "**"        every path
//   - "*.ext"     suffix match anywhere in the tree (no '/' in pattern)
//   - "dir/**"    the directory itself and everything below it
//   - anything else: exact, byte-for-byte equality
//
// No regex, no case folding. An empty pattern matches nothing.
func MatchPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "**" {
		return true
	}

	if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, pattern[1:])
	}

	// dir/** also matches the bare directory name. Kept for compatibility
	// with existing vault policies.
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		return len(path) == len(prefix) || path[len(prefix)] == '/'
	}

	return path == pattern
}
