package bus

import (
	"fmt"
	"strings"
)

const (
	chunkSep  = "/"
	wildOne   = "*"
	wildMulti = "**"
)

// ValidatePattern checks a key expression: no empty chunks, and wildcards
// only as whole chunks.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	for _, c := range strings.Split(pattern, chunkSep) {
		if c == "" {
			return fmt.Errorf("%w: %q has an empty chunk", ErrInvalidPattern, pattern)
		}
		if c != wildOne && c != wildMulti && strings.Contains(c, wildOne) {
			return fmt.Errorf("%w: %q mixes wildcards into a chunk", ErrInvalidPattern, pattern)
		}
	}
	return nil
}

// HasWildcard reports whether the pattern matches more than one key.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, wildOne)
}

// Match reports whether key matches the key expression pattern.
func Match(pattern, key string) bool {
	return matchChunks(strings.Split(pattern, chunkSep), strings.Split(key, chunkSep))
}

func matchChunks(pat, key []string) bool {
	for len(pat) > 0 {
		switch pat[0] {
		case wildMulti:
			rest := pat[1:]
			for i := 0; i <= len(key); i++ {
				if matchChunks(rest, key[i:]) {
					return true
				}
			}
			return false
		case wildOne:
			if len(key) == 0 || key[0] == "" {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pat[0] {
				return false
			}
		}
		pat, key = pat[1:], key[1:]
	}
	return len(key) == 0
}
