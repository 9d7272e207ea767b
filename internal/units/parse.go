package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// sizeSuffixes maps a trailing unit letter to its multiplier. Powers of 1024,
// as rsync's --bwlimit uses.
var sizeSuffixes = map[byte]int64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize parses a human-readable size such as 100, 512K, 1.5G or 2t into
// bytes. Negative values and values that do not fit in an int64 are rejected.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	multiplier := int64(1)
	num := s
	if m, ok := sizeSuffixes[upper(s[len(s)-1])]; ok {
		multiplier = m
		num = s[:len(s)-1]
	}
	if num == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		if n > math.MaxInt64/multiplier {
			return 0, fmt.Errorf("size too large: %q", s)
		}
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || !(f >= 0) {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	bytes := f * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %q", s)
	}
	return int64(bytes), nil
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
