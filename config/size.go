package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Size is an amount of memory in bytes.
type Size uint64

// ParseSize parses a memory size. A bare number is a count of MiB, and a
// single-letter suffix (K, M, G, T) is binary, so "512" and "512M" are both
// 512 MiB. Any unit go-humanize understands is accepted otherwise.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty size", ErrBadSize)
	}

	switch {
	case isDigits(s):
		s += "MiB"
	case hasShortSuffix(s):
		s += "iB"
	}

	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadSize, err)
	}

	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func hasShortSuffix(s string) bool {
	if len(s) < 2 || !strings.ContainsRune("kKmMgGtT", rune(s[len(s)-1])) {
		return false
	}

	prev := rune(s[len(s)-2])

	return !unicode.IsLetter(prev)
}

func (s Size) String() string {
	return humanize.IBytes(uint64(s))
}

// Set parses v into the size.
func (s *Size) Set(v string) error {
	n, err := ParseSize(v)
	if err != nil {
		return err
	}

	*s = Size(n)

	return nil
}

// Type names the flag value type.
func (s *Size) Type() string {
	return "size"
}

// UnmarshalYAML accepts both plain integers (MiB) and strings with units.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d is not a scalar", ErrBadSize, value.Line)
	}

	return s.Set(value.Value)
}

// MarshalYAML writes the size in binary units.
func (s Size) MarshalYAML() (any, error) {
	return s.String(), nil
}
