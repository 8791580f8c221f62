// Package ticker turns free-form message text into a quote provider symbol.
package ticker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DIMO-Network/ticker-relay/internal/relay"
)

const (
	// SuffixSeparator separates the symbol from its exchange suffix (e.g. "PETR4.SA").
	SuffixSeparator = "."
	// MinLength is the shortest accepted symbol, suffix included.
	MinLength = 3
	// MaxLength is the longest accepted symbol, suffix included.
	MaxLength = 15
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+(\.[A-Z0-9]+)?$`)

// Normalize trims and uppercases raw and appends defaultSuffix when the symbol has no suffix of its own.
// It returns false when raw is empty after trimming.
func Normalize(raw string, defaultSuffix string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", false
	}
	if strings.Contains(symbol, SuffixSeparator) {
		return symbol, true
	}
	return symbol + NormalizeSuffix(defaultSuffix), true
}

// NormalizeSuffix returns suffix uppercased with a leading separator, so "sa" and ".SA" are equivalent.
func NormalizeSuffix(suffix string) string {
	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	suffix = strings.TrimLeft(suffix, SuffixSeparator)
	if suffix == "" {
		return ""
	}
	return SuffixSeparator + suffix
}

// Validate checks a normalized symbol against the accepted character set and length.
func Validate(symbol string) error {
	if n := len(symbol); n < MinLength || n > MaxLength {
		return fmt.Errorf("%w: %q must be between %d and %d characters", relay.ErrValidation, symbol, MinLength, MaxLength)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q may only contain letters, digits and one exchange suffix", relay.ErrValidation, symbol)
	}
	return nil
}
