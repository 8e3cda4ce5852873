// Package core holds the budgetcare domain model and the pure rules that
// operate on it: amount parsing, reservation transitions and availability.
//
// This file contains the amount parser and the display formatter used in
// user-facing messages and exports.
package core

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	decimalAmount  = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)$`)
	prefixedAmount = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// ParseAmount converts user-entered text to a number.
//
// All whitespace (including non-breaking spaces used as thousands
// separators) is removed before conversion. What remains must be a decimal
// literal with optional sign and exponent, "Infinity", or an unsigned 0x,
// 0o or 0b integer. Anything else, including empty input, digit
// separators and hex floats, yields NaN. No locale-aware decimal handling
// is performed.
//
// Examples:
//
//	ParseAmount("1 000")  -> 1000
//	ParseAmount("0x10")   -> 16
//	ParseAmount("1_000")  -> NaN
//	ParseAmount("   ")    -> NaN
//	ParseAmount("abc")    -> NaN
func ParseAmount(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return math.NaN()
	}
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	switch {
	case decimalAmount.MatchString(compact):
		v, err := strconv.ParseFloat(compact, 64)
		if err != nil && !math.IsInf(v, 0) {
			return math.NaN()
		}
		return v
	case prefixedAmount.MatchString(compact):
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[compact[1]|0x20]
		n, ok := new(big.Int).SetString(compact[2:], base)
		if !ok {
			return math.NaN()
		}
		v, _ := new(big.Float).SetInt(n).Float64()
		return v
	}
	return math.NaN()
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsValidAmount reports whether v can be reserved: finite and strictly positive.
func IsValidAmount(v float64) bool {
	return IsFinite(v) && v > 0
}

// FormatAmount renders an amount the way the UI shows it: thousands grouped
// by spaces, comma as decimal separator, at most two decimals.
func FormatAmount(v float64) string {
	if !IsFinite(v) {
		return "-"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "," + frac
	}
	if neg {
		return "-" + out
	}
	return out
}
