package common

import (
	"strconv"
	"strings"
)

const (
	SOLDecimals = 9 // SOL has 9 decimals (lamports)
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return FormatUnits(lamports, SOLDecimals)
}

// FormatUnits converts integer to decimal string by inserting decimal point
// Example: FormatUnits(24981836, 9) = "0.024981836"
func FormatUnits(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	if decimals <= 0 {
		return s
	}

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// StripHexPrefix removes a leading "0x" and any key-scheme tag in front of it,
// e.g. "ed25519-priv-0xabc" -> "abc".
func StripHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "0x"); i >= 0 && (i == 0 || strings.HasSuffix(s[:i], "-")) {
		return s[i+2:]
	}
	return s
}
