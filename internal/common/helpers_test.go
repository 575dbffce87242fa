package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.024981836", FormatUnits(24981836, 9))
	assert.Equal(t, "0.030000000", LamportsToSOL(30_000_000))
	assert.Equal(t, "0.00001000", FormatUnits(1000, 8))
	assert.Equal(t, "1000", FormatUnits(1000, 0))
}

func TestStripHexPrefix(t *testing.T) {
	assert.Equal(t, "abcd", StripHexPrefix("0xabcd"))
	assert.Equal(t, "abcd", StripHexPrefix("ed25519-priv-0xabcd"))
	assert.Equal(t, "abcd", StripHexPrefix(" abcd "))
}
