package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDecodeSymbols_PlainBits(t *testing.T) {
	out := DecodeSymbols([]ChipClass{ChipLow, ChipHigh, ChipLow, ChipHigh})
	assert.Equal(t, "00", out.String())

	out = DecodeSymbols([]ChipClass{ChipHigh, ChipLow, ChipHigh, ChipLow})
	assert.Equal(t, "11", out.String())
}

func TestDecodeSymbols_ShortBurst(t *testing.T) {
	// scenario B: [2,0,1] -> "v0"
	out := DecodeSymbols([]ChipClass{ChipViolationLow, ChipLow, ChipHigh})
	assert.Equal(t, "v0", out.String())
}

func TestDecodeSymbols_EmbeddedViolation(t *testing.T) {
	// scenario C: [0,1,3,1] (codes 0,1,^,1) -> "0^" of length 2. The first
	// pair (0,1) consumes both and emits "0"; ChipViolationHi at index 2
	// is an unconditional single-chip emission ("^") that doesn't look
	// at dbuf[3], so it never gets consumed this call.
	dbuf := []ChipClass{ChipLow, ChipHigh, ChipViolationHi, ChipHigh}
	out := DecodeSymbols(dbuf)
	assert.Equal(t, "0^", out.String())
	assert.Equal(t, 2, len(out))
}

func TestDecodeSymbols_RewritesRun25(t *testing.T) {
	// The embedded-violation merge (ChipRun25Hi -> ChipHigh) advances the
	// cursor by only 1, so the rewritten chip is re-examined immediately
	// within the same call: "0^" from the first pair, then the rewritten
	// ChipHigh paired with a trailing violation yields an extra "*".
	dbuf := []ChipClass{ChipLow, ChipRun25Hi, ChipViolationLow}
	out := DecodeSymbols(dbuf)
	assert.Equal(t, "0^*", out.String())
	assert.Equal(t, ChipHigh, dbuf[1])
}

func TestDecodeSymbols_Impossible(t *testing.T) {
	// scenario D: [0,2,...] -> "#"
	out := DecodeSymbols([]ChipClass{ChipLow, ChipViolationLow, ChipLow})
	assert.Equal(t, byte(TokenImpossible), out[0])
}

func TestDecodeSymbols_Ambiguous(t *testing.T) {
	// scenario D: [0,0,...] -> "*"
	out := DecodeSymbols([]ChipClass{ChipLow, ChipLow, ChipHigh})
	assert.Equal(t, byte(TokenAmbiguous), out[0])
}

func TestDecodeSymbols_TerminatesAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 64).Draw(t, "n")
		dbuf := make([]ChipClass, n)
		for i := range dbuf {
			dbuf[i] = ChipClass(rapid.IntRange(0, 7).Draw(t, "chip"))
		}
		out := DecodeSymbols(dbuf)
		assert.LessOrEqual(t, len(out), 4*n+1)
	})
}
