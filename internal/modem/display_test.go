package modem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBurstLine_PlainBits(t *testing.T) {
	line := FormatBurstLine(AnnotatedPacket("00000001"), 12.5)
	lines := strings.SplitN(line, "\n", 2)
	assert.Contains(t, lines[0], "12.5:")
	assert.Contains(t, lines[0], "01")
}

func TestFormatBurstLine_NonBitFlushesPartialByte(t *testing.T) {
	line := FormatBurstLine(AnnotatedPacket("101v1"), 0.0)
	lines := strings.SplitN(line, "\n", 2)
	// "101" flushed right-padded to "10100000" = 0xa0 once 'v' interrupts it.
	assert.Contains(t, lines[0], "a0")
	assert.Contains(t, lines[0], "v")
}
