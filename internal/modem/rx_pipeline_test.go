package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	bursts [][]ChipClass
}

func (r *recordingSink) DecodeBurst(b *ChipBurst) {
	cp := make([]ChipClass, b.Len())
	copy(cp, b.Chips)
	r.bursts = append(r.bursts, cp)
}

// driveSamples reproduces the Block tick loop's windowed indexing
// (spec section 4.5) over a full sample array, so RxPipeline sees
// exactly the avgA/avgB updates a real host would feed it.
func driveSamples(p *RxPipeline, samples []Sample) {
	n := p.params.AvgLen
	p.Prime(samples[:2*n+1])
	for r := 0; r+2*n+1 < len(samples); r++ {
		cur := samples[r+n+1].Magnitude()
		ahead := samples[r+2*n+1].Magnitude()
		leaving := samples[r].Magnitude()
		p.Step(cur, ahead, leaving)
	}
}

func squareWave(amplitude float64, halfPeriod, n int) []Sample {
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		if (i/halfPeriod)%2 == 0 {
			out[i] = Sample(complex(amplitude, 0))
		} else {
			out[i] = Sample(complex(0, 0))
		}
	}
	return out
}

func TestRxPipeline_SquareWaveWholeSymbols(t *testing.T) {
	params := NewParams(40000) // SPS = 10, AvgLen = 80, Jitter = 2
	sink := &recordingSink{}
	p := NewRxPipeline(params, sink)

	// Lead in with enough low-level samples to prime, then 1000 samples
	// alternating 10-sample (1-chip) runs high/low, then a long low tail
	// to force the final partial burst through the timeout path.
	lead := make([]Sample, 2*params.AvgLen+1)
	body := squareWave(1000, 10, 1000)
	tail := make([]Sample, AvgN*params.SPS+params.AvgLen+10)

	all := append(append(lead, body...), tail...)
	driveSamples(p, all)

	assert.NotEmpty(t, sink.bursts, "expected at least one decoded burst")
	for _, burst := range sink.bursts {
		for _, c := range burst {
			assert.True(t, c == ChipLow || c == ChipHigh, "expected only whole-symbol chips, got %v", c)
		}
	}
}

// TestRxPipeline_JitterRejectsIsolatedSpikes establishes a steady
// polarity with a long constant-amplitude run, then drives isolated
// single-sample opposite-polarity spikes (each far shorter than
// Jitter*2 contiguous samples) and asserts the sign never flips, per
// spec invariant 3.
func TestRxPipeline_JitterRejectsIsolatedSpikes(t *testing.T) {
	params := NewParams(40000) // Jitter = 2
	sink := &recordingSink{}
	p := NewRxPipeline(params, sink)

	n := params.AvgLen
	lead := make([]Sample, 2*n+1)
	for i := range lead {
		lead[i] = Sample(complex(1000, 0))
	}
	warmup := make([]Sample, 4*n)
	for i := range warmup {
		warmup[i] = Sample(complex(1000, 0))
	}

	all := append(lead, warmup...)
	driveSamples(p, all)

	settled := p.sign
	assert.Equal(t, 1, settled, "a sustained positive run should settle sign to +1")

	// Continue driving: isolated single-sample dips to zero amid a
	// steady 1000-amplitude stream. Step directly (bypassing
	// driveSamples, which re-primes) using a hand-maintained window.
	window := append([]Sample{}, all...)
	for spike := 0; spike < 50; spike++ {
		window = append(window, Sample(complex(1000, 0)), Sample(complex(1000, 0)),
			Sample(complex(1000, 0)), Sample(complex(0, 0)), Sample(complex(1000, 0)))
	}

	for r := len(all) - 2*n - 1; r+2*n+1 < len(window); r++ {
		cur := window[r+n+1].Magnitude()
		ahead := window[r+2*n+1].Magnitude()
		leaving := window[r].Magnitude()
		p.Step(cur, ahead, leaving)
		assert.Equal(t, settled, p.sign, "isolated sub-jitter spikes must not flip sign")
	}
}
