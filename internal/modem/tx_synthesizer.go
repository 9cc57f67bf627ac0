package modem

import "math"

// palette holds the precomputed waveforms TxSynthesizer concatenates to
// build a transmit buffer. Each entry is keyed by the AnnotatedPacket
// token it renders; sized once at construction from SPS, so synthesize
// never touches the sample-rate math again.
type palette struct {
	zero []Sample // logic-zero chip pair: high half, low half
	one  []Sample // logic-one chip pair: low half, high half
	hv   []Sample // high-side half-period violation
	lv   []Sample // low-side half-period violation
}

func newPalette(sps int) palette {
	hi := Sample(complex(float64(MaxSampleMagnitude), 0))
	lo := Sample(complex(0, 0))

	zero := make([]Sample, 2*sps)
	one := make([]Sample, 2*sps)
	for i := 0; i < sps; i++ {
		zero[i] = hi
		zero[sps+i] = lo
		one[i] = lo
		one[sps+i] = hi
	}

	half := sps / 2
	hv := make([]Sample, half)
	lv := make([]Sample, half)
	for i := range hv {
		hv[i] = hi
		lv[i] = lo
	}

	return palette{zero: zero, one: one, hv: hv, lv: lv}
}

// TxState is the drain outcome reported back to ProtocolEngine.
type TxState int

const (
	// TxPending means samples remain (or a retransmit was rescheduled).
	TxPending TxState = iota
	// TxFinished means the buffer is exhausted and retransmits are
	// exhausted too; the buffer has been freed and TxAt set to NeverScheduled.
	TxFinished
)

// TxSynthesizer renders an AnnotatedPacket into a sample buffer and
// replays it on a retransmit schedule. Like RxPipeline, it is owned
// exclusively by the dataflow thread.
type TxSynthesizer struct {
	params Params
	pal    palette

	buf    []Sample
	cursor int

	// TxAt is the rx_sample_number at or after which drain should be
	// invoked; NeverScheduled means nothing is pending.
	TxAt uint64

	retransmitNum int
}

// NewTxSynthesizer builds a synthesizer with its palette precomputed for p.
func NewTxSynthesizer(p Params) *TxSynthesizer {
	return &TxSynthesizer{
		params: p,
		pal:    newPalette(p.SPS),
		TxAt:   NeverScheduled,
	}
}

// Pending reports whether a buffer is currently loaded (awaiting its
// scheduled time or mid-drain).
func (t *TxSynthesizer) Pending() bool {
	return t.buf != nil
}

// Synthesize renders annotated into a fresh sample buffer, replacing any
// buffer already pending, and schedules it for immediate transmission.
// Unknown tokens (anything outside 0/1/^/v/S) are skipped without being
// logged -- the hot path never aborts synthesis over one bad character.
func (t *TxSynthesizer) Synthesize(annotated AnnotatedPacket) {
	t.buf = t.buf[:0]
	if t.buf == nil {
		t.buf = make([]Sample, 0, len(annotated)*2*t.params.SPS)
	}

	for _, b := range annotated {
		switch Token(b) {
		case TokenBitLow:
			t.buf = append(t.buf, t.pal.zero...)
		case TokenBitHigh:
			t.buf = append(t.buf, t.pal.one...)
		case TokenViolHigh:
			t.buf = append(t.buf, t.pal.hv...)
		case TokenViolLow:
			t.buf = append(t.buf, t.pal.lv...)
		case TokenSilence:
			t.buf = append(t.buf, make([]Sample, 2*t.params.SPS)...)
		default:
			// cannot transmit symbol: dropped; no log line is written.
		}
	}

	t.cursor = 0
	t.retransmitNum = 0
	t.TxAt = 0
}

// Drain copies up to len(out) pending samples into out, returning how
// many were written and the resulting TxState. Once the buffer empties,
// it either reschedules a retransmit RetransmitDelayMS out, or -- after
// RetransmitMax complete drains -- frees the buffer and reports
// TxFinished. rxSampleNumber is the current RX sample clock, used to
// compute the retransmit schedule.
func (t *TxSynthesizer) Drain(out []Sample, rxSampleNumber uint64) (produced int, state TxState) {
	if t.buf == nil {
		return 0, TxFinished
	}

	n := 0
	for n < len(out) && t.cursor < len(t.buf) {
		out[n] = t.buf[t.cursor]
		t.cursor++
		n++
	}

	if t.cursor >= len(t.buf) {
		t.retransmitNum++
		if t.retransmitNum < RetransmitMax {
			t.TxAt = rxSampleNumber + uint64(math.Round(float64(RetransmitDelayMS)*t.params.SampleRate/1000.0))
			t.cursor = 0
			return n, TxPending
		}
		t.buf = nil
		t.cursor = 0
		t.TxAt = NeverScheduled
		t.retransmitNum = 0
		return n, TxFinished
	}

	return n, TxPending
}
