package modem

import "math"

// Wire-compatibility constants. Changing any of these changes what the
// demodulator will lock onto, so they are not exposed as config knobs.
const (
	// SymbolRate is the deduced chip rate in Hz. The bit rate is half this
	// since every Manchester bit is two chips.
	SymbolRate = 4000

	// AvgN is the number of chips averaged over by each half-window of the
	// slicer.
	AvgN = 8

	// SymbolErr is the fractional tolerance applied when classifying a run
	// of samples against an integer or half-integer symbol width.
	SymbolErr = 0.30

	// RetransmitMax bounds how many times TxSynthesizer will replay a
	// scheduled burst before giving up.
	RetransmitMax = 10

	// InterFrameSilenceMS is the inter-frame silence figure, in
	// milliseconds, fed into the status-on builder's silence count. That
	// count works out to floor(0.125) = 0 "S" tokens for any SPS (see
	// ProtocolEngine.buildStatusOn), so no silence is appended.
	InterFrameSilenceMS = 250

	// RetransmitDelayMS is how long TxSynthesizer waits, in milliseconds,
	// before replaying an exhausted buffer.
	RetransmitDelayMS = 250

	// StatusOnPacketCap is the byte cap the status-on packet builder
	// truncates to. It is deliberately smaller than the nominal
	// composition (see ProtocolEngine.buildStatusOn) -- truncation is
	// preserved, not "fixed".
	StatusOnPacketCap = 1024
)

// NeverScheduled is the sentinel TxSynthesizer.TxAt value meaning "no
// transmission is scheduled".
const NeverScheduled uint64 = math.MaxUint64

// MaxSampleMagnitude is the TX palette's full-scale sample magnitude,
// chosen to match the maximum magnitude of a signed 16-bit sample so the
// synthesized waveform is compatible with 16-bit I/Q sinks.
const MaxSampleMagnitude = 32767

// Params holds the derived control parameters for a given sample rate.
// SPS, AvgLen and Jitter all scale with SampleRate; everything else in
// this file is a wire constant.
type Params struct {
	SampleRate float64 // Hz

	SPS    int // samples per chip = round(SampleRate / SymbolRate)
	AvgLen int // AvgN * SPS
	Jitter int // SPS / 4
}

// NewParams derives the sampling-dependent control parameters for sr Hz.
func NewParams(sr float64) Params {
	sps := int(math.Round(sr / SymbolRate))
	if sps < 1 {
		sps = 1
	}
	return Params{
		SampleRate: sr,
		SPS:        sps,
		AvgLen:     AvgN * sps,
		Jitter:     sps / 4,
	}
}
