package modem

import "math"

// Sample is a complex baseband I/Q value. Only its magnitude
// participates in demodulation; TxSynthesizer only ever emits the
// two points {0, MaxSampleMagnitude} on the real axis, matching the
// original gr_complex(SHRT_MAX, 0) / gr_complex(0, 0) palette.
type Sample complex128

// Magnitude returns |s|, the only thing RxPipeline looks at.
func (s Sample) Magnitude() float64 {
	c := complex128(s)
	return math.Hypot(real(c), imag(c))
}
