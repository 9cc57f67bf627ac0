package modem

// BurstSink receives a completed chip burst for decoding. RxPipeline
// does not decode bursts itself; it hands each completed burst to the
// sink, which is called synchronously from Step on the dataflow thread.
type BurstSink interface {
	DecodeBurst(burst *ChipBurst)
}

// RxPipeline is the stateful per-sample receive pipeline: dual running
// averages, a sign/jitter edge detector, the symbol-width classifier
// ("slicer"), and the burst buffer. It is not safe for concurrent use --
// it is owned exclusively by the dataflow thread (spec section 5).
type RxPipeline struct {
	params Params
	sink   BurstSink

	avgA float64 // sum of magnitudes in the half-window following the current sample
	avgB float64 // sum of magnitudes in the half-window preceding the current sample

	sign        int  // +1 or -1: side of the average the last committed run was on
	count       uint64
	changeCount uint64

	rxSampleNumber uint64

	// prevCenter is |x[center]| from the previous Step call -- it is
	// exactly the sample that enters avgB's window on the next call,
	// since avgB's window trails one sample behind avgA's.
	prevCenter float64

	burst *ChipBurst

	primed bool
}

// NewRxPipeline constructs a pipeline for the given sampling parameters.
// sink receives completed bursts; it must not be nil.
func NewRxPipeline(p Params, sink BurstSink) *RxPipeline {
	return &RxPipeline{
		params: p,
		sink:   sink,
		sign:   -1,
		burst:  NewChipBurst(),
	}
}

// Prime pre-loads the running averages from the first 2*AvgLen+1 samples
// of input and sets rxSampleNumber to AvgLen, per spec section 4.2.
// window must have at least 2*AvgLen+1 samples; callers typically pass
// the host's initial history buffer.
func (p *RxPipeline) Prime(window []Sample) {
	n := p.params.AvgLen
	var a, b float64
	for i := 0; i < n; i++ {
		a += window[n+1+i].Magnitude()
		b += window[i].Magnitude()
	}
	p.avgA = a
	p.avgB = b
	p.rxSampleNumber = uint64(n)
	// The first Step call (r=0) needs the sample entering avgB's window,
	// which is input[avg_len] -- exactly window[n].
	p.prevCenter = window[n].Magnitude()
	p.primed = true
}

// Primed reports whether Prime has been called.
func (p *RxPipeline) Primed() bool {
	return p.primed
}

// RxSampleNumber reports the current RX sample clock.
func (p *RxPipeline) RxSampleNumber() uint64 {
	return p.rxSampleNumber
}

// advanceAverages performs the sample-clock and running-average update
// shared by Step and AdvanceClock.
func (p *RxPipeline) advanceAverages(cur, aheadForA, leavingForB float64) {
	p.rxSampleNumber++
	p.avgA = p.avgA - cur + aheadForA
	p.avgB = p.avgB - leavingForB + p.prevCenter
	p.prevCenter = cur
}

// AdvanceClock updates the sample clock and running averages without
// running the slicer, for ticks where the host is neither monitoring
// nor mid-transaction (spec section 4.5 step 2: "process the sample
// through the slicer" is conditional, but the averages and sample
// clock always move forward so TX scheduling and the next slice both
// stay aligned).
func (p *RxPipeline) AdvanceClock(cur, aheadForA, leavingForB float64) {
	p.advanceAverages(cur, aheadForA, leavingForB)
}

// Step advances the pipeline by one sample. cur is |x[r+AvgLen+1]| (the
// current center sample), aheadForA is |x[r+2*AvgLen+1]| (the sample
// entering avgA's window), and leavingForB is |x[r]| (the sample leaving
// avgB's window); r is the caller's (Block's) own slide index into its
// input batch plus history, exactly as spec section 4.5's tick loop
// describes. The sample entering avgB's window is tracked internally
// from the previous call's cur, since avgB's window trails avgA's by
// exactly one sample.
func (p *RxPipeline) Step(cur, aheadForA, leavingForB float64) {
	p.advanceAverages(cur, aheadForA, leavingForB)

	var avg float64
	if p.burst.Len() <= AvgN {
		avg = p.avgA / float64(p.params.AvgLen)
	} else {
		avg = p.avgB / float64(p.params.AvgLen)
	}

	// Timeout: force-decode whatever we have if we've gone too long
	// without a slice.
	if p.count > uint64(AvgN*p.params.SPS) {
		if p.burst.Len() > 0 {
			p.flush()
		}
	}

	below := cur < avg
	if below {
		if p.sign < 0 {
			p.count += p.changeCount + 1
			p.changeCount = 0
		} else {
			p.swapOrJitter(-1)
		}
	} else {
		if p.sign > 0 {
			p.count += p.changeCount + 1
			p.changeCount = 0
		} else {
			p.swapOrJitter(1)
		}
	}
}

// swapOrJitter implements the jitter-gated polarity flip: contrary
// samples accumulate in changeCount and only commit once changeCount
// reaches Jitter.
func (p *RxPipeline) swapOrJitter(newSign int) {
	if p.changeCount < uint64(p.params.Jitter) {
		p.changeCount++
		return
	}
	p.slice()
	p.sign = newSign
	p.count = p.changeCount + 1
	p.changeCount = 0
}

// slice classifies the just-completed run width in chip-periods and
// appends the resulting ChipClass(es) to the burst, per spec section 4.2.
func (p *RxPipeline) slice() {
	symbols := float64(p.count) / float64(p.params.SPS)
	signNonNeg := p.sign >= 0

	for k := 1; k < AvgN-1; k++ {
		fk := float64(k)
		if fk-SymbolErr >= symbols {
			break
		}
		if symbols <= fk+SymbolErr {
			p.markBurstStart()
			for j := 0; j < k; j++ {
				p.burst.Append(WholeSymbolClass(signNonNeg))
				if p.burst.Full() {
					p.flush()
				}
			}
			return
		}
	}

	for k := 0; k <= 2; k++ {
		fk := float64(k)
		if fk+0.5-SymbolErr >= symbols {
			break
		}
		if symbols <= fk+0.5+SymbolErr {
			p.markBurstStart()
			p.burst.Append(HalfSymbolClass(k, signNonNeg))
			if p.burst.Full() {
				p.flush()
			}
			return
		}
	}

	// No match: this width did not correspond to any valid symbol. If we
	// have pending data, this is the first place it went wrong, so
	// process what we have.
	if p.burst.Len() > 0 {
		p.flush()
	}
}

// markBurstStart records the RX sample at which the first chip of a new
// burst was sliced, only on the first chip of the burst.
func (p *RxPipeline) markBurstStart() {
	if p.burst.Len() != 0 {
		return
	}
	p.burst.PrevStartSample = p.burst.StartSample
	offset := p.count + uint64(p.params.Jitter) + 1 + 2*uint64(p.params.AvgLen)
	// Matches the original's unsigned 64-bit subtraction: wraps rather
	// than clamps if offset exceeds rxSampleNumber during startup.
	p.burst.StartSample = p.rxSampleNumber - offset
}

// flush hands the current burst to the sink and clears it for reuse.
func (p *RxPipeline) flush() {
	if p.burst.Len() == 0 {
		return
	}
	p.sink.DecodeBurst(p.burst)
	p.burst.Reset()
}
