package modem

// Block is the host-facing scheduler adapter: it owns the tick loop
// that drives RxPipeline and TxSynthesizer from a host's I/Q sample
// batches, applying the dataflow-side half of the ProtocolEngine FSM
// along the way. It is the only type that reads ControlSurface's
// snapshot and the only dataflow-side writer of State (besides
// ControlSurface.StartStatus, which runs on the control thread).
type Block struct {
	params  Params
	rx      *RxPipeline
	tx      *TxSynthesizer
	engine  *ProtocolEngine
	ctrl    *ControlSurface
	display Display

	txSampleNumber uint64

	// onStateChange, if set, is called once per tick with the state as
	// it stood at the end of the tick -- a read-only hook for
	// observers like a TX indicator LED. It must never mutate state
	// itself; it runs on the dataflow thread and must not block.
	onStateChange func(State)
}

// SetStateObserver installs a read-only callback invoked once per Tick
// with the resulting protocol state. It replaces any previously
// installed observer.
func (b *Block) SetStateObserver(f func(State)) {
	b.onStateChange = f
}

// NewBlock wires a Block from its four collaborators. display receives
// both decoded-payload and status lines.
func NewBlock(params Params, ctrl *ControlSurface, display Display) *Block {
	tx := NewTxSynthesizer(params)
	blk := &Block{
		params:  params,
		tx:      tx,
		engine:  NewProtocolEngine(params, display),
		ctrl:    ctrl,
		display: display,
	}
	blk.rx = NewRxPipeline(params, blk)
	return blk
}

// HistorySamples is the number of past samples the host must preserve
// across calls (2*AVG_LEN+1, per spec section 4.5).
func (b *Block) HistorySamples() int {
	return 2*b.params.AvgLen + 1
}

// MinInputSamples is the minimum number of input samples a call needs
// to make progress (2*AVG_LEN+2).
func (b *Block) MinInputSamples() int {
	return 2*b.params.AvgLen + 2
}

// DecodeBurst implements BurstSink: it runs the symbol decoder over the
// completed chip burst and reports the decoded line, including the
// inter-burst interval in milliseconds.
func (b *Block) DecodeBurst(burst *ChipBurst) {
	if burst.Len() == 0 {
		return
	}
	annotated := DecodeSymbols(burst.Chips)
	intervalMS := 1000.0 * float64(burst.StartSample-burst.PrevStartSample) / b.params.SampleRate
	b.display.DisplayData(FormatBurstLine(annotated, intervalMS))
}

// Tick advances the pipeline over one host-supplied batch. input must
// include HistorySamples() samples of context ahead of the new data the
// host wants processed, exactly as the host's history contract
// guarantees. Tick returns the number of input samples consumed and
// output samples produced, matching the host's consume/produce
// bookkeeping contract.
func (b *Block) Tick(input []Sample, output []Sample) (consumed, produced int) {
	n := b.params.AvgLen
	if !b.rx.Primed() {
		if len(input) < 2*n+1 {
			return 0, 0
		}
		b.rx.Prime(input[:2*n+1])
		b.txSampleNumber = 0
	}

	// one snapshot per call, not per sample (spec section 4.5 step 1)
	snap := b.ctrl.Snapshot()

	w := 0
	r := 0
	for ; r+2*n+1 < len(input); r++ {
		cur := input[r+n+1].Magnitude()
		ahead := input[r+2*n+1].Magnitude()
		leaving := input[r].Magnitude()

		if snap.State != StateIdle || snap.Monitor {
			b.rx.Step(cur, ahead, leaving)
		} else {
			b.rx.AdvanceClock(cur, ahead, leaving)
		}

		if snap.State != StateIdle {
			if snap.State == StateStatus {
				secret, _ := b.ctrl.secretSeqno()
				if b.ctrl.transitionDataflow(StateStatus, StateStatusOnSent) {
					b.engine.EnterStatus(secret, b.tx)
					snap.State = StateStatusOnSent
				}
			}

			if b.tx.TxAt <= b.txSampleNumber && w < len(output) {
				drained, txState := b.tx.Drain(output[w:], b.rx.RxSampleNumber())
				w += drained
				b.txSampleNumber += uint64(drained)
				if txState == TxFinished {
					if b.ctrl.transitionDataflow(StateStatusOnSent, StateIdle) {
						b.display.DisplayData("Retransmit finished")
						b.display.DisplayStatus("Exceeded retries")
					}
					snap.State = StateIdle
				}
			}
		}
	}

	for b.txSampleNumber < b.rx.RxSampleNumber() && w < len(output) {
		output[w] = Sample(complex(0, 0))
		w++
		b.txSampleNumber++
	}

	if b.onStateChange != nil {
		b.onStateChange(b.ctrl.GetState())
	}

	return r, w
}
