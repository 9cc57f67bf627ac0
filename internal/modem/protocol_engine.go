package modem

import "fmt"

// State is one of the four protocol states from spec section 2/9. ON is
// carried for completeness (the glossary names it) but nothing ever
// transitions into it: the original's ST_ON branch is assigned nowhere
// and is treated as dead per the design notes -- do not build logic
// around it.
type State int

const (
	StateIdle State = iota
	StateOn
	StateStatus
	StateStatusOnSent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateOn:
		return "ON"
	case StateStatus:
		return "STATUS"
	case StateStatusOnSent:
		return "STATUS_ON_SENT"
	default:
		return "UNKNOWN"
	}
}

const (
	tokenStart = "1110101011"
	tokenAB    = "10101011"
	tokenThree = "0011"
	tokenSeven = "0111"
	tokenB     = "1011"
	tokenF     = "1111"

	statusOnOuterFrames = 10
	statusOnInnerRepeat = 17
)

// ProtocolEngine builds the status-on wire packet and hands it to the
// TxSynthesizer when STATUS_ON_SENT is entered. IDLE -> STATUS is driven
// directly by ControlSurface.StartStatus under the control mutex; the
// dataflow-side transitions (STATUS -> STATUS_ON_SENT -> IDLE) are
// applied by Block through the same surface, so state stays
// single-writer-at-a-time regardless of which thread reaches it.
type ProtocolEngine struct {
	params  Params
	display Display
}

// NewProtocolEngine constructs an engine for the given sampling
// parameters. display receives status lines; it must not be nil.
func NewProtocolEngine(p Params, display Display) *ProtocolEngine {
	return &ProtocolEngine{params: p, display: display}
}

// buildStatusOn assembles the status-on packet body for secret, laid
// out as bytes b[0..3] with b[0] most significant. The byte consumption
// order per inner repeat is b[1], b[0], b[3], b[2] -- this is not a
// typo, it mirrors the wire layout the receiving PDA expects. Output is
// truncated at StatusOnPacketCap bytes; the nominal composition
// (10 outer frames x 17 inner repeats x 84 chars, plus START and
// silence) is far larger, so truncation always occurs. This is
// preserved rather than "fixed" per the design notes.
func (e *ProtocolEngine) buildStatusOn(secret uint32) AnnotatedPacket {
	b := [4]byte{
		byte(secret >> 24),
		byte(secret >> 16),
		byte(secret >> 8),
		byte(secret),
	}

	// This mirrors the original's (250.0 * (SPS/1000.0)) / (2*SPS) literally,
	// SPS over SR despite the name "inter-frame silence" suggesting a
	// sample-rate-scaled duration -- preserved per the wire-compatibility
	// constraint, not "fixed".
	silenceRepeats := int((float64(InterFrameSilenceMS) * float64(e.params.SPS) / 1000.0) / float64(2*e.params.SPS))

	out := make(AnnotatedPacket, 0, StatusOnPacketCap)
	for f := 0; f < statusOnOuterFrames; f++ {
		out = appendASCII(out, tokenStart)
		for r := 0; r < statusOnInnerRepeat; r++ {
			out = appendField(out, b[1], tokenThree)
			out = appendField(out, b[0], tokenSeven)
			out = appendField(out, b[3], tokenB)
			out = appendField(out, b[2], tokenF)
		}
		for s := 0; s < silenceRepeats; s++ {
			out = out.Append(TokenSilence)
		}
	}
	return out
}

// appendField appends "v" + bits(val) + marker + AB, the four-field
// repeating unit of the status-on frame.
func appendField(out AnnotatedPacket, val byte, marker string) AnnotatedPacket {
	out = out.Append(TokenViolLow)
	bits := bits8(val)
	out = out.Append(bits[:]...)
	out = appendASCII(out, marker)
	out = appendASCII(out, tokenAB)
	return out
}

func appendASCII(out AnnotatedPacket, s string) AnnotatedPacket {
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			out = out.Append(TokenBitHigh)
		} else {
			out = out.Append(TokenBitLow)
		}
	}
	return out
}

// EnterStatus builds and synthesizes the status-on packet for secret and
// schedules it for immediate transmission, reporting the truncation at
// StatusOnPacketCap as a status-line warning (callers only invoke this
// once the dataflow transition into STATUS_ON_SENT has been accepted by
// the control surface).
func (e *ProtocolEngine) EnterStatus(secret uint32, tx *TxSynthesizer) {
	packet := e.buildStatusOn(secret)
	if len(packet) == StatusOnPacketCap {
		e.display.DisplayStatus(fmt.Sprintf("Warning: status-on packet truncated at %d bytes", StatusOnPacketCap))
	}
	tx.Synthesize(packet)
}
