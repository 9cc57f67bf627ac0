package modem

// Token is one character of an AnnotatedPacket. The underlying byte is
// exactly the wire-compatible ASCII encoding from spec section 3/6; Token
// only exists so SymbolDecoder and TxSynthesizer dispatch on named
// constants instead of bare character literals.
type Token byte

const (
	TokenBitLow      Token = '0'
	TokenBitHigh     Token = '1'
	TokenViolLow     Token = 'v'
	TokenViolHigh    Token = '^'
	TokenAmbiguous   Token = '*'
	TokenImpossible  Token = '#'
	TokenUnknown     Token = 'X'
	TokenSilence     Token = 'S' // transmit-only; never produced by the decoder
)

// AnnotatedPacket is the ASCII byte string over {0,1,v,^,*,#,X,S}
// produced by SymbolDecoder (never containing 'S') or consumed by
// TxSynthesizer (the only caller that emits 'S').
type AnnotatedPacket []byte

// Append adds a token, returning the new packet. Mirrors do_put's
// overflow behaviour: appends beyond cap silently drop the token.
func (p AnnotatedPacket) Append(toks ...Token) AnnotatedPacket {
	for _, t := range toks {
		if len(p) == cap(p) {
			return p
		}
		p = append(p, byte(t))
	}
	return p
}

// String renders the packet for logging.
func (p AnnotatedPacket) String() string {
	return string(p)
}

// bits8 is the 8-bit big-endian ASCII expansion of a byte, e.g.
// bits8(0x02) == "00000010". Used by ProtocolEngine's packet builder.
func bits8(b byte) [8]Token {
	var out [8]Token
	for i := 0; i < 8; i++ {
		bit := (b >> (7 - i)) & 1
		if bit == 1 {
			out[i] = TokenBitHigh
		} else {
			out[i] = TokenBitLow
		}
	}
	return out
}
