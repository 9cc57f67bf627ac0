// Package modem implements the half-duplex SDR modem and protocol engine
// for the Omnipod PDA link: a dual moving-average slicer, a Manchester
// violation decoder, a symbol-alphabet transmit synthesizer, and the
// finite-state protocol engine that ties them together behind a
// thread-safe control surface.
//
// Ported from the GNU Radio "omnipod_pda" block. The host dataflow
// framework (scheduling, buffer allocation, signature negotiation) is
// not part of this package -- see internal/sdrhost for a minimal stand-in
// used by cmd/omnipod-modem.
package modem
