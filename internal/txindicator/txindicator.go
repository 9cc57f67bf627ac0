// Package txindicator drives a GPIO line high while the modem is
// actively transmitting, for a panel LED or an external PTT relay.
package txindicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sdrmodem/omnipod-modem/internal/modem"
)

// Indicator wraps a single GPIO output line.
type Indicator struct {
	line *gpiocdev.Line
}

// Open requests offset on chip (e.g. "gpiochip0") as an output line,
// initially low.
func Open(chip string, offset int) (*Indicator, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("txindicator: request %s:%d: %w", chip, offset, err)
	}
	return &Indicator{line: line}, nil
}

// Set drives the line high (transmitting) or low (idle).
func (i *Indicator) Set(transmitting bool) error {
	v := 0
	if transmitting {
		v = 1
	}
	return i.line.SetValue(v)
}

// Close releases the GPIO line, leaving it low.
func (i *Indicator) Close() error {
	i.line.SetValue(0)
	return i.line.Close()
}

// Observe returns a callback suitable for Block.SetStateObserver: it
// drives the line high for STATUS and STATUS_ON_SENT (the states in
// which a burst is being built or is on the wire) and low otherwise.
// Set errors are swallowed -- a stuck LED is not worth failing the
// dataflow thread over.
func (i *Indicator) Observe() func(modem.State) {
	return func(s modem.State) {
		_ = i.Set(s == modem.StateStatus || s == modem.StateStatusOnSent)
	}
}
