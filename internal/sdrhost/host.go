// Package sdrhost is a reference implementation of the modem's host
// contract: it captures a stereo soundcard input as complex I/Q via
// portaudio, feeds it through a modem.Block tick loop, and plays the
// resulting TX stream out the output side of the same full-duplex
// stream. WatchHotplug reports udev sound-device events to a callback;
// Host itself does not reopen its stream after a USB replug.
package sdrhost

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/jochenvg/go-udev"

	"github.com/sdrmodem/omnipod-modem/internal/modem"
)

// Host owns the portaudio streams and drives modem.Block from them.
type Host struct {
	blk    *modem.Block
	stream *portaudio.Stream

	sampleRate float64
	history    []modem.Sample
}

// Open initializes portaudio and opens a full-duplex stereo stream at
// sampleRate, treating the left/right channels of each frame as the
// real/imaginary parts of one complex I/Q sample.
func Open(blk *modem.Block, sampleRate float64, framesPerBuffer int) (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("sdrhost: portaudio init: %w", err)
	}

	h := &Host{blk: blk, sampleRate: sampleRate}
	h.history = make([]modem.Sample, blk.HistorySamples())

	stream, err := portaudio.OpenDefaultStream(2, 2, sampleRate, framesPerBuffer,
		func(inBuf, outBuf []float32) {
			h.process(inBuf, outBuf)
		})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("sdrhost: open stream: %w", err)
	}
	h.stream = stream
	return h, nil
}

// process converts one interleaved stereo callback buffer to/from
// complex samples and drives one modem tick, prefixing the batch with
// the retained history window per the block's host contract.
func (h *Host) process(inBuf, outBuf []float32) {
	frames := len(inBuf) / 2
	batch := make([]modem.Sample, len(h.history)+frames)
	copy(batch, h.history)
	for i := 0; i < frames; i++ {
		batch[len(h.history)+i] = modem.Sample(complex(float64(inBuf[2*i]), float64(inBuf[2*i+1])))
	}

	out := make([]modem.Sample, frames)
	consumed, produced := h.blk.Tick(batch, out)

	for i := 0; i < len(outBuf)/2; i++ {
		var s modem.Sample
		if i < produced {
			s = out[i]
		}
		outBuf[2*i] = float32(real(complex128(s)))
		outBuf[2*i+1] = float32(imag(complex128(s)))
	}

	if consumed+len(h.history) <= len(batch) {
		copy(h.history, batch[consumed:consumed+len(h.history)])
	}
}

// Start begins streaming.
func (h *Host) Start() error {
	return h.stream.Start()
}

// Close stops the stream and releases portaudio.
func (h *Host) Close() error {
	if h.stream != nil {
		h.stream.Close()
	}
	return portaudio.Terminate()
}

// WatchHotplug blocks, dispatching onChange whenever a udev event for
// a device in the sound subsystem fires, until stop is closed. It is meant
// to run in its own goroutine so the caller can restart Open() after a
// dongle replug without polling.
func WatchHotplug(stop <-chan struct{}, onChange func(action, devPath string)) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		return fmt.Errorf("sdrhost: udev filter: %w", err)
	}

	ch, errCh, err := mon.DeviceChan(stop)
	if err != nil {
		return fmt.Errorf("sdrhost: udev monitor: %w", err)
	}

	for {
		select {
		case dev, ok := <-ch:
			if !ok {
				return nil
			}
			onChange(dev.Action(), dev.Devpath())
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("sdrhost: udev error: %w", err)
			}
		case <-stop:
			return nil
		}
	}
}
