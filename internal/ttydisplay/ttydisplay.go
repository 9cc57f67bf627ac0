// Package ttydisplay implements modem.Display over a raw terminal, and
// additionally mirrors every line to a pty so a second process (a
// logger, a second operator terminal via `screen`) can tap the same
// stream without fighting the primary terminal's raw mode.
package ttydisplay

import (
	"fmt"
	"io"
	"os"

	"github.com/creack/pty"
	"github.com/pkg/term"
)

// Adapter implements modem.Display: it writes decoded-payload lines and
// status lines to a raw-mode terminal, and mirrors everything written to
// a pty slave other processes can open and read.
type Adapter struct {
	tty    *term.Term
	ptmx   *os.File
	pts    *os.File
	mirror io.Writer
}

// Open puts ttyPath (e.g. "/dev/tty") into raw mode and allocates a
// pty pair to mirror output to. Call Close to restore the terminal.
func Open(ttyPath string) (*Adapter, error) {
	tty, err := term.Open(ttyPath, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("ttydisplay: open %s: %w", ttyPath, err)
	}

	ptmx, pts, err := pty.Open()
	if err != nil {
		tty.Restore()
		tty.Close()
		return nil, fmt.Errorf("ttydisplay: open pty: %w", err)
	}

	return &Adapter{
		tty:    tty,
		ptmx:   ptmx,
		pts:    pts,
		mirror: io.MultiWriter(tty, ptmx),
	}, nil
}

// PtsName is the path of the pty slave other processes can open to
// follow the same output (e.g. "/dev/pts/7").
func (a *Adapter) PtsName() string {
	return a.pts.Name()
}

// DisplayData implements modem.Display.
func (a *Adapter) DisplayData(line string) {
	fmt.Fprintln(a.mirror, line)
}

// DisplayStatus implements modem.Display.
func (a *Adapter) DisplayStatus(line string) {
	fmt.Fprintln(a.mirror, "* "+line)
}

// Close restores the terminal and releases the pty pair.
func (a *Adapter) Close() error {
	a.ptmx.Close()
	a.pts.Close()
	if err := a.tty.Restore(); err != nil {
		a.tty.Close()
		return err
	}
	return a.tty.Close()
}
