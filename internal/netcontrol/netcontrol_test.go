package netcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdrmodem/omnipod-modem/internal/modem"
)

type nopDisplay struct{}

func (nopDisplay) DisplayData(string)   {}
func (nopDisplay) DisplayStatus(string) {}

// TestServer_RejectsSetSecretWhileNonIdle exercises scenario G: the
// networked surface rejects SET_SECRET/SET_SEQNO while non-IDLE exactly
// like the direct ControlSurface methods do, against the real
// ControlSurface rather than a mock.
func TestServer_RejectsSetSecretWhileNonIdle(t *testing.T) {
	ctrl := modem.NewControlSurface(nopDisplay{})
	srv := &Server{ctrl: ctrl}

	assert.Equal(t, "OK", srv.dispatch("SET_SECRET 42"))
	assert.Equal(t, "OK", srv.dispatch("SET_SEQNO 7"))
	assert.Equal(t, "OK", srv.dispatch("START_STATUS"))

	assert.Equal(t, "ERR not idle", srv.dispatch("SET_SECRET 99"))
	assert.Equal(t, "ERR not idle", srv.dispatch("SET_SEQNO 1"))
	assert.Equal(t, "ERR transaction already in progress", srv.dispatch("START_STATUS"))
}

func TestServer_GetStateAndMonitor(t *testing.T) {
	ctrl := modem.NewControlSurface(nopDisplay{})
	srv := &Server{ctrl: ctrl}

	assert.Equal(t, "IDLE", srv.dispatch("STATE?"))
	assert.Equal(t, "false", srv.dispatch("MONITOR?"))

	srv.dispatch("MONITOR on")
	assert.Equal(t, "true", srv.dispatch("MONITOR?"))
}

func TestServer_UnknownCommand(t *testing.T) {
	ctrl := modem.NewControlSurface(nopDisplay{})
	srv := &Server{ctrl: ctrl}
	assert.Equal(t, "ERR unknown command: frobnicate", srv.dispatch("frobnicate"))
}
