package modem

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestControlSurface_ConcurrentSecretAndStartStatus exercises scenario
// F: once start_status() has transitioned the surface to STATUS,
// a racing set_secret must be rejected, so the eventually-synthesized
// packet always encodes the secret that was set before the race.
func TestControlSurface_ConcurrentSecretAndStartStatus(t *testing.T) {
	ctrl := NewControlSurface(NopDisplay{})
	ctrl.SetSecret(42)
	ctrl.SetSeqno(1)

	var wg sync.WaitGroup
	var applied bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		ctrl.StartStatus()
	}()
	go func() {
		defer wg.Done()
		applied = ctrl.SetSecret(99)
	}()
	wg.Wait()

	// secret and seqno were both set while IDLE, so start_status
	// succeeds in either interleaving.
	assert.Equal(t, StateStatus, ctrl.GetState())
	secret, _ := ctrl.secretSeqno()

	if !applied {
		// start_status won the race to IDLE; set_secret(99) must have
		// been rejected once the state left IDLE.
		assert.Equal(t, uint32(42), secret)
	} else {
		// set_secret(99) ran first while still IDLE, then start_status
		// transitioned afterward; the secret is the value it set.
		assert.Equal(t, uint32(99), secret)
	}
}

func TestControlSurface_SetSecretRejectedOutsideIdle(t *testing.T) {
	ctrl := NewControlSurface(NopDisplay{})
	ctrl.SetSecret(1)
	ctrl.SetSeqno(1)
	assert.True(t, ctrl.StartStatus())
	assert.False(t, ctrl.SetSecret(7), "set_secret must be ignored once non-IDLE")
}

func TestControlSurface_StartStatusRejectsReentry(t *testing.T) {
	ctrl := NewControlSurface(NopDisplay{})
	ctrl.SetSecret(1)
	ctrl.SetSeqno(1)
	assert.True(t, ctrl.StartStatus())
	assert.False(t, ctrl.StartStatus(), "start_status while non-IDLE must be refused")
}

func TestControlSurface_StartStatusRequiresSecretAndSeqno(t *testing.T) {
	ctrl := NewControlSurface(NopDisplay{})
	assert.False(t, ctrl.StartStatus(), "start_status must be refused before secret/seqno are ever set")
	ctrl.SetSecret(1)
	assert.False(t, ctrl.StartStatus(), "start_status must be refused with only secret set")
	ctrl.SetSeqno(1)
	assert.True(t, ctrl.StartStatus(), "start_status must succeed once both secret and seqno are set")
}
