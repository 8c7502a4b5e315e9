package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// recordingComm captures every payload sent to every participant.
type recordingComm struct {
	mu       sync.Mutex
	payloads map[string][]any
}

func newRecordingComm() *recordingComm {
	return &recordingComm{payloads: make(map[string][]any)}
}

func (c *recordingComm) Send(id string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads[id] = append(c.payloads[id], payload)
}

func (c *recordingComm) sent(id string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.payloads[id]...)
}

func (c *recordingComm) presenterPayloads(id string, t PresenterPayloadType) []PresenterPayload {
	var out []PresenterPayload
	for _, payload := range c.sent(id) {
		if pp, ok := payload.(PresenterPayload); ok && pp.Type == t {
			out = append(out, pp)
		}
	}
	return out
}

// instantClock never sleeps, so timed phases resolve immediately.
type instantClock struct{}

func (instantClock) Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func newTestCore() (*Core, *recordingComm) {
	comm := newRecordingComm()
	c := NewCore(GameTypeTKO, comm, zerolog.Nop())
	c.SetClock(instantClock{})
	return c, comm
}
