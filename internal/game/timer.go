package game

import (
	"context"
	"time"
)

// DefaultTurnSeconds is the phase-wide deadline shared by every open
// session in a phase. There is no per-participant timeout.
const DefaultTurnSeconds = 90

// Clock is the time source used for phase timers and narrative pauses.
type Clock interface {
	// Wait suspends for d or until ctx is cancelled.
	Wait(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TurnTimer drives the countdown of a phase. Each second it broadcasts
// the remaining time to presenters (seconds, seconds-1, ..., 1), waits
// one second, then returns early if the session already ended. When
// the full duration elapses it force-ends the session, guaranteeing
// forward progress even if some participants never respond.
func (c *Core) TurnTimer(ctx context.Context, s *Session, seconds int) error {
	for i := 0; i < seconds; i++ {
		c.EmitTimer(seconds - i)
		if err := c.clock.Wait(ctx, time.Second); err != nil {
			return err
		}
		if s.Ended() {
			return nil
		}
	}
	s.End()
	c.log.Info().Str("session", s.ID).Int("seconds", seconds).Msg("session timed out")
	return nil
}
