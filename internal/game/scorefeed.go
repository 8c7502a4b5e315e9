package game

import "sync"

// ScoreFeed forwards granular score-added notices to the presenter.
// Pausing buffers notices so "+N points" popups don't leak before a
// reveal; Resume flushes the buffer in FIFO order.
type ScoreFeed struct {
	notify func(ScoreNotice)

	mu     sync.Mutex
	paused bool
	queue  []ScoreNotice
}

func NewScoreFeed(notify func(ScoreNotice)) *ScoreFeed {
	return &ScoreFeed{notify: notify}
}

// Publish forwards the notice immediately, or buffers it while paused.
func (f *ScoreFeed) Publish(n ScoreNotice) {
	f.mu.Lock()
	if f.paused {
		f.queue = append(f.queue, n)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.notify(n)
}

func (f *ScoreFeed) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

// Resume flushes buffered notices in arrival order and resumes
// immediate forwarding.
func (f *ScoreFeed) Resume() {
	f.mu.Lock()
	queued := f.queue
	f.queue = nil
	f.paused = false
	f.mu.Unlock()
	for _, n := range queued {
		f.notify(n)
	}
}
