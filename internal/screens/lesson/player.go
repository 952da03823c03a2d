package lesson

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// tickInterval is both the real tick period and the playback step.
const tickInterval = time.Second

// seekStep is how far ctrl+f / ctrl+b move the playhead.
const seekStep = 10.0

// player simulates the lesson video in the terminal. Only the screen
// goroutine touches it.
type player struct {
	duration float64
	position float64
	playing  bool
	ended    bool
	gen      uint64 // invalidates tick chains from earlier plays
}

func newPlayer(duration float64) player {
	return player{duration: duration}
}

// play starts playback and returns the first tick. It returns nil if the
// player is already running.
func (p *player) play() tea.Cmd {
	if p.playing {
		return nil
	}
	if p.ended {
		p.ended = false
		p.position = 0
	}
	p.playing = true
	p.gen++
	return p.tick()
}

func (p *player) pause() {
	p.playing = false
	p.gen++
}

func (p *player) seek(pos float64) {
	p.position = clamp(pos, 0, p.duration)
	if p.position < p.duration {
		p.ended = false
	}
}

// advance moves the playhead one step and reports whether it reached the end.
func (p *player) advance() bool {
	p.position = clamp(p.position+tickInterval.Seconds(), 0, p.duration)
	if p.duration > 0 && p.position >= p.duration {
		p.playing = false
		p.ended = true
		return true
	}
	return false
}

func (p *player) tick() tea.Cmd {
	gen := p.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return playerTickMsg{Gen: gen}
	})
}

func (p *player) fraction() float64 {
	if p.duration <= 0 {
		return 0
	}
	return p.position / p.duration
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
