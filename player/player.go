// Package player streams frame sequences onto a display target. At most
// one sequence plays at a time; starting another replaces it.
package player

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epi13/rgbmatrix-painter/screen"
	"github.com/epi13/rgbmatrix-painter/source"
)

// minDelay keeps a run with zero-length frames from spinning.
const minDelay = time.Millisecond

// Target receives composited frames.
type Target interface {
	Width() int
	Height() int
	Gamma() float64
	Commit(img *image.RGBA) error
}

type Options struct {
	Dither     bool
	Background color.Color
	Log        *logrus.Entry
}

type PlayOptions struct {
	// Loops is the number of passes over the sequence. 0 loops until
	// stopped or replaced.
	Loops int
}

// Status describes the current or most recent run.
type Status struct {
	Running bool        `json:"running"`
	RunID   string      `json:"run_id,omitempty"`
	Kind    source.Kind `json:"kind"`
	Frames  uint64      `json:"frames"`
	Passes  uint64      `json:"passes"`
}

type run struct {
	id     string
	gen    uint64
	seq    source.Sequence
	loops  int
	cancel context.CancelFunc
	log    *logrus.Entry
}

type Player struct {
	target Target
	opts   Options
	log    *logrus.Entry

	mu      sync.Mutex
	gen     uint64
	current *run
	status  Status

	pushMu sync.Mutex
	wg     sync.WaitGroup
}

func New(target Target, options ...Options) *Player {
	p := &Player{
		target: target,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opts := range options {
		p.opts = opts
		if opts.Log != nil {
			p.log = opts.Log
		}
	}
	if p.opts.Background == nil {
		p.opts.Background = color.Black
	}
	return p
}

// Start cancels any live run and begins playing seq. It returns as soon
// as the new run is scheduled, without waiting for the old one to exit.
func (p *Player) Start(seq source.Sequence, opts PlayOptions) (string, error) {
	if err := seq.Validate(); err != nil {
		return "", err
	}
	if opts.Loops < 0 {
		return "", &source.ValidationError{Field: "loops", Reason: "must not be negative"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		seq:    seq,
		loops:  opts.Loops,
		cancel: cancel,
	}
	r.log = p.log.WithFields(logrus.Fields{
		"run_id": r.id,
		"kind":   seq.Kind.String(),
	})

	p.mu.Lock()
	p.stopLocked()
	p.gen++
	r.gen = p.gen
	p.current = r
	p.status = Status{Running: true, RunID: r.id, Kind: seq.Kind}
	p.wg.Add(1)
	p.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"function": "Start",
		"frames":   seq.Len(),
		"duration": seq.Duration().String(),
		"loops":    opts.Loops,
	}).Info("Playback started")

	go p.play(ctx, r)
	return r.id, nil
}

// Stop cancels the live run. It reports whether there was one; stopping
// an idle player changes nothing.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() bool {
	if p.current == nil {
		return false
	}
	r := p.current
	r.cancel()
	p.gen++
	p.current = nil
	p.status.Running = false

	r.log.WithField("function", "Stop").Info("Playback stopped")
	return true
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Wait blocks until every run goroutine, stale or live, has exited.
func (p *Player) Wait() {
	p.wg.Wait()
}

func (p *Player) play(ctx context.Context, r *run) {
	defer p.wg.Done()
	defer r.cancel()

	for pass := 0; r.loops == 0 || pass < r.loops; pass++ {
		for i, f := range r.seq.Frames {
			if ctx.Err() != nil {
				return
			}

			img, err := screen.ToPanelImage(f.Image, p.target.Width(), p.target.Height(),
				p.target.Gamma(), p.opts.Dither, screen.Options{Background: p.opts.Background})
			if err != nil {
				r.log.WithFields(logrus.Fields{
					"function": "play",
					"frame":    i,
					"error":    err.Error(),
				}).Warn("Frame conversion failed, ending playback")
				p.finish(r)
				return
			}

			if !p.commit(r, img) {
				return
			}

			if !sleep(ctx, max(f.Delay, minDelay)) {
				return
			}
		}

		p.mu.Lock()
		if r.gen == p.gen {
			p.status.Passes++
		}
		p.mu.Unlock()
	}

	r.log.WithField("function", "play").Info("Playback finished")
	p.finish(r)
}

// commit pushes img only while r is still the live run. Pushes are
// serialised on pushMu, so nothing from a replaced run lands after its
// successor's first frame. The push runs outside mu; a frame already in
// flight when Stop is called may land after Stop returns.
func (p *Player) commit(r *run, img *image.RGBA) bool {
	p.pushMu.Lock()
	defer p.pushMu.Unlock()

	if !p.live(r) {
		return false
	}
	if err := p.target.Commit(img); err != nil {
		r.log.WithFields(logrus.Fields{
			"function": "commit",
			"error":    err.Error(),
		}).Warn("Commit failed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r.gen == p.gen {
		p.status.Frames++
	}
	return true
}

func (p *Player) live(r *run) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.gen == p.gen
}

func (p *Player) finish(r *run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.gen != p.gen {
		return
	}
	p.current = nil
	p.status.Running = false
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
