package player

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi13/rgbmatrix-painter/source"
)

var (
	red   = color.RGBA{0xff, 0, 0, 0xff}
	green = color.RGBA{0, 0xff, 0, 0xff}
	blue  = color.RGBA{0, 0, 0xff, 0xff}
)

type fakeTarget struct {
	mu      sync.Mutex
	commits []color.RGBA
	err     error
}

func (t *fakeTarget) Width() int     { return 4 }
func (t *fakeTarget) Height() int    { return 4 }
func (t *fakeTarget) Gamma() float64 { return 1.0 }
func (t *fakeTarget) Commit(img *image.RGBA) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commits = append(t.commits, img.RGBAAt(0, 0))
	return t.err
}

func (t *fakeTarget) snapshot() []color.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]color.RGBA(nil), t.commits...)
}

func (t *fakeTarget) count(c color.RGBA) (n int) {
	for _, got := range t.snapshot() {
		if got == c {
			n++
		}
	}
	return
}

func frame(c color.RGBA, delay time.Duration) source.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return source.Frame{Image: img, Delay: delay}
}

func sequence(delay time.Duration, colors ...color.RGBA) source.Sequence {
	seq := source.Sequence{Kind: source.KindAnimated}
	for _, c := range colors {
		seq.Frames = append(seq.Frames, frame(c, delay))
	}
	return seq
}

func newTestPlayer(target Target) (*Player, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(target, Options{Log: logrus.NewEntry(logger)}), hook
}

func TestPlayOnce(t *testing.T) {
	target := &fakeTarget{}
	p, hook := newTestPlayer(target)

	id, err := p.Start(sequence(time.Millisecond, red, green, blue), PlayOptions{Loops: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	p.Wait()

	started := hook.AllEntries()[0]
	assert.Equal(t, "Playback started", started.Message)
	assert.Equal(t, "3ms", started.Data["duration"])

	assert.Equal(t, []color.RGBA{red, green, blue}, target.snapshot())
	status := p.Status()
	assert.False(t, status.Running)
	assert.Equal(t, id, status.RunID)
	assert.Equal(t, uint64(3), status.Frames)
	assert.Equal(t, uint64(1), status.Passes)
	assert.Equal(t, source.KindAnimated, status.Kind)
	assert.False(t, p.Stop(), "finished run is not live")
}

func TestPlayLoops(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	_, err := p.Start(sequence(time.Millisecond, red, blue), PlayOptions{Loops: 3})
	require.NoError(t, err)
	p.Wait()

	assert.Equal(t, []color.RGBA{red, blue, red, blue, red, blue}, target.snapshot())
	assert.Equal(t, uint64(3), p.Status().Passes)
}

func TestLoopForeverUntilStopped(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	_, err := p.Start(sequence(time.Millisecond, red), PlayOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return target.count(red) >= 5 }, 2*time.Second, time.Millisecond)
	assert.True(t, p.Status().Running)

	assert.True(t, p.Stop())
	p.Wait()
	n := len(target.snapshot())
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, target.snapshot(), n, "no commits after Stop")
	assert.False(t, p.Status().Running)
}

func TestStartReplacesRun(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	first, err := p.Start(sequence(time.Millisecond, red, red), PlayOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return target.count(red) >= 3 }, 2*time.Second, time.Millisecond)

	second, err := p.Start(sequence(time.Millisecond, blue), PlayOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	require.Eventually(t, func() bool { return target.count(blue) >= 3 }, 2*time.Second, time.Millisecond)

	p.Stop()
	p.Wait()

	commits := target.snapshot()
	seenBlue := false
	for i, c := range commits {
		if c == blue {
			seenBlue = true
		}
		if seenBlue {
			assert.NotEqual(t, red, c, "commit %d from replaced run", i)
		}
	}
	assert.Equal(t, second, p.Status().RunID)
}

func TestStopWakesSleepingRun(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	_, err := p.Start(sequence(time.Hour, green), PlayOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return target.count(green) == 1 }, 2*time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Stop()
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not exit after Stop")
	}
}

func TestStopWhileIdle(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	assert.False(t, p.Stop())
	assert.False(t, p.Stop())
	assert.Equal(t, Status{}, p.Status())
	assert.Empty(t, target.snapshot())
}

func TestStartRejectsInvalid(t *testing.T) {
	target := &fakeTarget{}
	p, _ := newTestPlayer(target)

	_, err := p.Start(source.Sequence{}, PlayOptions{})
	var ve *source.ValidationError
	require.True(t, errors.As(err, &ve))

	_, err = p.Start(sequence(time.Millisecond, red), PlayOptions{Loops: -1})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "loops", ve.Field)

	p.Wait()
	assert.False(t, p.Status().Running)
	assert.Empty(t, target.snapshot())
}

func TestCommitFailureKeepsPlaying(t *testing.T) {
	target := &fakeTarget{err: errors.New("panel unplugged")}
	p, hook := newTestPlayer(target)

	_, err := p.Start(sequence(time.Millisecond, red, blue), PlayOptions{Loops: 1})
	require.NoError(t, err)
	p.Wait()

	assert.Len(t, target.snapshot(), 2)
	var warned int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}

// stallingTarget parks every Commit until release is closed.
type stallingTarget struct {
	fakeTarget
	entered chan struct{}
	release chan struct{}
}

func (t *stallingTarget) Commit(img *image.RGBA) error {
	select {
	case t.entered <- struct{}{}:
	default:
	}
	<-t.release
	return t.fakeTarget.Commit(img)
}

func TestSlowSinkDoesNotBlockControl(t *testing.T) {
	target := &stallingTarget{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	p, _ := newTestPlayer(target)

	_, err := p.Start(sequence(time.Millisecond, red), PlayOptions{Loops: 1})
	require.NoError(t, err)
	select {
	case <-target.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first frame never reached the target")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Status()
		p.Stop()
		p.Start(sequence(time.Millisecond, blue), PlayOptions{Loops: 1})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("control calls blocked behind a stalled push")
	}

	close(target.release)
	p.Wait()

	assert.Equal(t, []color.RGBA{red, blue}, target.snapshot())
	assert.False(t, p.Status().Running)
}
