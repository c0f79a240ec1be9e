package main

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"dscheirer.com/sonardisplay/gpio"
	"dscheirer.com/sonardisplay/hcsr04"
	"dscheirer.com/sonardisplay/sevenseg_mux"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

var errorFrame = []int{
	int(sevenseg_mux.GlyphE),
	int(sevenseg_mux.Glyphr),
	int(sevenseg_mux.Glyph0),
	int(sevenseg_mux.GlyphrDot),
}

func TestSonarShowsDistance(t *testing.T) {
	rt, clock, sim := testRuntime()
	ranger := rt.ranger.(*testRanger)
	ranger.set(42, nil)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)

	s := rt.status.get()
	assert.Equal(t, s.Value, int64(42))
	assert.DeepEqual(t, s.Glyphs, []int{0, 0, 4, 2})
	assert.Equal(t, s.Source, srcSonar)
	assert.Equal(t, s.Error, false)
	assert.Equal(t, s.Iteration, uint64(1))

	// right at the threshold is still a number
	ranger.set(150, nil)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s = rt.status.get()
	assert.DeepEqual(t, s.Glyphs, []int{0, 1, 5, 0})
	assert.Equal(t, s.Error, false)

	ranger.set(151, nil)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s = rt.status.get()
	assert.DeepEqual(t, s.Glyphs, errorFrame)
	assert.Equal(t, s.Error, true)
	assert.Equal(t, s.Value, int64(151))

	// and back
	ranger.set(3, nil)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	assert.DeepEqual(t, rt.status.get().Glyphs, []int{0, 0, 0, 3})

	testQuit(t, rt, clock, done)
	// nothing stays lit
	for _, p := range rt.settings.GetIntList(sCathodePins) {
		assert.Equal(t, sim.Level(p), true, "cathode %d", p)
	}
}

func TestSonarMeasuresEveryTick(t *testing.T) {
	rt, clock, _ := testRuntime()
	ranger := rt.ranger.(*testRanger)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, 25*time.Millisecond)
	assert.Equal(t, rt.status.get().Iteration, uint64(25))
	ranger.mu.Lock()
	assert.Equal(t, ranger.calls, 25)
	ranger.mu.Unlock()

	testQuit(t, rt, clock, done)
}

func TestSonarLittleEndian(t *testing.T) {
	settings := testConfigSettings()
	settings.settings[sBigEndian] = false
	rt, clock, _ := testRuntimeWith(settings)
	rt.ranger.(*testRanger).set(123, nil)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	assert.DeepEqual(t, rt.status.get().Glyphs, []int{3, 2, 1, 0})

	testQuit(t, rt, clock, done)
}

func TestSonarOverrideHolds(t *testing.T) {
	rt, clock, _ := testRuntime()
	ranger := rt.ranger.(*testRanger)
	ranger.set(10, nil)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	assert.Equal(t, rt.status.get().Value, int64(10))

	sendOverride(rt.comms.override, overrideMsg{value: 77, source: srcHTTP})
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s := rt.status.get()
	assert.Equal(t, s.Value, int64(77))
	assert.DeepEqual(t, s.Glyphs, []int{0, 0, 7, 7})
	assert.Equal(t, s.Source, srcHTTP)

	// the sonar stays quiet for the hold
	testBlockDuration(clock, time.Millisecond, 998*time.Millisecond)
	s = rt.status.get()
	assert.Equal(t, s.Value, int64(77))
	assert.Equal(t, s.Source, srcHTTP)

	testBlockDuration(clock, time.Millisecond, 2*time.Millisecond)
	s = rt.status.get()
	assert.Equal(t, s.Value, int64(10))
	assert.Equal(t, s.Source, srcSonar)

	testQuit(t, rt, clock, done)
}

func TestSonarOverrideAboveThreshold(t *testing.T) {
	rt, clock, _ := testRuntime()
	done := testStartSonar(rt)

	sendOverride(rt.comms.override, overrideMsg{value: 9000, source: srcSerial})
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s := rt.status.get()
	assert.DeepEqual(t, s.Glyphs, errorFrame)
	assert.Equal(t, s.Source, srcSerial)

	testQuit(t, rt, clock, done)
}

func TestSonarLatestOverrideWins(t *testing.T) {
	rt, clock, _ := testRuntime()
	done := testStartSonar(rt)

	sendOverride(rt.comms.override, overrideMsg{value: 1, source: srcKeyboard})
	sendOverride(rt.comms.override, overrideMsg{value: 2, source: srcSerial})
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s := rt.status.get()
	assert.Equal(t, s.Value, int64(2))
	assert.Equal(t, s.Source, srcSerial)

	testQuit(t, rt, clock, done)
}

func TestSonarEchoTimeout(t *testing.T) {
	rt, clock, _ := testRuntime()
	ranger := rt.ranger.(*testRanger)
	ranger.set(0, errors.Wrap(hcsr04.ErrEchoTimeout, "measure"))

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s := rt.status.get()
	assert.DeepEqual(t, s.Glyphs, []int{0, 0, 0, 0})
	assert.Equal(t, s.Error, false)

	testQuit(t, rt, clock, done)
}

func TestSonarEchoTimeoutAsError(t *testing.T) {
	settings := testConfigSettings()
	settings.settings[sEchoTimeoutError] = true
	rt, clock, _ := testRuntimeWith(settings)
	rt.ranger.(*testRanger).set(0, hcsr04.ErrEchoTimeout)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	s := rt.status.get()
	assert.DeepEqual(t, s.Glyphs, errorFrame)
	assert.Equal(t, s.Error, true)
	assert.Equal(t, s.Value, int64(0))

	testQuit(t, rt, clock, done)
}

func TestSonarOtherErrorShowsError(t *testing.T) {
	rt, clock, _ := testRuntime()
	rt.ranger.(*testRanger).set(0, errors.New("trigger stuck"))

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, time.Millisecond)
	assert.Equal(t, rt.status.get().Error, true)

	testQuit(t, rt, clock, done)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSonarEchoesChanges(t *testing.T) {
	rt, clock, _ := testRuntime()
	out := &lockedBuffer{}
	rt.echo = out
	ranger := rt.ranger.(*testRanger)
	ranger.set(42, nil)

	done := testStartSonar(rt)
	testBlockDuration(clock, time.Millisecond, 5*time.Millisecond)
	ranger.set(43, nil)
	testBlockDuration(clock, time.Millisecond, 5*time.Millisecond)

	// only changes are echoed
	assert.Equal(t, out.String(), "Distance: 42cm\r\nDistance: 43cm\r\n")

	testQuit(t, rt, clock, done)
}

func TestSonarQuitBeforeStart(t *testing.T) {
	rt, clock, _ := testRuntime()
	rt.comms.stop()
	done := testStartSonar(rt)
	testQuit(t, rt, clock, done)
	assert.Equal(t, rt.status.get().Iteration, uint64(0))
}

func TestInitRuntimeWidthMismatch(t *testing.T) {
	settings := testConfigSettings()
	settings.settings[sCathodePins] = []int{21, 7}
	_, err := initRuntime(settings, clockwork.NewFakeClock(), gpio.NewSim(nil))
	assert.ErrorContains(t, err, "display is 4 digits, multiplexer drives 2")
}
