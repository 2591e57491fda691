package neurovibe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshay-cybersec/NeuroVibe/internal/morse"
)

type pulse struct {
	duration time.Duration
	strength int
}

// recordingActuator captures pulses and optionally holds each one until the
// context is cancelled.
type recordingActuator struct {
	mu     sync.Mutex
	pulses []pulse
	block  bool
}

func (a *recordingActuator) Vibrate(ctx context.Context, duration time.Duration, strength int) error {
	a.mu.Lock()
	a.pulses = append(a.pulses, pulse{duration: duration, strength: strength})
	a.mu.Unlock()

	if a.block {
		<-ctx.Done()
		return ctx.Err()
	}

	return nil
}

func (a *recordingActuator) recorded() []pulse {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]pulse(nil), a.pulses...)
}

func TestRenderMorsePlaysEveryPulse(t *testing.T) {
	actuator := &recordingActuator{}
	renderer := NewRenderer(actuator, WithUnit(time.Millisecond))

	code := morse.Encode("sos") // 9 on-pulses
	renderer.RenderMorse(code, "neutral")

	require.Eventually(t, func() bool {
		return len(actuator.recorded()) == 9
	}, time.Second, time.Millisecond)
	renderer.Stop()

	pulses := actuator.recorded()
	require.Len(t, pulses, 9)

	// dots are 1 unit, dashes 3 units
	assert.Equal(t, time.Millisecond, pulses[0].duration)
	assert.Equal(t, 3*time.Millisecond, pulses[3].duration)
}

func TestRenderMorseEmotionScalesStrength(t *testing.T) {
	quiet := &recordingActuator{}
	loud := &recordingActuator{}

	NewRenderer(quiet, WithUnit(time.Millisecond)).RenderMorse(".", "sad")
	NewRenderer(loud, WithUnit(time.Millisecond)).RenderMorse(".", "angry")

	require.Eventually(t, func() bool {
		return len(quiet.recorded()) == 1 && len(loud.recorded()) == 1
	}, time.Second, time.Millisecond)

	assert.Less(t, quiet.recorded()[0].strength, loud.recorded()[0].strength)
	assert.Equal(t, 100, loud.recorded()[0].strength, "scaling clamps at the wire bound")
}

func TestRenderSupersedesInFlight(t *testing.T) {
	actuator := &recordingActuator{block: true}
	renderer := NewRenderer(actuator, WithUnit(time.Millisecond))

	renderer.RenderMorse(morse.Encode("hello there"), "neutral")

	require.Eventually(t, func() bool {
		return len(actuator.recorded()) >= 1
	}, time.Second, time.Millisecond)

	// The second render must cancel the first; a blocked actuator would
	// otherwise pin it forever.
	done := make(chan struct{})
	go func() {
		renderer.RenderIntensity(50, "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("previous render was not superseded")
	}

	renderer.Stop()
}

// overlapActuator blocks every pulse until cancelled and tracks how many are
// in flight at once.
type overlapActuator struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (a *overlapActuator) Vibrate(ctx context.Context, duration time.Duration, strength int) error {
	a.mu.Lock()
	a.active++
	if a.active > a.peak {
		a.peak = a.active
	}
	a.mu.Unlock()

	<-ctx.Done()

	a.mu.Lock()
	a.active--
	a.mu.Unlock()

	return ctx.Err()
}

func (a *overlapActuator) snapshot() (active, peak int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.active, a.peak
}

func TestConcurrentRendersNeverOverlap(t *testing.T) {
	actuator := &overlapActuator{}
	renderer := NewRenderer(actuator, WithUnit(time.Millisecond))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			renderer.RenderIntensity(50, "")
		}()
	}
	wg.Wait()

	renderer.Stop()

	active, peak := actuator.snapshot()
	assert.Equal(t, 0, active, "stop must leave nothing playing")
	assert.LessOrEqual(t, peak, 1, "a new render must fully supersede the previous one")
}

func TestRenderIntensity(t *testing.T) {
	actuator := &recordingActuator{}
	renderer := NewRenderer(actuator, WithUnit(time.Millisecond))

	renderer.RenderIntensity(60, "neutral")
	renderer.Stop()

	pulses := actuator.recorded()
	require.Len(t, pulses, 1)
	assert.Equal(t, 60, pulses[0].strength)
}

func TestRenderIntensityZeroIsSilent(t *testing.T) {
	actuator := &recordingActuator{}
	renderer := NewRenderer(actuator, WithUnit(time.Millisecond))

	renderer.RenderIntensity(0, "neutral")
	renderer.RenderIntensity(-10, "neutral")
	renderer.Stop()

	assert.Empty(t, actuator.recorded())
}

func TestNilActuatorAbsorbsEverything(t *testing.T) {
	renderer := NewRenderer(nil)

	renderer.RenderMorse("... --- ...", "angry")
	renderer.RenderIntensity(80, "happy")
	renderer.Stop()
}

func TestStopWithoutRender(t *testing.T) {
	renderer := NewRenderer(&recordingActuator{})
	renderer.Stop()
	renderer.Stop()
}
