package neurovibe

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/morse"
)

// Actuator is a vibration-capable output device. Strength is 0-100.
type Actuator interface {
	Vibrate(ctx context.Context, duration time.Duration, strength int) error
}

// Renderer plays tactile signals on an actuator. A new signal supersedes
// whatever is still playing: the in-flight render is cancelled first, so the
// device never queues stale patterns. A nil actuator absorbs everything,
// which lets headless receivers keep the rest of the pipeline running.
type Renderer struct {
	actuator Actuator
	unit     time.Duration
	logger   *slog.Logger

	// startMu serializes supersession: stopping the previous render and
	// registering the next one must be one step, or two concurrent renders
	// could both survive.
	startMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithUnit overrides the short-pulse duration.
func WithUnit(unit time.Duration) RendererOption {
	return func(r *Renderer) { r.unit = unit }
}

// WithRendererLogger overrides the renderer logger.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) { r.logger = logger }
}

func NewRenderer(actuator Actuator, opts ...RendererOption) *Renderer {
	r := &Renderer{
		actuator: actuator,
		unit:     morse.DefaultUnit,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RenderMorse plays an encoded dot/dash sequence, scaling pulse strength by
// the emotion label. Returns immediately; playback runs in the background.
func (r *Renderer) RenderMorse(code, emotion string) {
	if r.actuator == nil || code == "" {
		return
	}

	seq := morse.Timing(code, r.unit)
	if len(seq) == 0 {
		return
	}

	strength := scaledStrength(70, emotion)

	r.start(func(ctx context.Context) {
		for i, d := range seq {
			if ctx.Err() != nil {
				return
			}

			if i%2 == 0 {
				if err := r.actuator.Vibrate(ctx, d, strength); err != nil {
					r.logger.Warn("actuator error", slog.Any(constant.Error, err))
					return
				}
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
		}
	})
}

// RenderIntensity plays one loudness pulse. Strength follows the reported
// intensity, scaled by emotion.
func (r *Renderer) RenderIntensity(intensity int, emotion string) {
	if r.actuator == nil {
		return
	}

	intensity = morse.ClampIntensity(intensity)
	if intensity == 0 {
		return
	}

	strength := scaledStrength(intensity, emotion)

	r.start(func(ctx context.Context) {
		if err := r.actuator.Vibrate(ctx, r.unit, strength); err != nil {
			r.logger.Warn("actuator error", slog.Any(constant.Error, err))
		}
	})
}

// Stop cancels the in-flight render, if any, and waits for it to finish.
func (r *Renderer) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (r *Renderer) start(play func(ctx context.Context)) {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel, r.done = cancel, done
	r.mu.Unlock()

	go func() {
		defer close(done)
		play(ctx)
	}()
}

func scaledStrength(base int, emotion string) int {
	scaled := float64(base) * morse.ScaleForEmotion(emotion)

	return morse.ClampIntensity(int(math.Round(scaled)))
}
