package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sounds plays game feedback. A nil Sounds is silent.
type Sounds interface {
	Eat()
	GameOver()
	Close()
}

// SoundManager plays short tones through the system speaker
type SoundManager struct {
	mu          sync.Mutex
	initialized bool
}

// NewSoundManager creates a sound manager. Call Initialize before use.
func NewSoundManager() *SoundManager {
	return &SoundManager{}
}

// Initialize opens the speaker. Playing is a no-op until it succeeds.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	sm.initialized = true
	return nil
}

// Eat plays a short high tone
func (sm *SoundManager) Eat() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	sine, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(60*time.Millisecond), sine))
}

// GameOver plays a falling low buzz
func (sm *SoundManager) GameOver() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Play(gameOverTone())
}

// Close stops all sounds and releases the speaker
func (sm *SoundManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Clear()
	speaker.Close()
	sm.initialized = false
}

func gameOverTone() beep.Streamer {
	return beep.Seq(
		beep.Take(sampleRate.N(150*time.Millisecond), newBuzz(sampleRate, 220)),
		beep.Take(sampleRate.N(250*time.Millisecond), newBuzz(sampleRate, 110)),
	)
}

// buzz is a sine with two harmonics and a short fade in
type buzz struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

func newBuzz(sr beep.SampleRate, freq float64) *buzz {
	return &buzz{sr: sr, freq: freq}
}

func (b *buzz) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(b.pos) / float64(b.sr)

		sample := 0.3 * math.Sin(2*math.Pi*b.freq*t)
		sample += 0.15 * math.Sin(2*math.Pi*b.freq*2*t)
		sample += 0.075 * math.Sin(2*math.Pi*b.freq*3*t)

		envelope := math.Min(t/0.02, 1.0)
		sample *= envelope * 0.5

		samples[i][0] = sample
		samples[i][1] = sample
		b.pos++
	}
	return len(samples), true
}

func (b *buzz) Err() error {
	return nil
}
