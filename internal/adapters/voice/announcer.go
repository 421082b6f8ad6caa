// Package voice turns alert sentences into "voice" events for connected
// dashboards, which render them through the browser's speech synthesis.
package voice

import (
	"sync"

	"github.com/facilitysense/facilityd/internal/core/ports"
)

// Publisher delivers voice events to clients.
type Publisher interface {
	VoiceSpeak(utterance Utterance)
	VoiceCancel()
}

// Utterance is one spoken line with its playback parameters.
type Utterance struct {
	ID     uint64  `json:"id"`
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// Announcer implements ports.VoiceSink as a serialized single-utterance
// sink: a new utterance cancels the one in progress instead of queueing
// behind it, and pausing cancels in-flight speech immediately.
type Announcer struct {
	pub Publisher

	mu      sync.Mutex
	seq     uint64
	paused  bool
	current Utterance
	active  bool
}

func NewAnnouncer(pub Publisher) *Announcer {
	return &Announcer{pub: pub}
}

// Speak replaces any in-progress utterance with text.
func (a *Announcer) Speak(text string) {
	a.mu.Lock()
	if a.paused {
		a.mu.Unlock()
		return
	}
	if a.active {
		a.pub.VoiceCancel()
	}
	a.seq++
	u := Utterance{
		ID:     a.seq,
		Text:   text,
		Rate:   1.02,
		Pitch:  1.0,
		Volume: 1.0,
	}
	a.current = u
	a.active = true
	a.mu.Unlock()

	a.pub.VoiceSpeak(u)
}

// CancelAll stops in-flight speech without pausing future utterances.
func (a *Announcer) CancelAll() {
	a.mu.Lock()
	wasActive := a.active
	a.active = false
	a.mu.Unlock()

	if wasActive {
		a.pub.VoiceCancel()
	}
}

// SetPaused gates future utterances; pausing also cancels in-flight speech.
func (a *Announcer) SetPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	wasActive := a.active
	if paused {
		a.active = false
	}
	a.mu.Unlock()

	if paused && wasActive {
		a.pub.VoiceCancel()
	}
}

// Current returns the utterance considered in progress, if any.
func (a *Announcer) Current() (Utterance, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.active
}

var _ ports.VoiceSink = (*Announcer)(nil)
