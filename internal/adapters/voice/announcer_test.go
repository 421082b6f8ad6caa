package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePublisher struct {
	spoken  []Utterance
	cancels int
}

func (f *fakePublisher) VoiceSpeak(u Utterance) { f.spoken = append(f.spoken, u) }
func (f *fakePublisher) VoiceCancel()           { f.cancels++ }

func TestAnnouncer_NewUtteranceCancelsPrior(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnnouncer(pub)

	a.Speak("first")
	assert.Equal(t, 0, pub.cancels)

	a.Speak("second")
	assert.Equal(t, 1, pub.cancels) // no queueing: first is cancelled
	assert.Len(t, pub.spoken, 2)

	current, active := a.Current()
	assert.True(t, active)
	assert.Equal(t, "second", current.Text)
	assert.Greater(t, current.ID, pub.spoken[0].ID)
}

func TestAnnouncer_PauseCancelsInFlight(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnnouncer(pub)

	a.Speak("ongoing")
	a.SetPaused(true)
	assert.Equal(t, 1, pub.cancels)

	// paused: new utterances are dropped entirely
	a.Speak("muted")
	assert.Len(t, pub.spoken, 1)

	a.SetPaused(false)
	a.Speak("resumed")
	assert.Len(t, pub.spoken, 2)
}

func TestAnnouncer_CancelAll(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnnouncer(pub)

	a.CancelAll() // nothing in flight, no event
	assert.Equal(t, 0, pub.cancels)

	a.Speak("line")
	a.CancelAll()
	assert.Equal(t, 1, pub.cancels)

	_, active := a.Current()
	assert.False(t, active)
}
