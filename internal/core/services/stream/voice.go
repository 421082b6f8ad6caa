package stream

import (
	"math"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

type voiceKey struct {
	Facility  string
	BaseName  string
	Direction domain.Direction
}

type voiceMark struct {
	SpokenAt time.Time
	Value    float64
}

// VoicePolicy decides whether a breach is worth saying out loud. It speaks
// only on sustained, materially-changed breaches: a sensor oscillating near a
// boundary gets at most one utterance per cooldown per direction unless the
// value moves more than the per-type minimum delta.
//
// Not internally locked; the Monitor serializes access.
type VoicePolicy struct {
	cooldown  time.Duration
	minBreach time.Duration
	epsilon   float64
	memory    map[voiceKey]voiceMark
}

func NewVoicePolicy(cooldown, minBreach time.Duration, epsilon float64) *VoicePolicy {
	return &VoicePolicy{
		cooldown:  cooldown,
		minBreach: minBreach,
		epsilon:   epsilon,
		memory:    make(map[voiceKey]voiceMark),
	}
}

// ShouldSpeak gates an utterance for the given alert and breach state,
// recording the utterance when permitted. Fresh blips shorter than the
// minimum breach duration never speak.
func (p *VoicePolicy) ShouldSpeak(alert domain.Alert, breach domain.BreachInfo, hasBreach bool, now time.Time) bool {
	if !hasBreach || breach.Duration < p.minBreach {
		return false
	}

	k := voiceKey{
		Facility:  alert.Sensor.Facility,
		BaseName:  domain.BaseName(alert.Sensor.Name),
		Direction: alert.Direction,
	}
	if prev, ok := p.memory[k]; ok {
		withinCooldown := now.Sub(prev.SpokenAt) < p.cooldown
		minDelta := math.Max(minDeltaFor(domain.TypeOf(alert.Sensor.Name)), p.epsilon)
		deltaSmall := math.Abs(alert.Value-prev.Value) < minDelta
		if withinCooldown || deltaSmall {
			return false
		}
	}

	p.memory[k] = voiceMark{SpokenAt: now, Value: alert.Value}
	return true
}

// Reset clears all cooldown memory, e.g. when an acknowledgement snapshot
// cancels pending speech.
func (p *VoicePolicy) Reset() {
	p.memory = make(map[voiceKey]voiceMark)
}

// ClearFacility forgets cooldown state for one facility.
func (p *VoicePolicy) ClearFacility(facility string) {
	for k := range p.memory {
		if k.Facility == facility {
			delete(p.memory, k)
		}
	}
}
