package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
)

// fakeNotifier records broadcast calls.
type fakeNotifier struct {
	mu      sync.Mutex
	samples []domain.Sample
	alerts  []domain.Alert
	reports []domain.StabilityReport
}

func (f *fakeNotifier) SensorUpdated(_ domain.SensorKey, s domain.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
}

func (f *fakeNotifier) AlertRaised(a domain.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
}

func (f *fakeNotifier) StabilityChanged(r domain.StabilityReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
}

func (f *fakeNotifier) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

// fakeVoice records utterances.
type fakeVoice struct {
	mu        sync.Mutex
	spoken    []string
	cancelled int
	paused    bool
}

func (f *fakeVoice) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
}

func (f *fakeVoice) CancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeVoice) SetPaused(paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
}

func (f *fakeVoice) spokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

func newTestMonitor(notifier *fakeNotifier, voice *fakeVoice) (*Monitor, *time.Time) {
	// assign through typed locals so a nil fake stays a nil interface
	var n ports.Notifier
	if notifier != nil {
		n = notifier
	}
	var sink ports.VoiceSink
	if voice != nil {
		sink = voice
	}
	m := NewMonitor(DefaultConfig(), n, sink, nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.nowFn = func() time.Time { return now }
	m.SetUserPresent(true)
	return m, &now
}

func reading(name string, value float64, at time.Time) domain.Reading {
	return domain.Reading{Name: name, Value: value, UpdatedAt: at}
}

func TestMonitor_PausedDiscardsSamples(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 22, *now))
	m.Pause("Dubai")
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 23, *now))

	key := domain.SensorKey{Facility: "Dubai", Name: "Temperature Sensor 1"}
	assert.Len(t, m.Series(key), 1)

	// history is kept across pause, ingestion resumes afterward
	m.Resume("Dubai")
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 24, *now))
	assert.Len(t, m.Series(key), 2)
}

func TestMonitor_PauseIsPerFacility(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.Pause("Dubai")
	m.HandleSensorUpdated("London", reading("Temperature Sensor 1", 22, *now))

	assert.Len(t, m.Series(domain.SensorKey{Facility: "London", Name: "Temperature Sensor 1"}), 1)
}

func TestMonitor_UnknownSensorIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	m, now := newTestMonitor(notifier, nil)

	m.HandleSensorUpdated("Dubai", reading("Pressure Sensor 1", 22, *now))

	// no band, no series, no alert, no stability contribution
	assert.Empty(t, m.Series(domain.SensorKey{Facility: "Dubai", Name: "Pressure Sensor 1"}))
	assert.Equal(t, 0, notifier.alertCount())
}

func TestMonitor_GlitchDropped(t *testing.T) {
	notifier := &fakeNotifier{}
	m, now := newTestMonitor(notifier, nil)

	// temperature hard max = 28 + 2*10 = 48
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 50, *now))

	assert.Empty(t, m.Series(domain.SensorKey{Facility: "Dubai", Name: "Temperature Sensor 1"}))
	assert.Equal(t, 0, notifier.alertCount())
}

func TestMonitor_SeedReplayIdempotent(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)
	key := domain.SensorKey{Facility: "Dubai", Name: "CO2 Sensor 1"}

	snapshot := []domain.Reading{reading("CO2 Sensor 1", 400, *now)}
	m.HandleAllSensors("Dubai", snapshot)
	m.HandleAllSensors("Dubai", snapshot) // reconnect replay

	assert.Len(t, m.Series(key), 1)

	// replay after live appends does not duplicate either
	m.HandleSensorUpdated("Dubai", reading("CO2 Sensor 1", 420, *now))
	m.HandleAllSensors("Dubai", snapshot)
	assert.Len(t, m.Series(key), 2)
}

func TestMonitor_LocalAndPushedAlertsShareThrottle(t *testing.T) {
	notifier := &fakeNotifier{}
	m, now := newTestMonitor(notifier, nil)

	// local threshold check raises the alert
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	assert.Equal(t, 1, notifier.alertCount())

	// pushed alert for the same breach within the window is throttled
	m.HandleSensorAlert("Dubai", domain.AlertEvent{
		Sensor: "Temperature Sensor 1",
		Value:  31,
		Status: domain.DirectionHigh,
	})
	assert.Equal(t, 1, notifier.alertCount())

	// past the window it surfaces again
	*now = now.Add(11 * time.Second)
	m.HandleSensorAlert("Dubai", domain.AlertEvent{
		Sensor: "Temperature Sensor 1",
		Value:  31,
		Status: domain.DirectionHigh,
	})
	assert.Equal(t, 2, notifier.alertCount())
}

func TestMonitor_ClearIsFacilityScoped(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	m.HandleSensorUpdated("London", reading("Temperature Sensor 1", 31, *now))

	m.Clear("Dubai")

	assert.Empty(t, m.Series(domain.SensorKey{Facility: "Dubai", Name: "Temperature Sensor 1"}))
	assert.Empty(t, m.Alerts("Dubai"))
	assert.Len(t, m.Series(domain.SensorKey{Facility: "London", Name: "Temperature Sensor 1"}), 1)
	assert.Len(t, m.Alerts("London"), 1)

	// throttle state is cleared too: the same breach alerts again immediately
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	assert.Len(t, m.Alerts("Dubai"), 1)
}

func TestMonitor_AcknowledgeSuppressesUntilInRange(t *testing.T) {
	voice := &fakeVoice{}
	m, now := newTestMonitor(&fakeNotifier{}, voice)
	key := domain.SensorKey{Facility: "Dubai", Name: "Temperature Sensor 1"}

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))

	suppressed := m.Acknowledge("Dubai")
	assert.Contains(t, suppressed, key)
	assert.True(t, m.IsSuppressed(key))
	assert.Equal(t, 1, voice.cancelled)

	// back in range: evicted from the ledger
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 22, *now))
	assert.False(t, m.IsSuppressed(key))

	// breaching again later is not suppressed
	*now = now.Add(time.Minute)
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	assert.False(t, m.IsSuppressed(key))
}

func TestMonitor_VoiceOnSustainedBreach(t *testing.T) {
	voice := &fakeVoice{}
	m, now := newTestMonitor(&fakeNotifier{}, voice)

	// first breach sample: duration under the 30s minimum, stays quiet
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	assert.Equal(t, 0, voice.spokenCount())

	// 40s into the breach and past the alert throttle window: speaks
	*now = now.Add(40 * time.Second)
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31.2, *now))
	assert.Equal(t, 1, voice.spokenCount())

	voice.mu.Lock()
	sentence := voice.spoken[0]
	voice.mu.Unlock()
	assert.Contains(t, sentence, "Temperature in Server Room at Dubai is high")
	assert.Contains(t, sentence, "(normal 18–28)")
}

func TestMonitor_NoVoiceWithoutUserPresent(t *testing.T) {
	voice := &fakeVoice{}
	m, now := newTestMonitor(&fakeNotifier{}, voice)
	m.SetUserPresent(false)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	*now = now.Add(40 * time.Second)
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31.2, *now))

	assert.Equal(t, 0, voice.spokenCount())
}

func TestMonitor_AckSilencesVoice(t *testing.T) {
	voice := &fakeVoice{}
	m, now := newTestMonitor(&fakeNotifier{}, voice)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	m.Acknowledge("Dubai")

	*now = now.Add(40 * time.Second)
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31.2, *now))

	assert.Equal(t, 0, voice.spokenCount())
	// acknowledged sensors still appear in the alert log
	assert.Len(t, m.Alerts("Dubai"), 2)
}

func TestMonitor_AllAlertsReplayFillsLog(t *testing.T) {
	notifier := &fakeNotifier{}
	m, now := newTestMonitor(notifier, nil)

	at := now.Add(-time.Hour)
	m.HandleAllAlerts("Dubai", []domain.AlertEvent{
		{Sensor: "Temperature Sensor 1", Value: 31, Status: domain.DirectionHigh, Time: &at},
		{Sensor: "Humidity Sensor 1", Value: 20, Status: domain.DirectionLow},
	})

	log := m.Alerts("Dubai")
	assert.Len(t, log, 2)
	assert.Equal(t, at, log[0].At)
	// replayed history is not re-broadcast
	assert.Equal(t, 0, notifier.alertCount())
}

func TestMonitor_StabilityReflectsLatest(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 23, *now))
	rep := m.Stability("Dubai")
	assert.Equal(t, 100, rep.Stability)
	assert.Equal(t, domain.ModeNominal, rep.Mode)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 33, *now))
	rep = m.Stability("Dubai")
	assert.Equal(t, domain.ModeDegraded, rep.Mode)
	assert.Equal(t, 1, rep.ActiveAlerts)
}

func TestMonitor_NoVoiceSinkConfigured(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	// every control path must tolerate a missing sink
	m.Pause("Dubai")
	m.Resume("Dubai")
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31, *now))
	*now = now.Add(40 * time.Second)
	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 31.2, *now))
	m.Acknowledge("Dubai")
	m.Clear("Dubai")

	assert.Empty(t, m.Alerts("Dubai"))
}

// blockingNotifier parks every broadcast until released.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) SensorUpdated(domain.SensorKey, domain.Sample) {
	b.entered <- struct{}{}
	<-b.release
}
func (b *blockingNotifier) AlertRaised(domain.Alert)                 {}
func (b *blockingNotifier) StabilityChanged(domain.StabilityReport) {}

func TestMonitor_SlowNotifierDoesNotBlockReads(t *testing.T) {
	notifier := &blockingNotifier{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := NewMonitor(DefaultConfig(), notifier, nil, nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.nowFn = func() time.Time { return now }

	done := make(chan struct{})
	go func() {
		m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 22, now))
		close(done)
	}()
	<-notifier.entered

	// the broadcast is stalled mid-flight; reads must still return
	read := make(chan struct{})
	go func() {
		m.Latest("Dubai")
		m.Stability("Dubai")
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("read path blocked behind a stalled broadcast")
	}

	close(notifier.release)
	<-done
	assert.Len(t, m.Latest("Dubai"), 1)
}

func TestMonitor_LatestMatchingFiltersByName(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.HandleSensorUpdated("Dubai", reading("Temperature Sensor 1", 22, *now))
	m.HandleSensorUpdated("Dubai", reading("CO2 Sensor 1", 400, *now))

	latest := m.LatestMatching("Dubai", "co2")
	assert.Len(t, latest, 1)
	assert.Contains(t, latest, domain.SensorKey{Facility: "Dubai", Name: "CO2 Sensor 1"})

	// empty filter returns everything
	assert.Len(t, m.LatestMatching("Dubai", ""), 2)
}

func TestMonitor_SnapshotShape(t *testing.T) {
	m, now := newTestMonitor(&fakeNotifier{}, nil)

	m.HandleSensorUpdated("Dubai", reading("CO2 Sensor 1", 400, *now))
	m.HandleSensorUpdated("Dubai", reading("CO2 Sensor 1", 420, *now))
	m.HandleSensorUpdated("London", reading("CO2 Sensor 1", 500, *now))

	req := m.Snapshot("Dubai")
	assert.Equal(t, "Dubai", req.Facility)
	assert.Len(t, req.Samples, 2)
	assert.Equal(t, float64(420), req.Snapshot["CO2 Sensor 1"])
}
