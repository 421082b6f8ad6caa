package stream

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
	"github.com/facilitysense/facilityd/internal/telemetry"
)

// Recorder receives accepted samples and emitted alerts for persistence.
type Recorder interface {
	RecordSample(facility string, s domain.FlatSample)
	RecordAlert(a domain.Alert)
}

// Monitor is the streaming engine. It owns all mutable stream state (series,
// throttle, voice memory, acknowledgements, pause flags) behind a single
// mutex, so every inbound event is handled atomically with respect to
// concurrent readers.
type Monitor struct {
	cfg      Config
	notifier ports.Notifier
	voice    ports.VoiceSink
	recorder Recorder

	mu       sync.Mutex
	store    *SeriesStore
	throttle *AlertThrottle
	policy   *VoicePolicy
	acks     *AckLedger
	alerts   map[string][]domain.Alert // recent alert log per facility
	paused   map[string]bool
	present  bool

	nowFn func() time.Time
}

const alertLogCap = 100

// pending collects the side effects of one locked state change. Broadcasts,
// persistence and speech are emitted only after the mutex is released, so a
// stalled websocket client or a slow disk can never freeze ingestion or the
// read paths.
type pending struct {
	updates   []sensorUpdate
	alerts    []domain.Alert
	records   []recordedSample
	stability []domain.StabilityReport
	speak     []string
}

type sensorUpdate struct {
	key    domain.SensorKey
	sample domain.Sample
}

type recordedSample struct {
	facility string
	sample   domain.FlatSample
}

// NewMonitor builds the engine. notifier, voice and recorder may be nil in
// tests; nil dependencies are simply skipped.
func NewMonitor(cfg Config, notifier ports.Notifier, voice ports.VoiceSink, recorder Recorder) *Monitor {
	return &Monitor{
		cfg:      cfg,
		notifier: notifier,
		voice:    voice,
		recorder: recorder,
		store:    NewSeriesStore(cfg.SeriesCap),
		throttle: NewAlertThrottle(cfg.ThrottleWindow),
		policy:   NewVoicePolicy(cfg.VoiceCooldown, cfg.MinBreach, cfg.Epsilon),
		acks:     NewAckLedger(),
		alerts:   make(map[string][]domain.Alert),
		paused:   make(map[string]bool),
		nowFn:    time.Now,
	}
}

// SetUserPresent toggles whether anyone is watching; voice output is wasted
// on an empty room.
func (m *Monitor) SetUserPresent(present bool) {
	m.mu.Lock()
	m.present = present
	m.mu.Unlock()
}

// emit flushes the collected side effects. Called without the mutex held.
func (m *Monitor) emit(fx *pending) {
	if m.notifier != nil {
		for _, u := range fx.updates {
			m.notifier.SensorUpdated(u.key, u.sample)
		}
		for _, a := range fx.alerts {
			m.notifier.AlertRaised(a)
		}
		for _, r := range fx.stability {
			m.notifier.StabilityChanged(r)
		}
	}
	if m.recorder != nil {
		for _, r := range fx.records {
			m.recorder.RecordSample(r.facility, r.sample)
		}
		for _, a := range fx.alerts {
			m.recorder.RecordAlert(a)
		}
	}
	if m.voice != nil {
		for _, text := range fx.speak {
			m.voice.Speak(text)
		}
	}
}

// HandleAllSensors seeds empty series from a full snapshot. Series that
// already hold data are left untouched, so a reconnect replay never
// duplicates history.
func (m *Monitor) HandleAllSensors(facility string, readings []domain.Reading) {
	fx := &pending{}
	m.applyAllSensors(fx, facility, readings)
	m.emit(fx)
}

func (m *Monitor) applyAllSensors(fx *pending, facility string, readings []domain.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused[facility] {
		return
	}
	for _, r := range readings {
		band, ok := domain.BandFor(r.Name)
		if !ok {
			continue
		}
		v, ok := Sanitize(band, r.Value)
		if !ok {
			telemetry.GlitchesRejected.WithLabelValues(facility).Inc()
			continue
		}
		at := r.UpdatedAt
		if at.IsZero() {
			at = m.nowFn()
		}
		key := domain.SensorKey{Facility: facility, Name: r.Name}
		if m.store.Seed(key, domain.Sample{At: at, Value: v}) {
			m.acks.Reconcile(key, band, v)
		}
	}
	m.queueStabilityLocked(fx, facility)
}

// HandleSensorUpdated appends one live sample, runs the local threshold
// check, and pushes updates to the dashboard. Glitches are dropped silently.
func (m *Monitor) HandleSensorUpdated(facility string, r domain.Reading) {
	fx := &pending{}
	m.applySensorUpdated(fx, facility, r)
	m.emit(fx)
}

func (m *Monitor) applySensorUpdated(fx *pending, facility string, r domain.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused[facility] {
		return
	}
	band, ok := domain.BandFor(r.Name)
	if !ok {
		// unknown sensor type: cannot evaluate, ignore
		return
	}
	v, ok := Sanitize(band, r.Value)
	if !ok {
		telemetry.GlitchesRejected.WithLabelValues(facility).Inc()
		return
	}
	at := r.UpdatedAt
	if at.IsZero() {
		at = m.nowFn()
	}
	key := domain.SensorKey{Facility: facility, Name: r.Name}
	sample := domain.Sample{At: at, Value: v}
	m.store.Append(key, sample)
	telemetry.SamplesIngested.WithLabelValues(facility).Inc()

	fx.updates = append(fx.updates, sensorUpdate{key: key, sample: sample})
	fx.records = append(fx.records, recordedSample{facility: facility, sample: domain.FlatSample{Sensor: r.Name, Value: v, Time: at}})

	m.acks.Reconcile(key, band, v)
	m.queueStabilityLocked(fx, facility)

	// locally recomputed threshold check funnels through the same throttle
	// as pushed alerts
	if c := Classify(v, band); c.Direction != domain.DirectionNone {
		m.raiseLocked(fx, key, band, v, c.Direction, at)
	}
}

// HandleSensorAlert processes a server-pushed alert. It passes through the
// same sanitizer and throttle as the local path, so a breach that triggers
// both surfaces once.
func (m *Monitor) HandleSensorAlert(facility string, ev domain.AlertEvent) {
	fx := &pending{}
	m.applySensorAlert(fx, facility, ev)
	m.emit(fx)
}

func (m *Monitor) applySensorAlert(fx *pending, facility string, ev domain.AlertEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused[facility] {
		return
	}
	name := domain.BaseName(ev.Sensor)
	band, ok := domain.BandFor(name)
	if !ok {
		return
	}
	v, ok := Sanitize(band, ev.Value)
	if !ok {
		telemetry.GlitchesRejected.WithLabelValues(facility).Inc()
		return
	}
	at := m.nowFn()
	if ev.Time != nil {
		at = *ev.Time
	}
	key := domain.SensorKey{Facility: facility, Name: name}

	dir := ev.Status
	if dir != domain.DirectionLow && dir != domain.DirectionHigh {
		dir = Classify(v, band).Direction
	}
	if dir == domain.DirectionNone {
		return
	}
	m.raiseLocked(fx, key, band, v, dir, at)
}

// HandleAllAlerts replays a historical alert log into the facility's recent
// log without re-triggering broadcast, throttle, persistence or voice.
func (m *Monitor) HandleAllAlerts(facility string, events []domain.AlertEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ev := range events {
		at := m.nowFn()
		if ev.Time != nil {
			at = *ev.Time
		}
		a := domain.Alert{
			ID:        uuid.NewString(),
			Sensor:    domain.SensorKey{Facility: facility, Name: domain.BaseName(ev.Sensor)},
			Value:     ev.Value,
			Direction: ev.Status,
			At:        at,
		}
		m.appendAlertLocked(facility, a)
	}
}

// raiseLocked gates an alert through the throttle, logs it, and queues the
// broadcast, persistence and voice effects.
func (m *Monitor) raiseLocked(fx *pending, key domain.SensorKey, band domain.Band, value float64, dir domain.Direction, at time.Time) {
	now := m.nowFn()
	m.throttle.Prune(now)
	if !m.throttle.Allow(key, dir, now) {
		telemetry.AlertsThrottled.WithLabelValues(key.Facility).Inc()
		return
	}

	a := domain.Alert{
		ID:        uuid.NewString(),
		Sensor:    key,
		Value:     value,
		Direction: dir,
		At:        at,
	}
	m.appendAlertLocked(key.Facility, a)
	telemetry.AlertsEmitted.WithLabelValues(key.Facility, string(dir)).Inc()
	fx.alerts = append(fx.alerts, a)

	if m.acks.IsSuppressed(key) {
		return
	}
	m.maybeSpeakLocked(fx, a, band, now)
}

func (m *Monitor) maybeSpeakLocked(fx *pending, a domain.Alert, band domain.Band, now time.Time) {
	if m.voice == nil || m.paused[a.Sensor.Facility] || !m.present {
		return
	}
	breach, hasBreach := CurrentBreach(m.store.Series(a.Sensor), band, now)
	if !m.policy.ShouldSpeak(a, breach, hasBreach, now) {
		telemetry.VoiceSuppressed.WithLabelValues(a.Sensor.Facility).Inc()
		return
	}
	telemetry.VoiceSpoken.WithLabelValues(a.Sensor.Facility).Inc()
	fx.speak = append(fx.speak, voiceSentence(a, breach, band))
}

// voiceSentence renders the spoken alert text, e.g. "Temperature in Server
// Room at Dubai is high running high for about 3 minutes. Current value 31
// (normal 18–28)."
func voiceSentence(a domain.Alert, breach domain.BreachInfo, band domain.Band) string {
	subject := strings.TrimSpace(strings.Replace(domain.BaseName(a.Sensor.Name), " Sensor 1", "", 1))
	room := domain.RoomFor(a.Sensor.Name)

	state := "out of range"
	if a.Direction == domain.DirectionHigh {
		state = "high"
	} else if a.Direction == domain.DirectionLow {
		state = "low"
	}

	plural := "s"
	if breach.Minutes == 1 {
		plural = ""
	}

	return fmt.Sprintf("%s in %s at %s is %s running %s for about %d minute%s. Current value %d (normal %g–%g).",
		subject, room, a.Sensor.Facility, state, state, breach.Minutes, plural,
		int(math.Round(a.Value)), band.Min, band.Max)
}

func (m *Monitor) appendAlertLocked(facility string, a domain.Alert) {
	log := append(m.alerts[facility], a)
	if len(log) > alertLogCap {
		log = log[len(log)-alertLogCap:]
	}
	m.alerts[facility] = log
}

// queueStabilityLocked recomputes the facility's stability and queues the
// broadcast. Skipped entirely without a notifier.
func (m *Monitor) queueStabilityLocked(fx *pending, facility string) {
	if m.notifier == nil {
		return
	}
	fx.stability = append(fx.stability, m.stabilityLocked(facility))
}

func (m *Monitor) stabilityLocked(facility string) domain.StabilityReport {
	return ComputeStability(facility, m.store.Facility(facility), m.cfg.Bands, m.cfg.FreshWindow, m.nowFn())
}

// Pause gates sample ingestion and voice for one facility. History is kept.
func (m *Monitor) Pause(facility string) {
	m.mu.Lock()
	m.paused[facility] = true
	m.mu.Unlock()
	if m.voice != nil {
		m.voice.SetPaused(true)
	}
	slog.Info("stream paused", "facility", facility)
}

// Resume re-enables ingestion and voice for one facility.
func (m *Monitor) Resume(facility string) {
	m.mu.Lock()
	delete(m.paused, facility)
	m.mu.Unlock()
	if m.voice != nil {
		m.voice.SetPaused(false)
	}
	slog.Info("stream resumed", "facility", facility)
}

// Paused reports the facility's ingestion gate.
func (m *Monitor) Paused(facility string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused[facility]
}

// Clear resets one facility's series, alert log, throttle, voice and
// acknowledgement state. Other facilities are untouched.
func (m *Monitor) Clear(facility string) {
	m.mu.Lock()
	m.store.ClearFacility(facility)
	delete(m.alerts, facility)
	m.throttle.ClearFacility(facility)
	m.policy.ClearFacility(facility)
	m.acks.ClearFacility(facility)
	m.mu.Unlock()
	if m.voice != nil {
		m.voice.CancelAll()
	}
	slog.Info("stream cleared", "facility", facility)
}

// Acknowledge snapshots the facility's currently-breaching sensors into the
// ledger, silencing their indicators and voice until each returns in range.
// Pending speech is cancelled alongside.
func (m *Monitor) Acknowledge(facility string) []domain.SensorKey {
	m.mu.Lock()
	var breaching []domain.SensorKey
	for key, ser := range m.store.Facility(facility) {
		if len(ser) == 0 {
			continue
		}
		band, ok := domain.BandFor(key.Name)
		if !ok {
			continue
		}
		if OutOfRange(band, ser[len(ser)-1].Value) {
			breaching = append(breaching, key)
		}
	}
	m.acks.Merge(breaching)
	m.policy.Reset()
	suppressed := m.acks.Suppressed(facility)
	m.mu.Unlock()

	if m.voice != nil {
		m.voice.CancelAll()
	}
	slog.Info("alerts acknowledged", "facility", facility, "count", len(breaching))
	return suppressed
}

// IsSuppressed reports whether the sensor is acknowledged.
func (m *Monitor) IsSuppressed(key domain.SensorKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks.IsSuppressed(key)
}

// Stability returns the facility's current health snapshot.
func (m *Monitor) Stability(facility string) domain.StabilityReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stabilityLocked(facility)
}

// Latest returns the newest sample per sensor for one facility.
func (m *Monitor) Latest(facility string) map[domain.SensorKey]domain.Sample {
	return m.LatestMatching(facility, "")
}

// LatestMatching returns the newest sample for each sensor whose name
// contains the filter, case-insensitively. An empty filter matches all.
func (m *Monitor) LatestMatching(facility, filter string) map[domain.SensorKey]domain.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.SensorKey]domain.Sample)
	for _, key := range m.store.MatchKeys(facility, filter) {
		if s, ok := m.store.Latest(key); ok {
			out[key] = s
		}
	}
	return out
}

// Series returns a copy of one sensor's series, oldest first.
func (m *Monitor) Series(key domain.SensorKey) []domain.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	ser := m.store.Series(key)
	out := make([]domain.Sample, len(ser))
	copy(out, ser)
	return out
}

// Alerts returns a copy of the facility's recent alert log, oldest first.
func (m *Monitor) Alerts(facility string) []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.alerts[facility]
	out := make([]domain.Alert, len(log))
	copy(out, log)
	return out
}

// Breach returns the current breach episode of one sensor, if any.
func (m *Monitor) Breach(key domain.SensorKey) (domain.BreachInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	band, ok := domain.BandFor(key.Name)
	if !ok {
		return domain.BreachInfo{}, false
	}
	return CurrentBreach(m.store.Series(key), band, m.nowFn())
}

// Snapshot builds the insight request payload for a facility: the flattened
// recent samples plus the latest value per sensor.
func (m *Monitor) Snapshot(facility string) domain.InsightRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := domain.InsightRequest{
		Facility: facility,
		Snapshot: make(map[string]float64),
		TakenAt:  m.nowFn(),
	}
	for key, ser := range m.store.Facility(facility) {
		for _, s := range ser {
			req.Samples = append(req.Samples, domain.FlatSample{Sensor: key.Name, Value: s.Value, Time: s.At})
		}
		if len(ser) > 0 {
			req.Snapshot[key.Name] = ser[len(ser)-1].Value
		}
	}
	return req
}

// FacilitySeries returns a copy of every series in a facility, for reports
// and scoring.
func (m *Monitor) FacilitySeries(facility string) map[domain.SensorKey][]domain.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.SensorKey][]domain.Sample)
	for key, ser := range m.store.Facility(facility) {
		cp := make([]domain.Sample, len(ser))
		copy(cp, ser)
		out[key] = cp
	}
	return out
}

// ActiveBreaches lists the facility's sensors currently out of range with
// their breach durations.
func (m *Monitor) ActiveBreaches(facility string) map[domain.SensorKey]domain.BreachInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ActiveBreaches(m.store.Facility(facility), m.cfg.Bands, m.cfg.FreshWindow, m.nowFn())
}
