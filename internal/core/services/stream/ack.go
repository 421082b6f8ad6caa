package stream

import (
	"github.com/facilitysense/facilityd/internal/core/domain"
)

// AckLedger tracks operator-acknowledged breaching sensors. Acknowledged
// sensors stop flashing and stop speaking but still appear in alert history
// and stability scoring. A sensor leaves the ledger on its own once it
// returns in range; it is never re-added automatically.
//
// Not internally locked; the Monitor serializes access.
type AckLedger struct {
	suppressed map[domain.SensorKey]struct{}
}

func NewAckLedger() *AckLedger {
	return &AckLedger{suppressed: make(map[domain.SensorKey]struct{})}
}

// Merge adds the given breaching keys to the snapshot, keeping any already
// acknowledged ones.
func (l *AckLedger) Merge(keys []domain.SensorKey) {
	for _, k := range keys {
		l.suppressed[k] = struct{}{}
	}
}

// IsSuppressed reports whether the sensor is currently acknowledged.
func (l *AckLedger) IsSuppressed(key domain.SensorKey) bool {
	_, ok := l.suppressed[key]
	return ok
}

// Reconcile evicts the key when its latest value is back in range. Called
// after every series mutation; a sensor that breaches again later must be
// freshly acknowledged.
func (l *AckLedger) Reconcile(key domain.SensorKey, band domain.Band, value float64) {
	if !l.IsSuppressed(key) {
		return
	}
	if InRange(band, value) {
		delete(l.suppressed, key)
	}
}

// ClearFacility drops acknowledgements for one facility.
func (l *AckLedger) ClearFacility(facility string) {
	for k := range l.suppressed {
		if k.Facility == facility {
			delete(l.suppressed, k)
		}
	}
}

// Suppressed returns the acknowledged keys for a facility.
func (l *AckLedger) Suppressed(facility string) []domain.SensorKey {
	var keys []domain.SensorKey
	for k := range l.suppressed {
		if k.Facility == facility {
			keys = append(keys, k)
		}
	}
	return keys
}
