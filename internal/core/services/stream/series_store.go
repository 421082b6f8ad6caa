package stream

import (
	"strings"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// SeriesStore owns the bounded per-sensor time series. Appends are
// insertion-order = time-order; once a series exceeds the capacity the oldest
// samples are evicted.
//
// The store is not internally locked: the Monitor serializes all access.
type SeriesStore struct {
	cap    int
	series map[domain.SensorKey][]domain.Sample
}

// NewSeriesStore creates a store bounding every series to capacity samples.
func NewSeriesStore(capacity int) *SeriesStore {
	return &SeriesStore{
		cap:    capacity,
		series: make(map[domain.SensorKey][]domain.Sample),
	}
}

// Append pushes a sample to the tail of the key's series, truncating the
// head once the capacity is exceeded.
func (s *SeriesStore) Append(key domain.SensorKey, sample domain.Sample) {
	ser := append(s.series[key], sample)
	if len(ser) > s.cap {
		ser = ser[len(ser)-s.cap:]
	}
	s.series[key] = ser
}

// Seed initializes an empty series with a single sample. Returns false when
// the series already has data, so replays never duplicate history.
func (s *SeriesStore) Seed(key domain.SensorKey, sample domain.Sample) bool {
	if len(s.series[key]) > 0 {
		return false
	}
	s.series[key] = []domain.Sample{sample}
	return true
}

// Latest returns the newest sample for the key.
func (s *SeriesStore) Latest(key domain.SensorKey) (domain.Sample, bool) {
	ser := s.series[key]
	if len(ser) == 0 {
		return domain.Sample{}, false
	}
	return ser[len(ser)-1], true
}

// Series returns the samples for one key, oldest first. The returned slice
// is the store's own backing array; callers must not mutate it.
func (s *SeriesStore) Series(key domain.SensorKey) []domain.Sample {
	return s.series[key]
}

// Keys lists every sensor key for a facility.
func (s *SeriesStore) Keys(facility string) []domain.SensorKey {
	var keys []domain.SensorKey
	for k := range s.series {
		if k.Facility == facility {
			keys = append(keys, k)
		}
	}
	return keys
}

// Facility returns all series belonging to one facility.
func (s *SeriesStore) Facility(facility string) map[domain.SensorKey][]domain.Sample {
	out := make(map[domain.SensorKey][]domain.Sample)
	for k, ser := range s.series {
		if k.Facility == facility {
			out[k] = ser
		}
	}
	return out
}

// ClearFacility drops every series of one facility, never cross-facility.
func (s *SeriesStore) ClearFacility(facility string) {
	for k := range s.series {
		if k.Facility == facility {
			delete(s.series, k)
		}
	}
}

// MatchKeys returns the facility's keys whose base name contains the filter,
// case-insensitively. An empty filter matches everything.
func (s *SeriesStore) MatchKeys(facility, filter string) []domain.SensorKey {
	filter = strings.ToLower(filter)
	var keys []domain.SensorKey
	for _, k := range s.Keys(facility) {
		if filter == "" || strings.Contains(strings.ToLower(k.Name), filter) {
			keys = append(keys, k)
		}
	}
	return keys
}
