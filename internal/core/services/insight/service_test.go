package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

func flatSeries(sensor string, base time.Time, values ...float64) []domain.FlatSample {
	out := make([]domain.FlatSample, len(values))
	for i, v := range values {
		out[i] = domain.FlatSample{Sensor: sensor, Value: v, Time: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestLocalProvider_NoBreaches(t *testing.T) {
	p := NewLocalProvider()
	base := time.Now().Add(-10 * time.Minute)

	req := domain.InsightRequest{
		Facility: "Dubai",
		Samples:  flatSeries("Temperature Sensor 1", base, 22, 23, 22.5),
	}

	ins, err := p.Generate(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, 5, ins.RiskScore)
	assert.Contains(t, ins.Summary, "within their normal ranges")
	assert.Len(t, ins.Tips, 2)
}

func TestLocalProvider_BreachSummaryAndRisk(t *testing.T) {
	p := NewLocalProvider()
	now := time.Now()
	p.nowFn = func() time.Time { return now }

	// breaching high for the whole 10-minute window
	req := domain.InsightRequest{
		Facility: "Dubai",
		Samples:  flatSeries("Temperature Sensor 1", now.Add(-10*time.Minute), 31, 31, 31, 31, 31, 31, 31, 31, 31, 31, 31),
	}

	ins, err := p.Generate(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ins.Summary, "Currently, 1 sensor in Dubai")
	assert.Contains(t, ins.Summary, "Temperature in Server Room has been high")
	assert.Contains(t, ins.Summary, "normal 18–28")
	// risk = 10 + 10*dev(1.6) + min(20, 10*1.5) = 10 + 16 + 15 = 41
	assert.Equal(t, 41, ins.RiskScore)
}

func TestLocalProvider_TopThreeLinesOnly(t *testing.T) {
	p := NewLocalProvider()
	base := time.Now().Add(-5 * time.Minute)

	var samples []domain.FlatSample
	samples = append(samples, flatSeries("Temperature Sensor 1", base, 31, 31)...)
	samples = append(samples, flatSeries("Humidity Sensor 1", base, 70, 70)...)
	samples = append(samples, flatSeries("CO2 Sensor 1", base, 900, 900)...)
	samples = append(samples, flatSeries("Light Sensor 1", base, 800, 800)...)

	ins, err := p.Generate(context.Background(), domain.InsightRequest{Facility: "Dubai", Samples: samples})
	assert.NoError(t, err)
	assert.Contains(t, ins.Summary, "Currently, 4 sensors in Dubai")
}

func TestBreaches_TrendAndStatus(t *testing.T) {
	base := time.Now().Add(-30 * time.Minute)

	// steadily climbing past the max
	samples := flatSeries("Temperature Sensor 1", base, 27, 27.5, 28.2, 28.9, 29.6, 30.3)
	details := Breaches(samples)

	assert.Len(t, details, 1)
	d := details[0]
	assert.Equal(t, "Temperature Sensor 1", d.Sensor)
	assert.Equal(t, "Temperature", d.Type)
	assert.Equal(t, domain.DirectionHigh, d.Status)
	assert.Equal(t, "rising", d.Trend)
	assert.NotEmpty(t, d.Since)
}

func TestBreaches_InRangeExcluded(t *testing.T) {
	base := time.Now()
	samples := flatSeries("Humidity Sensor 1", base, 45, 46, 44)
	assert.Empty(t, Breaches(samples))
}

func TestMovingSlope(t *testing.T) {
	assert.Equal(t, float64(0), movingSlope([]float64{1, 2})) // too few points
	assert.InDelta(t, 1.0, movingSlope([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.InDelta(t, -1.0, movingSlope([]float64{5, 4, 3, 2, 1}), 1e-9)
	assert.Equal(t, "steady", trendWord(movingSlope([]float64{3, 3, 3, 3})))
}

func TestScore_AllInRange(t *testing.T) {
	base := time.Now()
	samples := flatSeries("Temperature Sensor 1", base, 22, 23, 22, 23)

	res := Score("Dubai", samples)
	assert.Equal(t, 100, res.Stability)
	assert.Equal(t, res.Stability, res.Score)
	assert.Empty(t, res.TopIssues)
}

func TestScore_BlendsOnIssues(t *testing.T) {
	base := time.Now()
	// flat history with a deviant last sample: z-issue plus threshold breach
	samples := flatSeries("Temperature Sensor 1", base, 23, 23, 23, 23, 23, 23, 23, 23, 35)

	res := Score("Dubai", samples)
	assert.Len(t, res.TopIssues, 1)
	assert.Equal(t, "Temperature Sensor 1", res.TopIssues[0].Sensor)
	// z stability 92, threshold stability 0 → round(92*0.4 + 0*0.6) = 37
	assert.Equal(t, 37, res.Stability)
}

func TestSummary_Sentences(t *testing.T) {
	base := time.Now()

	_, s := Summary("Dubai", flatSeries("Temperature Sensor 1", base, 22, 23, 22))
	assert.Equal(t, "Dubai is 100% stable. No significant anomalies.", s)

	_, s = Summary("Dubai", flatSeries("Temperature Sensor 1", base, 23, 23, 23, 23, 23, 23, 23, 23, 35))
	assert.Contains(t, s, "Notable anomalies: Temperature Sensor 1")
}

func TestService_FallsBackOnRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(NewRemoteProvider(srv.URL))
	base := time.Now()

	ins, remote := svc.Generate(context.Background(), domain.InsightRequest{
		Facility: "Dubai",
		Samples:  flatSeries("Temperature Sensor 1", base, 22, 23),
	})
	assert.False(t, remote)
	assert.Equal(t, 5, ins.RiskScore)
}

func TestService_UsesRemoteWhenHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/insights", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"summary":"remote says fine","riskScore":12,"tips":["tip"]}`))
	}))
	defer srv.Close()

	svc := NewService(NewRemoteProvider(srv.URL))
	ins, remote := svc.Generate(context.Background(), domain.InsightRequest{Facility: "Dubai"})
	assert.True(t, remote)
	assert.Equal(t, "remote says fine", ins.Summary)
	assert.Equal(t, 12, ins.RiskScore)
}

func TestService_RemoteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	svc := NewService(NewRemoteProvider(srv.URL))
	svc.timeout = 50 * time.Millisecond

	_, remote := svc.Generate(context.Background(), domain.InsightRequest{Facility: "Dubai"})
	assert.False(t, remote)
}

func TestService_NoRemote(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.RemoteEnabled())
	assert.False(t, svc.Retrain(context.Background(), "Dubai"))

	ins, remote := svc.Generate(context.Background(), domain.InsightRequest{Facility: "Dubai"})
	assert.False(t, remote)
	assert.NotEmpty(t, ins.Summary)
}

func TestService_RetrainForwardsUpstream(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewService(NewRemoteProvider(srv.URL))
	assert.True(t, svc.Retrain(context.Background(), "Dubai"))
	assert.Equal(t, "/retrain", gotPath)
	assert.Contains(t, gotBody, `"facility":"Dubai"`)
}

func TestService_RetrainReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewService(NewRemoteProvider(srv.URL))
	assert.False(t, svc.Retrain(context.Background(), "Dubai"))
}
