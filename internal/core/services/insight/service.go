// Package insight produces natural-language facility health summaries,
// stability scores and actionable tips from recent sensor history. A remote
// service may enrich the output; every path degrades to a local heuristic.
package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
)

// Service front-ends insight generation. The remote provider is optional;
// when it is absent, errors, or exceeds the timeout, the local heuristic
// answers instead so the caller never blocks on a slow upstream.
type Service struct {
	remote  ports.InsightProvider
	local   *LocalProvider
	timeout time.Duration
}

const defaultRemoteTimeout = 6 * time.Second

// NewService builds the service. remote may be nil.
func NewService(remote ports.InsightProvider) *Service {
	return &Service{
		remote:  remote,
		local:   NewLocalProvider(),
		timeout: defaultRemoteTimeout,
	}
}

// Generate returns an insight for the snapshot, preferring the remote
// provider but substituting the local heuristic on any failure. The bool
// reports whether the result came from the remote service.
func (s *Service) Generate(ctx context.Context, req domain.InsightRequest) (domain.Insight, bool) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		ins, err := s.remote.Generate(rctx, req)
		if err == nil {
			// keep the local risk score when the remote omits one
			if ins.RiskScore == 0 {
				if local, lerr := s.local.Generate(ctx, req); lerr == nil {
					ins.RiskScore = local.RiskScore
					if len(ins.Tips) == 0 {
						ins.Tips = local.Tips
					}
				}
			}
			return ins, true
		}
		slog.Warn("remote insight unavailable, using local heuristic", "facility", req.Facility, "error", err)
	}

	ins, _ := s.local.Generate(ctx, req)
	return ins, false
}

// Score rates the facility snapshot.
func (s *Service) Score(facility string, samples []domain.FlatSample) domain.ScoreResult {
	return Score(facility, samples)
}

// Summary renders the score as a sentence.
func (s *Service) Summary(facility string, samples []domain.FlatSample) (domain.ScoreResult, string) {
	return Summary(facility, samples)
}

// Breaches lists the currently out-of-range sensors with trend context.
func (s *Service) Breaches(samples []domain.FlatSample) []domain.BreachDetail {
	return Breaches(samples)
}

// Retrainer is the optional upstream capability of a provider that owns a
// trainable model.
type Retrainer interface {
	Retrain(ctx context.Context, facility string) error
}

// Retrain forwards a retrain request upstream when the remote provider
// supports it. The local heuristic has no model to retrain, so without a
// remote this is a recorded no-op; true means the upstream accepted the
// request.
func (s *Service) Retrain(ctx context.Context, facility string) bool {
	rt, ok := s.remote.(Retrainer)
	if !ok {
		slog.Info("retrain requested with no retrainable provider", "facility", facility)
		return false
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := rt.Retrain(rctx, facility); err != nil {
		slog.Warn("retrain request failed", "facility", facility, "error", err)
		return false
	}
	slog.Info("retrain forwarded", "facility", facility)
	return true
}

// RemoteEnabled reports whether a remote provider is configured.
func (s *Service) RemoteEnabled() bool {
	return s.remote != nil
}
