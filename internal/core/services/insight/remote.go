package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// RemoteProvider calls an external insight service over HTTP. Callers are
// expected to bound the request with a context deadline; the provider itself
// never retries.
type RemoteProvider struct {
	baseURL string
	client  *http.Client
}

func NewRemoteProvider(baseURL string) *RemoteProvider {
	return &RemoteProvider{
		baseURL: baseURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Generate posts the snapshot to the remote /insights endpoint and decodes
// its {summary, riskScore, tips} response.
func (p *RemoteProvider) Generate(ctx context.Context, req domain.InsightRequest) (domain.Insight, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("encoding insight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/insights", bytes.NewReader(body))
	if err != nil {
		return domain.Insight{}, fmt.Errorf("building insight request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("calling insight service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Insight{}, fmt.Errorf("insight service returned %d", resp.StatusCode)
	}

	var out domain.Insight
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Insight{}, fmt.Errorf("decoding insight response: %w", err)
	}
	return out, nil
}

// Retrain posts a retrain request for the facility's model to the remote
// /retrain endpoint.
func (p *RemoteProvider) Retrain(ctx context.Context, facility string) error {
	body, err := json.Marshal(map[string]string{"facility": facility})
	if err != nil {
		return fmt.Errorf("encoding retrain request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/retrain", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building retrain request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling insight service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("insight service returned %d", resp.StatusCode)
	}
	return nil
}
