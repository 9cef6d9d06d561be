package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	analysisdomain "github.com/pulseware/platform/internal/analysis/domain"
	"github.com/pulseware/platform/internal/config"
	pricingdomain "github.com/pulseware/platform/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provider calls the configured interpretation endpoint. When no endpoint is
// configured it degrades to a stub that echoes the input back as the report.
type Provider struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func NewProvider(p Params) analysisdomain.Interpreter {
	timeout := time.Duration(p.Cfg.AI.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		endpoint: p.Cfg.AI.Endpoint,
		apiKey:   p.Cfg.AI.APIKey,
		client:   &http.Client{Timeout: timeout},
		log:      p.Log.Named("providers.ai"),
	}
}

type interpretRequest struct {
	AnalysisType string         `json:"analysis_type"`
	Input        map[string]any `json:"input"`
}

func (p *Provider) Interpret(ctx context.Context, analysisType pricingdomain.AnalysisType, input map[string]any) ([]byte, error) {
	if p.endpoint == "" {
		report, err := json.Marshal(map[string]any{
			"analysis_type": analysisType,
			"input":         input,
			"stub":          true,
		})
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	body, err := json.Marshal(interpretRequest{
		AnalysisType: string(analysisType),
		Input:        input,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	report, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		p.log.Warn("interpretation endpoint returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("analysis_type", string(analysisType)),
		)
		return nil, fmt.Errorf("interpretation endpoint status %d", resp.StatusCode)
	}
	return report, nil
}

var Module = fx.Module("providers.ai",
	fx.Provide(NewProvider),
)
