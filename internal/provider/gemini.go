package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GeminiConfig configures a GeminiProvider. BaseURL and the two model names
// point at a Gemini-compatible REST API; APIKey is sent as a header rather
// than a query parameter.
type GeminiConfig struct {
	BaseURL               string
	APIKey                string
	EmbeddingModel        string
	GenerationModel       string
	HTTPTimeout           time.Duration
	GenerationHTTPTimeout time.Duration
}

// GeminiProvider is the HTTP-based Provider implementation. It talks to the
// REST surface directly instead of the vendor SDK so that response parsing
// stays under our control (see parse.go). Embed and Generate use separate
// http.Clients because generation calls routinely run far longer than
// embedding calls and need their own timeout budget.
type GeminiProvider struct {
	cfg       GeminiConfig
	client    *http.Client
	genClient *http.Client
	log       *zap.Logger
}

func NewGeminiProvider(cfg GeminiConfig, log *zap.Logger) *GeminiProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	genTimeout := cfg.GenerationHTTPTimeout
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &GeminiProvider{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		genClient: &http.Client{Timeout: genTimeout},
		log:       log,
	}
}

type embedRequestBody struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	reqID := uuid.NewString()
	body := embedRequestBody{}
	body.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("provider: marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", p.cfg.BaseURL, p.cfg.EmbeddingModel)
	respBody, status, err := p.doRequest(ctx, reqID, url, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, classifyStatus(status, respBody)
	}

	vec, err := parseEmbedBody(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w (request_id=%s)", ErrParse, reqID)
	}
	return vec, nil
}

type generateRequestBody struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float32 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		reqID := uuid.NewString()
		body := generateRequestBody{}
		body.Contents = []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		}{{Parts: []struct {
			Text string `json:"text"`
		}{{Text: prompt}}}}
		body.GenerationConfig.MaxOutputTokens = opts.MaxOutputTokens
		body.GenerationConfig.Temperature = opts.Temperature

		payload, err := json.Marshal(body)
		if err != nil {
			out <- StreamEvent{Err: fmt.Errorf("provider: marshal generate request: %w", err)}
			return
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent", p.cfg.BaseURL, p.cfg.GenerationModel)
		respBody, status, err := p.doRequestWith(ctx, p.genClient, reqID, url, payload)
		if err != nil {
			out <- StreamEvent{Err: err}
			return
		}
		if status != http.StatusOK {
			out <- StreamEvent{Err: classifyStatus(status, respBody)}
			return
		}

		fragments, usage, err := parseStreamBody(respBody)
		if err != nil {
			out <- StreamEvent{Err: fmt.Errorf("%w (request_id=%s)", ErrParse, reqID)}
			return
		}

		for _, f := range fragments {
			select {
			case out <- StreamEvent{Text: f}:
			case <-ctx.Done():
				out <- StreamEvent{Err: ctx.Err()}
				return
			}
		}
		if usage != nil {
			out <- StreamEvent{Usage: usage}
		}
	}()

	return out
}

// doRequest issues a single POST and returns the raw body and status code.
// It does not retry — retry policy belongs to internal/embedding, which is
// the only caller that needs it (Generate is never retried; the
// HypotheticalDocument retrieval strategy falls back to Direct when its
// generation call fails).
func (p *GeminiProvider) doRequest(ctx context.Context, requestID, url string, payload []byte) ([]byte, int, error) {
	return p.doRequestWith(ctx, p.client, requestID, url, payload)
}

// doRequestWith is doRequest parameterized over which client to use, so
// Embed and Generate can run under independent timeout budgets.
func (p *GeminiProvider) doRequestWith(ctx context.Context, client *http.Client, requestID, url string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := client.Do(req)
	if err != nil {
		p.log.Debug("provider request failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return respBody, resp.StatusCode, nil
}

// classifyStatus maps an HTTP status to the retryable/non-retryable error
// types internal/embedding switches on.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return &ProviderUnavailable{Status: status, Body: string(body)}
	default:
		return &ProviderFailure{Status: status, Body: string(body)}
	}
}
