package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*GeminiProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewGeminiProvider(GeminiConfig{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		EmbeddingModel:  "text-embedding",
		GenerationModel: "gen-model",
	}, zap.NewNop())
	return p, srv
}

func TestEmbedParsesResponse(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		fmt.Fprint(w, `{"embedding":{"values":[0.1,0.2,0.3]}}`)
	})
	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedClassifiesThrottledAsRetryable(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"rate limited"}`)
	})
	_, err := p.Embed(context.Background(), "hello")
	require.Error(t, err)
	var unavailable *ProviderUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestEmbedClassifiesBadRequestAsNonRetryable(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"bad request"}`)
	})
	_, err := p.Embed(context.Background(), "hello")
	require.Error(t, err)
	var failure *ProviderFailure
	require.ErrorAs(t, err, &failure)
}

func TestGenerateHandlesArrayShape(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"candidates":[{"content":{"parts":[{"text":"Hello "}]}}]},`+
			`{"candidates":[{"content":{"parts":[{"text":"world"}]}}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}}]`)
	})
	ch := p.Generate(context.Background(), "say hi", GenerateOptions{})
	var text string
	var usage *Usage
	for ev := range ch {
		require.NoError(t, ev.Err)
		text += ev.Text
		if ev.Usage != nil {
			usage = ev.Usage
		}
	}
	assert.Equal(t, "Hello world", text)
	require.NotNil(t, usage)
	assert.Equal(t, 7, usage.TotalTokens)
}

func TestGenerateHandlesSingleObjectShape(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"single shot"}]}}]}`)
	})
	ch := p.Generate(context.Background(), "say hi", GenerateOptions{})
	var text string
	for ev := range ch {
		require.NoError(t, ev.Err)
		text += ev.Text
	}
	assert.Equal(t, "single shot", text)
}

func TestGenerateHandlesSSEFramedNDJSON(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"foo\"}]}}]}\n"+
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"bar\"}]}}]}\n"+
			"data: [DONE]\n")
	})
	ch := p.Generate(context.Background(), "say hi", GenerateOptions{})
	var text string
	for ev := range ch {
		require.NoError(t, ev.Err)
		text += ev.Text
	}
	assert.Equal(t, "foobar", text)
}

func TestGenerateHandlesPlainNDJSON(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\n"+
			"{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}]}\n")
	})
	ch := p.Generate(context.Background(), "say hi", GenerateOptions{})
	var text string
	for ev := range ch {
		require.NoError(t, ev.Err)
		text += ev.Text
	}
	assert.Equal(t, "ab", text)
}
