package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/spigell/skillgap/internal/embedding"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeResult struct {
	resp *genai.EmbedContentResponse
	err  error
}

type fakeClient struct {
	queue   []fakeResult
	calls   int
	model   string
	config  *genai.EmbedContentConfig
	content []*genai.Content
}

func (f *fakeClient) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	f.content = contents
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func vectorResponse(values ...float32) *genai.EmbedContentResponse {
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: values}},
	}
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	original := wait
	var delays []time.Duration
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &delays
}

func TestEmbedderReturnsVector(t *testing.T) {
	client := &fakeClient{queue: []fakeResult{{resp: vectorResponse(0.5, -0.25)}}}
	e := newEmbedder(client, Config{Dimension: 2}, nil)

	vec, err := e.Embed(context.Background(), "Python editing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Fatalf("unexpected vector: %v", vec)
	}

	if client.model != DefaultModel {
		t.Fatalf("expected default model, got %q", client.model)
	}
	if client.config == nil || client.config.OutputDimensionality == nil || *client.config.OutputDimensionality != 2 {
		t.Fatalf("expected output dimensionality 2, got %+v", client.config)
	}
	if client.config.TaskType != taskType {
		t.Fatalf("unexpected task type %q", client.config.TaskType)
	}
	if len(client.content) != 1 || client.content[0].Parts[0].Text != "Python editing" {
		t.Fatalf("unexpected content: %+v", client.content)
	}
}

func TestEmbedderDefaults(t *testing.T) {
	e := newEmbedder(&fakeClient{}, Config{Model: "  "}, nil)

	if e.Dimension() != embedding.DefaultDimension {
		t.Fatalf("expected default dimension, got %d", e.Dimension())
	}
	if e.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", e.Model())
	}
	if e.maxRetries != defaultMaxRetries || e.maxLogLen != defaultMaxLogLength {
		t.Fatalf("unexpected defaults: retries=%d log=%d", e.maxRetries, e.maxLogLen)
	}
}

func TestEmbedderEmptyResponse(t *testing.T) {
	client := &fakeClient{queue: []fakeResult{{resp: &genai.EmbedContentResponse{}}}}
	e := newEmbedder(client, Config{}, nil)

	_, err := e.Embed(context.Background(), "text")
	if !errors.Is(err, embedding.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestEmbedderRetriesOnTemporaryError(t *testing.T) {
	delays := stubWait(t)

	core, logs := observer.New(zap.WarnLevel)
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	client := &fakeClient{queue: []fakeResult{
		{err: tempErr},
		{resp: vectorResponse(1)},
	}}
	e := newEmbedder(client, Config{Dimension: 1, MaxRetries: 2}, zap.New(core))

	vec, err := e.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 1 || vec[0] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
	if len(*delays) != 1 || (*delays)[0] != baseRetryDelay {
		t.Fatalf("unexpected delays: %v", *delays)
	}
	if logs.FilterMessage("gemini embed content failed, retrying").Len() != 1 {
		t.Fatalf("expected one retry log entry, got %d", logs.Len())
	}
}

func TestEmbedderStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	client := &fakeClient{queue: []fakeResult{{err: tempErr}, {err: tempErr}, {err: tempErr}}}
	e := newEmbedder(client, Config{MaxRetries: 2}, nil)

	_, err := e.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestEmbedderDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	stubWait(t)

	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	client := &fakeClient{queue: []fakeResult{{err: quotaErr}}}
	e := newEmbedder(client, Config{MaxRetries: 3}, nil)

	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if client.calls != 1 {
		t.Fatalf("expected single call, got %d", client.calls)
	}
}

func TestEmbedderDoesNotRetryClientErrors(t *testing.T) {
	stubWait(t)

	client := &fakeClient{queue: []fakeResult{{err: genai.APIError{Code: http.StatusBadRequest}}}}
	e := newEmbedder(client, Config{MaxRetries: 3}, nil)

	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Fatalf("expected single call, got %d", client.calls)
	}
}

func TestEmbedderStopsWhenContextDone(t *testing.T) {
	original := wait
	wait = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	t.Cleanup(func() { wait = original })

	client := &fakeClient{queue: []fakeResult{{err: genai.APIError{Code: http.StatusInternalServerError}}}}
	e := newEmbedder(client, Config{MaxRetries: 3}, nil)

	_, err := e.Embed(context.Background(), "text")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{name: "plain error", err: errors.New("dial tcp"), attempt: 1},
		{name: "server error backoff", err: genai.APIError{Code: 500}, attempt: 2, wantDelay: 2 * time.Second, wantRetry: true},
		{name: "pointer api error", err: &genai.APIError{Code: 502}, attempt: 1, wantDelay: time.Second, wantRetry: true},
		{name: "wrapped api error", err: fmt.Errorf("call: %w", genai.APIError{Code: 503}), attempt: 1, wantDelay: time.Second, wantRetry: true},
		{name: "short quota delay", err: genai.APIError{Code: 429, Message: "Please retry in 3.5s."}, attempt: 1, wantDelay: 3500 * time.Millisecond, wantRetry: true},
		{name: "quota without delay", err: genai.APIError{Code: 429, Message: "slow down"}, attempt: 1, wantDelay: time.Second, wantRetry: true},
		{name: "long quota delay", err: genai.APIError{Code: 429, Message: "retry after 60 seconds"}, attempt: 1},
		{name: "bad request", err: genai.APIError{Code: 400}, attempt: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := retryDelay(tt.err, tt.attempt)
			if retry != tt.wantRetry || delay != tt.wantDelay {
				t.Fatalf("expected (%s, %t), got (%s, %t)", tt.wantDelay, tt.wantRetry, delay, retry)
			}
		})
	}
}
