// Package gemini provides an embedding.Embedder backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/skillgap/internal/embedding"
	"github.com/spigell/skillgap/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel        = "gemini-embedding-001"
	defaultMaxRetries   = 2
	defaultMaxLogLength = 200

	// vectors are compared with cosine similarity
	taskType = "SEMANTIC_SIMILARITY"

	baseRetryDelay = time.Second
	maxQuotaDelay  = 10 * time.Second
)

var (
	wait = utils.WaitFor

	quotaDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?) ?s`)
)

type embedClient interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config describes how to reach the embedding model.
type Config struct {
	APIKey       string
	Model        string
	Dimension    int
	MaxRetries   int
	MaxLogLength int
}

// Embedder requests embeddings from Gemini with a fixed output dimension.
type Embedder struct {
	client     embedClient
	model      string
	dimension  int
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// New creates an Embedder configured for the Gemini API backend.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, cfg, logger), nil
}

func newEmbedder(client embedClient, cfg Config, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	e := &Embedder{
		client:     client,
		model:      model,
		dimension:  cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		maxLogLen:  cfg.MaxLogLength,
		logger:     logger,
	}

	if e.dimension <= 0 {
		e.dimension = embedding.DefaultDimension
	}
	if e.maxRetries <= 0 {
		e.maxRetries = defaultMaxRetries
	}
	if e.maxLogLen <= 0 {
		e.maxLogLen = defaultMaxLogLength
	}

	return e
}

// Embed returns the embedding of text. Transient API errors are retried;
// maxRetries bounds the total number of attempts.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e == nil || e.client == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	dim := int32(e.dimension)
	cfg := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dim,
	}

	e.logger.Debug("gemini embed content request",
		zap.String("model", e.model),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", utils.TruncateForLog(text, e.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.client.EmbedContent(ctx, e.model, genai.Text(text), cfg)
		if err == nil {
			return e.vector(resp)
		}

		lastErr = err
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == e.maxRetries {
			break
		}

		e.logger.Warn("gemini embed content failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, fmt.Errorf("wait before retry: %w", err)
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func (e *Embedder) vector(resp *genai.EmbedContentResponse) ([]float64, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, embedding.ErrEmptyResponse
	}

	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}

	e.logger.Debug("gemini embed content response",
		zap.String("model", e.model),
		zap.Int("dimension", len(vec)),
	)

	return vec, nil
}

func (e *Embedder) Dimension() int {
	if e == nil {
		return 0
	}
	return e.dimension
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

// retryDelay reports whether err is worth another attempt and how long to
// wait first. Quota errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	backoff := baseRetryDelay << (attempt - 1)

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	case apiErr.Code == http.StatusTooManyRequests:
		delay, found := quotaDelay(apiErr.Message)
		if !found {
			return backoff, true
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}

	return genai.APIError{}, false
}

func quotaDelay(message string) (time.Duration, bool) {
	m := quotaDelayPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}
