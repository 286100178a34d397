package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Raj-Vaghela/AI-Architect/config"
	apperrors "github.com/Raj-Vaghela/AI-Architect/errors"
	"go.uber.org/zap"
)

// Embedding request/response mirror the OpenAI embeddings schema, which
// llama.cpp and most local servers also speak.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	policy     RetryPolicy
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.EmbedRequestTimeout},
		policy:     DefaultRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds, cfg.BackoffMaxSeconds),
		logger:     logger,
	}
}

// Embed generates an embedding vector for text. Rate-limit responses are
// retried under the client's policy; other upstream failures are returned
// to the caller, which records them and moves on.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	err := c.policy.Do(ctx, func() error {
		var callErr error
		embedding, callErr = c.embedOnce(ctx, text)
		if apperrors.IsRateLimited(callErr) {
			c.logger.Warn("Embedding service rate limited, backing off")
		}
		return callErr
	})
	return embedding, err
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{Model: c.cfg.EmbeddingModel, Input: text}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(c.cfg.EmbeddingHost, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.EmbeddingAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.EmbeddingAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrEmbeddingService, err.Error())
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, apperrors.WrapErrorf(apperrors.ErrRateLimited,
			"embedding server status %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.WrapErrorf(apperrors.ErrEmbeddingService,
			"embedding server status %s: %s", resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	var er embeddingResponse
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, apperrors.WrapError(apperrors.ErrEmbeddingService, "embedding response was empty")
	}
	return er.Data[0].Embedding, nil
}
