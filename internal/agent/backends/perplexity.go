package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/gobapps/emma-core/internal/agent/model"
	errx "github.com/gobapps/emma-core/internal/core/error"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

const sourcedMaxRetries = 2

// SourcedBackend calls a Perplexity-style chat completions API that answers
// with fresh, citation-backed data.
type SourcedBackend struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	modelName string
	maxTokens int
}

var _ Generator = (*SourcedBackend)(nil)

// NewSourcedBackend builds the sourced backend. An empty API key is allowed
// at construction; Generate then fails with a configuration error so the
// problem surfaces per request instead of crashing startup in dev setups.
func NewSourcedBackend(client *http.Client, baseURL, apiKey, modelName string, maxTokens int) *SourcedBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &SourcedBackend{
		client:    client,
		baseURL:   baseURL,
		apiKey:    apiKey,
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

func (b *SourcedBackend) Name() model.Backend { return model.BackendSourced }

type sourcedRequest struct {
	Model               string           `json:"model"`
	Messages            []sourcedMessage `json:"messages"`
	MaxTokens           int              `json:"max_tokens,omitempty"`
	SearchRecencyFilter string           `json:"search_recency_filter,omitempty"`
}

type sourcedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sourcedResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *SourcedBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if b.apiKey == "" {
		return "", errx.New(errx.ErrBackendConfig, http.StatusInternalServerError, "sourced backend API key not configured")
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.maxTokens
	}
	body, err := json.Marshal(sourcedRequest{
		Model:               b.modelName,
		Messages:            []sourcedMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:           maxTokens,
		SearchRecencyFilter: string(req.Recency),
	})
	if err != nil {
		return "", fmt.Errorf("encode sourced request: %w", err)
	}

	var content string
	operation := func() error {
		text, status, err := b.doRequest(ctx, body)
		if err != nil {
			// Auth and rate-limit rejections will not heal within a
			// request; only transient server/network failures retry.
			switch status {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests, http.StatusBadRequest:
				return backoff.Permanent(errx.WrapBackend(err, status))
			}
			if ctx.Err() != nil {
				return backoff.Permanent(errx.WrapBackend(ctx.Err(), 0))
			}
			logx.Debug().Err(err).Int("status", status).Msg("sourced backend retrying")
			return err
		}
		content = text
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), sourcedMaxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			return "", appErr
		}
		return "", errx.WrapBackend(err, 0)
	}
	return content, nil
}

func (b *SourcedBackend) doRequest(ctx context.Context, body []byte) (string, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("sourced backend status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed sourcedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode sourced response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", resp.StatusCode, fmt.Errorf("sourced backend returned no choices")
	}
	return parsed.Choices[0].Message.Content, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
