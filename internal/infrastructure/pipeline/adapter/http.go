package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lingo-bridge/internal/infrastructure/pipeline/port"
)

// Speech pipelines are slow; the per-call ceiling is minutes, not seconds.
const defaultDispatchTimeout = 5 * time.Minute

// HTTPClient implements port.Client against the translation worker's REST
// surface: POST {base}/pipeline/{kind}.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClientFromEnv constructs a client using the PIPELINE_API_URL env var.
func NewHTTPClientFromEnv() (*HTTPClient, error) {
	base := strings.TrimSpace(os.Getenv("PIPELINE_API_URL"))
	if base == "" {
		return nil, errors.New("pipeline: PIPELINE_API_URL environment variable is not set")
	}
	return NewHTTPClient(base, nil), nil
}

// NewHTTPClient builds a client for the given base URL. A nil httpClient gets
// a default with the dispatch timeout applied.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultDispatchTimeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Ensure interface is satisfied
var _ port.Client = (*HTTPClient)(nil)

type dispatchBody struct {
	MessageID  string `json:"messageId"`
	AudioURL   string `json:"audioUrl,omitempty"`
	Text       string `json:"text,omitempty"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

type dispatchResponse struct {
	MessageID     string `json:"messageId"`
	CorrelationID string `json:"correlationId"`
	Detail        string `json:"detail"`
}

func (c *HTTPClient) Dispatch(ctx context.Context, req port.Request) (string, error) {
	if req.MessageID == "" || req.Kind == "" {
		return "", errors.New("pipeline: messageId and kind are required")
	}

	body, err := json.Marshal(dispatchBody{
		MessageID:  req.MessageID,
		AudioURL:   req.AudioURL,
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		return "", fmt.Errorf("pipeline: encode request: %w", err)
	}

	url := c.baseURL + "/pipeline/" + req.Kind
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("pipeline: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", port.ErrUnavailable, err)
	}

	var decoded dispatchResponse
	_ = json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Semantic rejection: the worker understood the request and refused
		// the content.
		return "", &port.RejectionError{StatusCode: resp.StatusCode, Detail: decoded.Detail}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: status %d", port.ErrUnavailable, resp.StatusCode)
	}

	if decoded.CorrelationID != "" {
		return decoded.CorrelationID, nil
	}
	if decoded.MessageID != "" {
		return decoded.MessageID, nil
	}
	return "", fmt.Errorf("%w: malformed accept body", port.ErrUnavailable)
}
