package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptforge/promptforge/credentials"
	"github.com/promptforge/promptforge/logger"
)

// defaultHTTPTimeout bounds one provider round trip. There is no
// application-level timeout on top of it; callers needing a tighter bound
// pass a context deadline.
const defaultHTTPTimeout = 60 * time.Second

// BaseProvider provides common functionality shared across provider
// implementations. Embed it in concrete provider structs.
type BaseProvider struct {
	id     string
	client *http.Client
	cred   credentials.Credential
}

// NewBaseProvider creates a BaseProvider with the given credential.
// A nil client gets a default one with a 60s timeout.
func NewBaseProvider(id string, client *http.Client, cred credentials.Credential) BaseProvider {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cred == nil {
		cred = &credentials.NoOpCredential{}
	}
	return BaseProvider{
		id:     id,
		client: client,
		cred:   cred,
	}
}

// ID returns the provider ID.
func (b *BaseProvider) ID() string {
	return b.id
}

// Close closes the HTTP client's idle connections.
func (b *BaseProvider) Close() error {
	if b.client != nil {
		b.client.CloseIdleConnections()
	}
	return nil
}

// RequestHeaders is a map of HTTP header key-value pairs.
type RequestHeaders map[string]string

// MakeJSONRequest performs a JSON HTTP POST and returns the response status
// and body. Authentication is applied via the configured credential.
//
// Transport failures are returned as network-kind *Error values. A non-2xx
// status is not an error at this level; callers classify it with
// ClassifyHTTPError so provider-specific envelopes stay inspectable.
func (b *BaseProvider) MakeJSONRequest(
	ctx context.Context,
	url string,
	request any,
	headers RequestHeaders,
	providerName string,
) (int, []byte, error) {
	reqBytes, err := json.Marshal(request)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if err := b.cred.Apply(ctx, req); err != nil {
		return 0, nil, fmt.Errorf("failed to apply credential: %w", err)
	}

	// Mask auth headers for logging
	logHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		logHeaders[k] = v
	}
	if auth := req.Header.Get("Authorization"); auth != "" {
		logHeaders["Authorization"] = "***"
	}
	logger.APIRequest(providerName, http.MethodPost, url, logHeaders, json.RawMessage(reqBytes))

	resp, err := b.client.Do(req)
	if err != nil {
		logger.APIResponse(providerName, 0, "", err)
		return 0, nil, NetworkError(err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.APIResponse(providerName, resp.StatusCode, "", err)
		return resp.StatusCode, nil, NetworkError(err)
	}

	logger.APIResponse(providerName, resp.StatusCode, string(respBytes), nil)
	return resp.StatusCode, respBytes, nil
}
