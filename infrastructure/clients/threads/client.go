package threads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
	"github.com/hayatoa/threads-auto-post-gs/domain/repository"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const defaultHTTPTimeout = 30 * time.Second

// Config represents the Threads Graph API client configuration.
type Config struct {
	UserID      string
	AccessToken string
	// APIBase is the Graph API root, e.g. https://graph.threads.net/v1.0.
	APIBase string
	// HTTPTimeout applies per attempt; zero means 30s.
	HTTPTimeout time.Duration
	// Retry overrides the default policy when MaxAttempts > 0.
	Retry RetryPolicy
}

// Client talks to the Threads Graph API on behalf of one user.
type Client struct {
	userID      string
	accessToken string
	apiBase     string
	retry       RetryPolicy
	httpClient  *http.Client
}

// NewThreadsClient creates a new Threads API client.
func NewThreadsClient(cfg *Config) repository.IThreads {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &Client{
		userID:      cfg.UserID,
		accessToken: cfg.AccessToken,
		apiBase:     cfg.APIBase,
		retry:       retry,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// CreateContainer creates a media container for the user. Text posts sent
// with auto_publish_text go live from this single call.
func (c *Client) CreateContainer(ctx context.Context, req *dto.CreateContainerRequest) (*dto.ContainerResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal container payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s/threads", c.apiBase, c.userID)
	var out dto.ContainerResponse
	if err := c.postWithRetry(ctx, url, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishContainer publishes a previously created container. The post is
// only live once this call succeeds.
func (c *Client) PublishContainer(ctx context.Context, creationID string) (*dto.PublishResponse, error) {
	params, err := query.Values(dto.PublishContainerParams{CreationID: creationID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode publish params: %w", err)
	}
	url := fmt.Sprintf("%s/%s/threads_publish?%s", c.apiBase, c.userID, params.Encode())
	var out dto.PublishResponse
	if err := c.postWithRetry(ctx, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postWithRetry issues a POST under the retry policy. HTTP >= 400 is an
// error carrying the status code and response body; the error of the last
// exhausted attempt propagates unchanged.
func (c *Client) postWithRetry(ctx context.Context, url string, payload []byte, out interface{}) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Threads API request failed")
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}
