package revai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/observability"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

const DefaultBaseURL = "https://api.rev.ai/speechtotext/v1"

const defaultPollInterval = 10 * time.Second

// Client talks to the asynchronous speech-to-text jobs API. The provider
// keeps all job state; the client is stateless apart from configuration.
type Client struct {
	baseURL      string
	accessToken  string
	httpClient   *http.Client
	pollInterval time.Duration
	validator    *media.Validator
	metrics      *observability.Metrics
	log          *logger.Logger
}

type ClientConfig struct {
	BaseURL     string
	AccessToken string
	// HTTPClient is optional and defaults to a 30s-timeout client.
	HTTPClient   *http.Client
	PollInterval time.Duration
	// Validator, when set, rejects unsupported media formats at submit time.
	Validator *media.Validator
	Metrics   *observability.Metrics
	Logger    *logger.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New()
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		accessToken:  cfg.AccessToken,
		httpClient:   cfg.HTTPClient,
		pollInterval: cfg.PollInterval,
		validator:    cfg.Validator,
		metrics:      cfg.Metrics,
		log:          cfg.Logger.WithComponent("revai"),
	}
}

// Submit registers a new transcription job for a hosted media URL.
//
// Every job needs at least one completion-detection path: a notification
// callback or a caller that waits synchronously. Submissions with neither
// would leave the result unreachable, so they are rejected up front.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if c.validator != nil {
		if ok, reason := c.validator.Validate(req.MediaURL); !ok {
			return nil, &media.ValidationError{Reason: reason}
		}
	}
	if c.accessToken == "" {
		return nil, &ConfigurationError{Reason: "no speech-to-text API key configured"}
	}
	if req.NotificationConfig == nil && !req.AwaitCompletion {
		return nil, &ConfigurationError{Reason: "job has no completion path: configure a callback URL or request a synchronous wait"}
	}

	var job Job
	if err := c.call(ctx, "submit_job", http.MethodPost, "/jobs", req, &job); err != nil {
		return nil, err
	}
	c.log.WithField("job_id", job.ID).WithField("media_url", req.MediaURL).Info("transcription job submitted")
	return &job, nil
}

// JobDetails fetches the current provider state for a job.
func (c *Client) JobDetails(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.call(ctx, "get_job", http.MethodGet, "/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Transcript fetches the completed transcript for a job.
func (c *Client) Transcript(ctx context.Context, jobID string) (*Transcript, error) {
	var tr Transcript
	if err := c.call(ctx, "get_transcript", http.MethodGet, "/jobs/"+jobID+"/transcript", nil, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// WaitForCompletion polls the job at a fixed interval until it reaches a
// terminal status or maxWait elapses. Only the calling goroutine blocks.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string, maxWait time.Duration) (*Job, error) {
	start := time.Now()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.JobDetails(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case types.StatusCompleted:
			return job, nil
		case types.StatusFailed:
			return nil, &JobFailedError{JobID: jobID, Failure: job.Failure, Detail: job.FailureDetail}
		}

		if time.Since(start) >= maxWait {
			return nil, &TimeoutError{JobID: jobID, Waited: maxWait}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// call executes one provider request and decodes the response into v.
// Non-2xx responses become ProviderError carrying the provider's detail.
func (c *Client) call(ctx context.Context, op, method, path string, body, v interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveProviderRequest(op, time.Since(start).Seconds())
	}
	if err != nil {
		return &ProviderError{Op: op, Detail: err.Error()}
	}
	defer resp.Body.Close()

	resBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Op: op, Status: resp.StatusCode, Detail: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return &ProviderError{Op: op, Status: resp.StatusCode, Detail: errorDetail(resBody)}
	}

	if v != nil {
		if err := json.Unmarshal(resBody, v); err != nil {
			return &ProviderError{Op: op, Status: resp.StatusCode, Detail: "malformed response: " + err.Error()}
		}
	}
	return nil
}

// errorDetail pulls the human-readable message out of a provider error
// body, falling back to the raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case parsed.Title != "":
			return parsed.Title
		case parsed.Error != "":
			return parsed.Error
		}
	}
	return string(body)
}
