package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harun/kspar/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 120 * time.Second
	maxBodyBytes   = 8 << 20
	maxErrorBody   = 512
)

// Options configures a Client.
type Options struct {
	BaseURL string
	UserID  string

	// Timeout bounds a single HTTP request. Zero means two minutes.
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client

	// RequestsPerSecond paces calls to the runtime. Zero disables pacing.
	RequestsPerSecond float64

	Logger zerolog.Logger
}

// Client talks to the agent runtime's session and run endpoints.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a runtime client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("runtime base URL is required")
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid runtime base URL %q", opts.BaseURL)
	}
	if opts.UserID == "" {
		return nil, fmt.Errorf("runtime user ID is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		userID:  opts.UserID,
		http:    httpClient,
		limiter: limiter,
		logger:  opts.Logger.With().Str("component", "runtime-client").Logger(),
	}, nil
}

// UserID returns the user every session and run is attributed to.
func (c *Client) UserID() string {
	return c.userID
}

// SessionURL returns the session endpoint for app and sessionID.
func (c *Client) SessionURL(app, sessionID string) string {
	return fmt.Sprintf("%s/apps/%s/users/%s/sessions/%s",
		c.baseURL, url.PathEscape(app), url.PathEscape(c.userID), url.PathEscape(sessionID))
}

// RunURL returns the run endpoint.
func (c *Client) RunURL() string {
	return c.baseURL + "/run"
}

// CreateSession registers sessionID with the given context for one agent app.
func (c *Client) CreateSession(ctx context.Context, app, sessionID string, sessionContext map[string]any) error {
	if sessionContext == nil {
		sessionContext = map[string]any{}
	}

	ctx, span := tracing.StartSpan(ctx, "kspar.runtime", "runtime.create_session",
		attribute.String("app", app),
		attribute.String("session_id", sessionID),
	)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sessionURL := c.SessionURL(app, sessionID)
	logger := tracing.LoggerFromContext(ctx, c.logger)
	logger.Debug().Str("app", app).Str("url", sessionURL).Msg("Registering session")

	_, err = c.post(ctx, "create session", sessionURL, sessionContext)
	return err
}

// Run sends input to app within sessionID and returns the agent's structured output.
func (c *Client) Run(ctx context.Context, app, sessionID string, input any) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "kspar.runtime", "runtime.run",
		attribute.String("app", app),
		attribute.String("session_id", sessionID),
	)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	payload, err := json.Marshal(input)
	if err != nil {
		err = fmt.Errorf("failed to encode %s input: %w", app, err)
		return nil, err
	}

	req := RunRequest{
		AppName:   app,
		UserID:    c.userID,
		SessionID: sessionID,
		NewMessage: Content{
			Role:  RoleUser,
			Parts: []Part{{Text: string(payload)}},
		},
	}

	logger := tracing.LoggerFromContext(ctx, c.logger).With().Str("app", app).Logger()
	logger.Debug().Str("url", c.RunURL()).Msg("Calling agent via /run")

	body, err := c.post(ctx, "run "+app, c.RunURL(), req)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("events", EventCount(body)).Msg("Agent responded")

	out, err := ExtractOutput(body)
	if err != nil {
		err = fmt.Errorf("%s: %w", app, err)
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, op, target string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(truncate(string(respBody), maxErrorBody)),
		}
	}

	return respBody, nil
}
