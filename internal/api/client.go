// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api talks to the leaflens analysis backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoResponse indicates the backend could not be reached or sent
	// nothing usable. The transcript shows NoResponseText for it.
	ErrNoResponse = errors.New("no response from server")

	// ErrRateLimited indicates the client-side limiter rejected the call.
	ErrRateLimited = errors.New("rate limited")
)

// NoResponseText is the exact transcript line shown when the backend is
// unreachable. Tests and long-time users key off this wording.
const NoResponseText = "No response from server. Check if the backend is running."

// ServerError is a failure the backend itself reported, either as a
// non-2xx status or as an error payload in a 200 response.
type ServerError struct {
	Status    int
	Message   string
	Traceback string
}

func (e *ServerError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error: %s", e.Message)
}

// TranscriptText renders the error the way it appears as an assistant
// turn: the message, plus the traceback when the backend sent one.
func (e *ServerError) TranscriptText() string {
	if e.Traceback == "" {
		return "Error: " + e.Message
	}
	return fmt.Sprintf("Error: %s\n\nTraceback: %s", e.Message, e.Traceback)
}

// =============================================================================
// CLIENT
// =============================================================================

const (
	// DefaultBaseURL matches the backend's development address.
	DefaultBaseURL = "http://localhost:8000"

	defaultTimeout = 120 * time.Second
	maxResponseLen = 10 << 20
	maxRetries     = 2
)

// Request is one analysis call. Image carries the raw upload bytes, not
// the compressed preview; History carries prior turns only, text-only.
type Request struct {
	Image              []byte
	ImageName          string
	Prompt             string
	SystemInstructions string
	History            []model.HistoryEntry
}

// Client posts analysis requests to the backend. Zero-value construction
// is not supported; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
}

// New creates a client for the backend at baseURL (DefaultBaseURL when
// empty). Outbound calls are limited to a burst of five and one request
// per second sustained, plenty for an interactive client.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 5),
		retries:    maxRetries,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithRetries sets how many times transient failures are retried.
func (c *Client) WithRetries(n int) *Client {
	c.retries = n
	return c
}

// BaseURL returns the backend address this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// ANALYZE
// =============================================================================

// analyzeResponse is the backend's reply envelope. A 200 can still carry
// an error; that counts as a backend-reported failure, same as a non-2xx
// status.
type analyzeResponse struct {
	Response  string `json:"response"`
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Traceback string `json:"traceback"`
}

// Analyze posts the image, prompt, persona and history to /analyze-image
// and returns the reply text.
//
// Failures divide three ways: a *ServerError when the backend reported
// one, ErrNoResponse when it could not be reached, and a plain wrapped
// error when the request could not even be built.
func (c *Client) Analyze(ctx context.Context, req Request) (string, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		reply, retryable, err := c.doAnalyze(ctx, body, contentType)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (c *Client) doAnalyze(ctx context.Context, body []byte, contentType string) (reply string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-image", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		serverErr := decodeServerError(resp.StatusCode, data)
		return "", isTransient(resp.StatusCode), serverErr
	}

	var envelope analyzeResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", false, fmt.Errorf("%w: undecodable body", ErrNoResponse)
	}

	if envelope.Error != "" {
		// The backend answered but the analysis failed. Status stays 0 to
		// mark the envelope case; callers treat it like any server error.
		tb := envelope.Traceback
		if tb == "" {
			tb = "No traceback available"
		}
		return "", false, &ServerError{Message: envelope.Error, Traceback: tb}
	}
	return envelope.Response, false, nil
}

// decodeServerError maps a non-2xx body onto a ServerError, falling back
// to the raw body or status text when the payload is not JSON.
func decodeServerError(status int, data []byte) *ServerError {
	var envelope analyzeResponse
	if err := json.Unmarshal(data, &envelope); err == nil {
		msg := envelope.Error
		if msg == "" {
			msg = envelope.Detail
		}
		if msg != "" {
			return &ServerError{Status: status, Message: msg, Traceback: envelope.Traceback}
		}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ServerError{Status: status, Message: msg}
}

func isTransient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
}

// =============================================================================
// FORM ENCODING
// =============================================================================

// encodeForm builds the multipart body once so retries can replay it.
// Field names are the backend's contract: image, prompt,
// system_instructions, and history as a JSON array of {isUser, content}.
// History is omitted entirely for the first turn.
func encodeForm(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if len(req.Image) > 0 {
		name := req.ImageName
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to add image: %w", err)
		}
		if _, err := part.Write(req.Image); err != nil {
			return nil, "", fmt.Errorf("failed to add image: %w", err)
		}
	}

	if err := w.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", fmt.Errorf("failed to add prompt: %w", err)
	}
	if err := w.WriteField("system_instructions", req.SystemInstructions); err != nil {
		return nil, "", fmt.Errorf("failed to add system instructions: %w", err)
	}

	if len(req.History) > 0 {
		hist, err := json.Marshal(req.History)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode history: %w", err)
		}
		if err := w.WriteField("history", string(hist)); err != nil {
			return nil, "", fmt.Errorf("failed to add history: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
