// Package gateway implements the REST client for the remote LMS API, the
// source of truth for every role, entitlement, and grading decision. The
// client renders server responses into domain types and nothing more.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to the LMS API over HTTP. Authorized requests read the
// bearer token from the token store on every call, so a token written by
// the session store is picked up without re-wiring.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenStore
	log     zerolog.Logger
}

func NewClient(baseURL string, tokens ports.TokenStore, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		log:     log,
	}
}

// Ping reports reachability of the gateway host. Any HTTP response counts;
// only a transport-level failure is an error.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrGatewayUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

// do executes one JSON round trip. A non-2xx response is decoded into a
// domain error; a 2xx response body is unmarshalled into out when given.
func (c *Client) do(ctx context.Context, method, path string, body any, authorized bool, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		pair, err := c.tokens.Load(ctx)
		if err != nil {
			return fmt.Errorf("%s %s: load tokens: %w", method, path, err)
		}
		if pair.Empty() {
			return domain.ErrNoIdentity
		}
		req.Header.Set("Authorization", "Bearer "+pair.Access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("gateway rejected request")
		return decodeAPIError(resp.StatusCode, raw, authorized)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// decodeAPIError renders a non-2xx payload into a domain error. The API
// uses both {"error": "..."} and {"detail": "..."} envelopes; rejected
// writes may instead carry per-field message lists, which become a
// ValidationError. A 401 on an authorized call means the session is no
// longer valid.
func decodeAPIError(status int, raw []byte, authorized bool) error {
	var msg string
	fields := make(map[string][]string)

	var env map[string]any
	if json.Unmarshal(raw, &env) == nil {
		for key, val := range env {
			switch v := val.(type) {
			case string:
				if key == "error" || key == "detail" {
					msg = v
				} else {
					fields[key] = []string{v}
				}
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok {
						fields[key] = append(fields[key], s)
					}
				}
			}
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Status: status, Fields: fields, Message: msg}
	}
	apiErr := &domain.APIError{Status: status, Message: msg}
	switch {
	case authorized && status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, apiErr)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, apiErr)
	}
	return apiErr
}
