// Package client talks to a notary over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idattest/internal/notary/models"
	id "idattest/pkg/domain"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health returns nil when the notary answers 200.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

func (c *Client) Pubkey(ctx context.Context) (id.Pubkey, error) {
	res, err := c.do(ctx, http.MethodGet, "/pubkey", nil)
	if err != nil {
		return id.Pubkey{}, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return id.Pubkey{}, err
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1024))
	if err != nil {
		return id.Pubkey{}, err
	}
	return models.ParsePubkeyHex(strings.TrimSpace(string(raw)))
}

func (c *Client) Notarize(ctx context.Context, sessionID string, transcript []byte) (*models.Attestation, error) {
	body, err := json.Marshal(models.NotarizeRequest{SessionID: sessionID, TranscriptData: transcript})
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, http.MethodPost, "/notarize", body)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}
	var resp models.NotarizeResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("notary: decode response: %w", err)
	}
	return resp.ToAttestation()
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notary: %s %s: %w", method, path, err)
	}
	return res, nil
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	Status int
	Code   string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notary: status %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("notary: status %d", e.Status)
}

func checkStatus(res *http.Response) error {
	if res.StatusCode == http.StatusOK {
		return nil
	}
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(res.Body, 4096)).Decode(&body)
	return &StatusError{Status: res.StatusCode, Code: body.Error}
}
